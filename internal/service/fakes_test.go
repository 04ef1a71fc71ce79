package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"contacts-service/internal/model"
	"contacts-service/internal/store"
)

// fakeStore is an in-memory stand-in for the Redis-backed ephemeral store.
// Expiry is driven manually through expireNow.
type fakeStore struct {
	mu     sync.Mutex
	hashes map[string]map[string]string
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		hashes: map[string]map[string]string{},
		values: map[string]string{},
		ttls:   map[string]time.Duration{},
	}
}

func (f *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, h := f.hashes[key]
	_, v := f.values[key]
	return h || v, nil
}

func (f *fakeStore) SetFields(_ context.Context, key string, fields map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	f.hashes[key] = copied
	return nil
}

func (f *fakeStore) GetField(_ context.Context, key, field string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fields, ok := f.hashes[key]
	if !ok {
		return "", store.ErrKeyNotFound
	}
	v, ok := fields[field]
	if !ok {
		return "", store.ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeStore) SetValue(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeStore) GetValue(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return "", store.ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.hashes, key)
	delete(f.values, key)
	delete(f.ttls, key)
	return nil
}

func (f *fakeStore) ttl(key string) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ttls[key]
}

// expireNow simulates the key's TTL elapsing.
func (f *fakeStore) expireNow(key string) {
	f.Delete(context.Background(), key)
}

// fakeUserRepo imitates the directory including its unique email constraint.
type fakeUserRepo struct {
	mu          sync.Mutex
	byEmail     map[string]*model.User
	nextID      int64
	createCalls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: map[string]*model.User{}, nextID: 1}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if _, exists := f.byEmail[user.Email]; exists {
		return 0, &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	}
	stored := *user
	stored.ID = f.nextID
	f.nextID++
	f.byEmail[stored.Email] = &stored
	return stored.ID, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byEmail[email]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, userID int64, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == userID {
			u.PasswordHash = hash
		}
	}
	return nil
}

func (f *fakeUserRepo) UpdateAvatar(_ context.Context, userID int64, avatarURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == userID {
			url := avatarURL
			u.AvatarURL = &url
		}
	}
	return nil
}

// put installs a user directly, bypassing the registration flow.
func (f *fakeUserRepo) put(u *model.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *u
	if stored.ID == 0 {
		stored.ID = f.nextID
		f.nextID++
	}
	f.byEmail[stored.Email] = &stored
}

// setPasswordHash mutates the directory behind the cache's back.
func (f *fakeUserRepo) setPasswordHash(email, hash string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byEmail[email]; ok {
		u.PasswordHash = hash
	}
}

type noopPublisher struct{}

func (noopPublisher) PublishRegistrationRequested(string, string) error  { return nil }
func (noopPublisher) PublishPasswordResetRequested(string, string) error { return nil }

type fakeImageHost struct {
	mu      sync.Mutex
	uploads []string
}

func (f *fakeImageHost) Upload(_ context.Context, imageURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, imageURL)
	return "https://cdn.example.com/" + imageURL, nil
}

func (f *fakeImageHost) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}
