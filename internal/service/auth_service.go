package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"contacts-service/internal/events"
	"contacts-service/internal/imaging"
	"contacts-service/internal/model"
	"contacts-service/internal/password"
	"contacts-service/internal/repository"
	"contacts-service/internal/store"
	"contacts-service/internal/token"
)

var (
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrRegistrationPending   = errors.New("a registration is already pending for this email")
	ErrEmailTaken            = errors.New("a user with this email already exists")
	ErrNoPendingRegistration = errors.New("no pending registration for this email")
	ErrBadConfirmationCode   = errors.New("confirmation code does not match")
	ErrUserNotFound          = errors.New("user not found")
	ErrResetPending          = errors.New("a password reset is already pending for this email")
	ErrNoPendingReset        = errors.New("no pending password reset for this email")
	ErrNotAdmin              = errors.New("operation requires the ADMIN role")
)

const (
	AccessTokenTTL         = 24 * time.Hour
	PendingRegistrationTTL = 24 * time.Hour
	PendingResetTTL        = 30 * time.Minute
)

type AuthService interface {
	Register(ctx context.Context, email, plaintext string) error
	ConfirmRegistration(ctx context.Context, email, code string) (*model.User, error)
	Login(ctx context.Context, email, plaintext string) (string, error)
	ResolveIdentity(ctx context.Context, tokenString string) (*model.User, error)
	RequestPasswordReset(ctx context.Context, email, newPlaintext string) error
	ConfirmPasswordReset(ctx context.Context, email, code string) error
	UpdateAvatar(ctx context.Context, actor *model.User, imageURL string) (*model.User, error)
}

type authService struct {
	users     repository.UserRepository
	pending   store.Store
	active    store.Store
	resets    store.Store
	codec     *token.Codec
	publisher events.EventPublisher
	images    imaging.ImageHost
}

func NewAuthService(
	users repository.UserRepository,
	pending, active, resets store.Store,
	codec *token.Codec,
	publisher events.EventPublisher,
	images imaging.ImageHost,
) AuthService {
	return &authService{
		users:     users,
		pending:   pending,
		active:    active,
		resets:    resets,
		codec:     codec,
		publisher: publisher,
		images:    images,
	}
}

// userSnapshot is the serialization contract for user state held in the
// ephemeral store, both the unpersisted pending-registration payload and the
// cached active-user entry. Fields are listed explicitly so stored payloads
// survive changes to model.User.
type userSnapshot struct {
	Version      int     `json:"version"`
	ID           int64   `json:"id,omitempty"`
	Email        string  `json:"email"`
	PasswordHash string  `json:"password_hash,omitempty"`
	AvatarURL    *string `json:"avatar_url,omitempty"`
	Role         string  `json:"role"`
}

const snapshotVersion = 1

func snapshotOf(u *model.User) userSnapshot {
	return userSnapshot{
		Version:      snapshotVersion,
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		AvatarURL:    u.AvatarURL,
		Role:         u.Role,
	}
}

func (s userSnapshot) toUser() *model.User {
	return &model.User{
		ID:           s.ID,
		Email:        s.Email,
		PasswordHash: s.PasswordHash,
		AvatarURL:    s.AvatarURL,
		Role:         s.Role,
	}
}

func (s *authService) Register(ctx context.Context, email, plaintext string) error {
	alreadyPending, err := s.pending.Exists(ctx, email)
	if err != nil {
		return err
	}
	if alreadyPending {
		return ErrRegistrationPending
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrEmailTaken
	}

	hash, err := password.Hash(plaintext)
	if err != nil {
		return err
	}

	code, err := newConfirmationCode()
	if err != nil {
		return err
	}

	snapshot, err := json.Marshal(userSnapshot{
		Version:      snapshotVersion,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
	})
	if err != nil {
		return err
	}

	if err := s.pending.SetFields(ctx, email, map[string]string{
		"user": string(snapshot),
		"code": code,
	}); err != nil {
		return err
	}
	if err := s.pending.Expire(ctx, email, PendingRegistrationTTL); err != nil {
		return err
	}

	go s.publisher.PublishRegistrationRequested(email, code)

	return nil
}

func (s *authService) ConfirmRegistration(ctx context.Context, email, code string) (*model.User, error) {
	storedCode, err := s.pending.GetField(ctx, email, "code")
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, ErrNoPendingRegistration
	}
	if err != nil {
		return nil, err
	}

	if storedCode != code {
		return nil, ErrBadConfirmationCode
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	raw, err := s.pending.GetField(ctx, email, "user")
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, ErrNoPendingRegistration
	}
	if err != nil {
		return nil, err
	}

	var snapshot userSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, fmt.Errorf("corrupt pending registration for %s: %w", email, err)
	}

	user := snapshot.toUser()
	newID, err := s.users.Create(ctx, user)
	if err != nil {
		// A racing confirmation may have won; the directory's unique email
		// constraint is the authoritative guard.
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	user.ID = newID

	if err := s.pending.Delete(ctx, email); err != nil {
		log.Printf("Failed to delete pending registration for %s: %v", email, err)
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, email, plaintext string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil || !password.Verify(plaintext, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	return s.codec.Issue(user.Email, AccessTokenTTL)
}

// ResolveIdentity turns a bearer token into the authenticated user, serving
// repeated lookups from the active-user cache. Profile fields may be up to
// one token TTL stale; UpdateAvatar and ConfirmPasswordReset refresh them.
func (s *authService) ResolveIdentity(ctx context.Context, tokenString string) (*model.User, error) {
	subject, _, err := s.codec.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	cached, err := s.active.GetValue(ctx, subject)
	if err == nil {
		var snapshot userSnapshot
		if err := json.Unmarshal([]byte(cached), &snapshot); err == nil {
			return snapshot.toUser(), nil
		}
		log.Printf("Discarding corrupt cached snapshot for %s", subject)
	} else if !errors.Is(err, store.ErrKeyNotFound) {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err := s.cacheUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *authService) RequestPasswordReset(ctx context.Context, email, newPlaintext string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	alreadyPending, err := s.resets.Exists(ctx, email)
	if err != nil {
		return err
	}
	if alreadyPending {
		return ErrResetPending
	}

	// The hash is stored now; the code confirms this specific password, it
	// is not a generic "set a password" link.
	hash, err := password.Hash(newPlaintext)
	if err != nil {
		return err
	}

	code, err := newConfirmationCode()
	if err != nil {
		return err
	}

	if err := s.resets.SetFields(ctx, email, map[string]string{
		"code":     code,
		"password": hash,
	}); err != nil {
		return err
	}
	if err := s.resets.Expire(ctx, email, PendingResetTTL); err != nil {
		return err
	}

	go s.publisher.PublishPasswordResetRequested(email, code)

	return nil
}

func (s *authService) ConfirmPasswordReset(ctx context.Context, email, code string) error {
	storedCode, err := s.resets.GetField(ctx, email, "code")
	if errors.Is(err, store.ErrKeyNotFound) {
		return ErrNoPendingReset
	}
	if err != nil {
		return err
	}

	if storedCode != code {
		return ErrBadConfirmationCode
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	hash, err := s.resets.GetField(ctx, email, "password")
	if errors.Is(err, store.ErrKeyNotFound) {
		return ErrNoPendingReset
	}
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	if err := s.resets.Delete(ctx, email); err != nil {
		log.Printf("Failed to delete pending reset for %s: %v", email, err)
	}

	return s.active.Delete(ctx, email)
}

func (s *authService) UpdateAvatar(ctx context.Context, actor *model.User, imageURL string) (*model.User, error) {
	if actor.Role != model.RoleAdmin {
		return nil, ErrNotAdmin
	}

	secureURL, err := s.images.Upload(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateAvatar(ctx, actor.ID, secureURL); err != nil {
		return nil, err
	}

	updated := *actor
	updated.AvatarURL = &secureURL

	if err := s.cacheUser(ctx, &updated); err != nil {
		return nil, err
	}

	return &updated, nil
}

func (s *authService) cacheUser(ctx context.Context, user *model.User) error {
	snapshot, err := json.Marshal(snapshotOf(user))
	if err != nil {
		return err
	}
	if err := s.active.SetValue(ctx, user.Email, string(snapshot)); err != nil {
		return err
	}
	return s.active.Expire(ctx, user.Email, AccessTokenTTL)
}

func newConfirmationCode() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
