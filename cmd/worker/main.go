package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"contacts-service/internal/mailer"
	"contacts-service/internal/worker"
)

func main() {
	godotenv.Load(".env.dev")

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		log.Fatal("NATS_URL environment variable is not set")
	}

	nc, err := nats.Connect(natsURL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer nc.Close()

	w := worker.New(nc, buildSender())
	if err := w.Start(); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}
	defer w.Stop()

	log.Println("Notification worker started, waiting for events...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down notification worker...")
}

func buildSender() mailer.Sender {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		log.Println("SMTP credentials not found. Worker will run in MOCK mode.")
		return mailer.NewMockSender()
	}

	port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))

	sender, err := mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     host,
		Port:     port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	})
	if err != nil {
		log.Fatalf("Failed to configure SMTP sender: %v", err)
	}

	log.Println("SMTP credentials found, sending real email.")
	return sender
}
