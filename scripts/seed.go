//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mwadhwa/touchbase/internal/auth"
	"github.com/mwadhwa/touchbase/internal/database"
	"github.com/mwadhwa/touchbase/internal/store"
	"github.com/mwadhwa/touchbase/pkg/config"
	"github.com/mwadhwa/touchbase/pkg/util"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Create owner account
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db, jwtService)

	email := os.Getenv("OWNER_EMAIL")
	password := os.Getenv("OWNER_PASSWORD")
	name := os.Getenv("OWNER_NAME")

	if email == "" {
		email = "owner@example.com"
	}
	if password == "" {
		password = "Owner123!"
	}
	if name == "" {
		name = "Owner"
	}

	ctx := context.Background()
	resp, err := authService.Register(ctx, auth.RegisterInput{
		Email:    email,
		Password: password,
		Name:     name,
	})
	if err != nil {
		if err == auth.ErrRegistrationClosed {
			fmt.Printf("Owner account already exists\n")
			return
		}
		log.Fatalf("failed to create owner account: %v", err)
	}

	fmt.Printf("Owner account created successfully!\n")
	fmt.Printf("Email: %s\n", resp.User.Email)
	fmt.Printf("Token: %s\n", resp.Token)

	// Demo contacts and correspondence
	contacts := store.NewContactStore(db, logger)
	emails := store.NewEmailStore(db, logger)

	seedContacts := []store.CreateContactInput{
		{
			Name:    "Ada Lovelace",
			Company: "Analytical Engines",
			Methods: []store.MethodInput{
				{Type: "email", Value: "ada@analytical.example", IsPrimary: true},
			},
		},
		{
			Name:    "Grace Hopper",
			Company: "Navy Research",
			Methods: []store.MethodInput{
				{Type: "email", Value: "grace@navy.example", IsPrimary: true},
				{Type: "phone", Value: "+15550100200"},
			},
		},
	}
	for _, in := range seedContacts {
		if _, err := contacts.Create(ctx, in); err != nil {
			log.Printf("skipping contact %s: %v", in.Name, err)
		}
	}

	if _, err := emails.Create(ctx, store.CreateEmailInput{
		Contacts: []string{"Ada Lovelace"},
		Date:     time.Now().AddDate(0, 0, -7),
		Subject:  "Catching up",
		Content:  "It was great to see you at the conference last week.",
		Sender:   "ada@analytical.example",
	}); err != nil {
		log.Printf("skipping seed email: %v", err)
	}

	fmt.Printf("Seeded demo contacts and emails\n")
}
