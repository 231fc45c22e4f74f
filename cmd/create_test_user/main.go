package main

import (
	"context"
	"log"
	"os"

	"augustus_tap/internal/db"
	"augustus_tap/internal/repository"
	"augustus_tap/internal/service"
)

func main() {
	// expects DATABASE_URL env var
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	repo := repository.NewUserRepository(pool)
	ctx := context.Background()

	userID := int64(1234567890)

	u, err := repo.Upsert(ctx, userID, "testuser", "Tester", "", 100)
	if err != nil {
		log.Fatalf("upsert user failed: %v", err)
	}
	log.Printf("user ready id=%d balance=%d energy=%d\n", u.UserID, u.Balance, u.Energy)

	// verify read
	u2, err := repo.GetByID(ctx, u.UserID)
	if err != nil {
		log.Fatalf("get by id failed: %v", err)
	}
	log.Printf("fetched user id=%d username=%s created_at=%v\n", u2.UserID, u2.Username, u2.CreatedAt)

	// initialize JWT and print token
	service.InitJWT()
	token, err := service.GenerateJWT(u2.UserID)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}
	log.Printf("token=%s\n", token)
}
