package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"augustus_tap/internal/db"
	"augustus_tap/internal/repository"
	"augustus_tap/internal/service"
)

// Connects a websocket for a test user, fires a tap over HTTP, and waits
// for the pushed state event. Needs a running server.
func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}
	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	ur := repository.NewUserRepository(pool)
	ctx := context.Background()

	u, err := ur.Upsert(ctx, 3001, "smoke", "Smoke", "", 100)
	if err != nil {
		log.Fatalf("upsert user: %v", err)
	}

	service.InitJWT()
	token, err := service.GenerateJWT(u.UserID)
	if err != nil {
		log.Fatalf("gen token: %v", err)
	}

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	wsURL := fmt.Sprintf("ws://127.0.0.1:%s/ws?token=%s", port, token)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	tapURL := fmt.Sprintf("http://127.0.0.1:%s/api/v1/tap", port)
	req, _ := http.NewRequest(http.MethodPost, tapURL, nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("tap request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	log.Printf("tap response %d: %s", resp.StatusCode, string(body))

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		log.Fatalf("ws read: %v", err)
	}
	log.Printf("ws got: %s", string(msg))

	log.Println("smoke test finished")
}
