package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"txsync/internal/domain"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

// Smoke check against a running server: connect an observer, post one
// event, verify the broadcast arrives.
func main() {
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	wsURL := fmt.Sprintf("ws://localhost:%s/ws", port)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("ws dial: %v", err)
	}
	defer conn.Close()

	event := map[string]any{
		"id":         uuid.NewString(),
		"amount":     decimal.NewFromFloat(42.50),
		"currency":   "USD",
		"status":     string(domain.StatusPending),
		"event_time": time.Now().UTC().Format(time.RFC3339Nano),
	}
	body, _ := json.Marshal(event)

	resp, err := http.Post(
		fmt.Sprintf("http://localhost:%s/api/transactions", port),
		"application/json", bytes.NewReader(body),
	)
	if err != nil {
		log.Fatalf("post event: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		log.Fatalf("unexpected upsert status: %d", resp.StatusCode)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		log.Fatalf("no broadcast received: %v", err)
	}

	var got domain.Transaction
	if err := json.Unmarshal(msg, &got); err != nil {
		log.Fatalf("decode broadcast: %v", err)
	}
	if got.ID != event["id"] {
		log.Fatalf("broadcast id mismatch: got %s want %s", got.ID, event["id"])
	}

	fmt.Println("smoke ok: upsert accepted and broadcast received, id =", got.ID)
}
