package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"time"

	"txsync/internal/db"
	"txsync/internal/domain"
	"txsync/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	currencies = []string{"USD", "EUR", "GBP", "JPY"}
	statuses   = []domain.Status{domain.StatusPending, domain.StatusCompleted, domain.StatusFailed}
)

// Seeds random transactions for manual testing of warm-up and fanout.
func main() {
	count := flag.Int("n", 50, "number of transactions to seed")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	repo := repository.NewTransactionRepository(pool)
	ctx := context.Background()

	base := time.Now().Add(-24 * time.Hour)
	for i := 0; i < *count; i++ {
		tx := &domain.Transaction{
			ID:        uuid.NewString(),
			Amount:    decimal.NewFromFloat(rand.Float64() * 1000).Round(2),
			Currency:  currencies[rand.Intn(len(currencies))],
			Status:    statuses[rand.Intn(len(statuses))],
			EventTime: base.Add(time.Duration(i) * time.Minute),
		}
		inserted, err := repo.Insert(ctx, tx)
		if err != nil {
			log.Fatalf("insert: %v", err)
		}
		if !inserted {
			log.Printf("skipped duplicate id %s", tx.ID)
		}
	}

	log.Printf("seeded %d transactions", *count)
}
