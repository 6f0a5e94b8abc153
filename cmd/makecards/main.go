package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makkenzo/entitlement-service/internal/clock"
	"github.com/makkenzo/entitlement-service/internal/metrics"
	"github.com/makkenzo/entitlement-service/internal/service"
	"github.com/makkenzo/entitlement-service/internal/storage/postgres"
	"go.uber.org/zap"
)

func main() {
	count := flag.Int("count", 10, "Number of cards to issue")
	days := flag.Int("days", 30, "Days granted by each card")
	utcOffset := flag.Int("utc-offset", 8, "Hour offset of the service clock")
	flag.Parse()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool, logger); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	cards := service.NewCardService(
		postgres.NewCardRepository(pool, logger),
		clock.NewFixedOffset(*utcOffset),
		metrics.NewNop(),
		logger,
	)

	issued, err := cards.Issue(ctx, *count, *days)
	if err != nil {
		log.Fatalf("Failed to issue cards: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CARD NUMBER\tPASSWORD\tDAYS")
	for _, c := range issued {
		fmt.Fprintf(w, "%s\t%s\t%d\n", c.CardNumber, c.CardPassword, c.Days)
	}
	w.Flush()

	fmt.Printf("\nIssued %d cards granting %d days each.\n", len(issued), *days)
}
