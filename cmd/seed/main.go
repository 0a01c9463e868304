// Command seed populates the document store with synthetic users and
// transactions for local development and load testing.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mlozan/finrecord/internal/config"
	"github.com/mlozan/finrecord/internal/domain"
	"github.com/mlozan/finrecord/internal/fieldcrypt"
	"github.com/mlozan/finrecord/internal/logging"
	"github.com/mlozan/finrecord/internal/repository"
	"github.com/mlozan/finrecord/internal/store"
)

var firstNames = []string{"Ama", "Jane", "Kofi", "Liang", "Maya", "Noah", "Priya", "Sofia", "Tomas", "Yusuf"}
var lastNames = []string{"Asante", "Doe", "Garcia", "Ivanov", "Khan", "Mensah", "Okafor", "Silva", "Tanaka", "Weber"}

func main() {
	var (
		numUsers        = flag.Int("users", 50, "number of users to create")
		numTransactions = flag.Int("transactions", 500, "number of transactions to create")
		workers         = flag.Int("workers", 4, "number of concurrent workers")
		seed            = flag.Int64("seed", time.Now().UnixNano(), "random seed")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "seed")

	cipher, err := fieldcrypt.New(cfg.Cipher.Key)
	if err != nil {
		logger.Error("failed to initialize field cipher", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	storeClient, err := store.NewMongo(ctx, store.Options{
		URI:            cfg.Store.URI,
		Database:       cfg.Store.Database,
		ConnectTimeout: cfg.Store.ConnectTimeout,
		MaxPoolSize:    uint64(cfg.Store.MaxPoolSize),
	})
	if err != nil {
		logger.Error("failed to connect to document store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := storeClient.Close(context.Background()); err != nil {
			logger.Warn("closing store client failed", "error", err)
		}
	}()

	users := repository.NewUsers(storeClient, cipher, cfg.Limits.ListMaxLimit)
	transactions := repository.NewTransactions(storeClient, users, cipher, cfg.Limits.AnalyticsMaxTransactions, 0)

	rng := rand.New(rand.NewSource(*seed))

	logger.Info("seeding users", "count", *numUsers)
	userIDs, err := seedUsers(ctx, users, rng, *numUsers, *workers)
	if err != nil {
		logger.Error("seeding users failed", "error", err)
		os.Exit(1)
	}

	logger.Info("seeding transactions", "count", *numTransactions)
	if err := seedTransactions(ctx, transactions, rng, userIDs, *numTransactions, *workers); err != nil {
		logger.Error("seeding transactions failed", "error", err)
		os.Exit(1)
	}

	logger.Info("seed complete", "users", len(userIDs), "transactions", *numTransactions)
}

func seedUsers(ctx context.Context, users *repository.Users, rng *rand.Rand, count, workers int) ([]string, error) {
	names := make([]string, count)
	for i := range names {
		names[i] = fmt.Sprintf("%s %s", firstNames[rng.Intn(len(firstNames))], lastNames[rng.Intn(len(lastNames))])
	}

	ids := make([]string, count)
	err := runWorkers(ctx, count, workers, func(idx int) error {
		user, err := users.Create(ctx, names[idx])
		if err != nil {
			return err
		}
		ids[idx] = user.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func seedTransactions(ctx context.Context, transactions *repository.Transactions, rng *rand.Rand, userIDs []string, count, workers int) error {
	if len(userIDs) == 0 {
		return fmt.Errorf("no users to attach transactions to")
	}

	inputs := make([]repository.CreateTransactionInput, count)
	now := time.Now().UTC()
	for i := range inputs {
		txType := domain.TypeDebit
		if rng.Intn(2) == 0 {
			txType = domain.TypeCredit
		}
		date := now.Add(-time.Duration(rng.Intn(90*24)) * time.Hour)
		inputs[i] = repository.CreateTransactionInput{
			UserID: userIDs[rng.Intn(len(userIDs))],
			Amount: float64(rng.Intn(100000)) / 100,
			Type:   txType,
			Date:   &date,
		}
	}

	return runWorkers(ctx, count, workers, func(idx int) error {
		_, err := transactions.Create(ctx, inputs[idx])
		return err
	})
}

// runWorkers fans tasks out over a bounded pool, stopping on the first error
// or context cancellation.
func runWorkers(ctx context.Context, total, workers int, fn func(idx int) error) error {
	if workers <= 0 {
		workers = 4
	}
	indexCh := make(chan int)
	errCh := make(chan error, total)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexCh {
				if err := fn(idx); err != nil {
					select {
					case errCh <- err:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

Loop:
	for i := 0; i < total; i++ {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()
	close(errCh)

	if err := ctx.Err(); err != nil {
		return err
	}
	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return nil
}
