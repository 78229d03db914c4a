// cmd/historian/main.go is an asynchronous historian service that pops finished-match
// records from a Redis queue and persists them to a PostgreSQL database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/newsquiz/internal/cache"
	"github.com/jason-s-yu/newsquiz/internal/config"
	"github.com/jason-s-yu/newsquiz/internal/database"
	"github.com/jason-s-yu/newsquiz/internal/models"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

// HistorianService drains the match queue into Postgres in batches.
type HistorianService struct {
	queue      *cache.Publisher
	pool       *pgxpool.Pool
	batchSize  int
	flushDelay time.Duration
	log        *logrus.Logger

	batchMu sync.Mutex
	batch   []models.MatchRecord
}

// NewHistorianService wires the service from configuration.
func NewHistorianService(queue *cache.Publisher, pool *pgxpool.Pool, cfg config.Config, logger *logrus.Logger) *HistorianService {
	return &HistorianService{
		queue:      queue,
		pool:       pool,
		batchSize:  cfg.BatchSize,
		flushDelay: cfg.FlushDelay,
		log:        logger,
		batch:      make([]models.MatchRecord, 0, cfg.BatchSize),
	}
}

// Run reads the queue until ctx is cancelled, flushing on size or on the flush timer.
func (hs *HistorianService) Run(ctx context.Context) {
	ticker := time.NewTicker(hs.flushDelay)
	defer ticker.Stop()
	defer hs.flush(context.Background())

	hs.log.Info("quiz historian started")
	for {
		select {
		case <-ctx.Done():
			hs.log.Info("quiz historian shutting down")
			return
		case <-ticker.C:
			hs.flush(ctx)
		default:
			// short BLPop timeout so cancellation and the flush timer are honoured
			rec, err := hs.queue.Pop(ctx, time.Second)
			if err != nil {
				if ctx.Err() == nil {
					hs.log.WithError(err).Error("pop match record")
				}
				continue
			}
			if rec == nil {
				continue
			}
			hs.appendToBatch(ctx, *rec)
		}
	}
}

func (hs *HistorianService) appendToBatch(ctx context.Context, rec models.MatchRecord) {
	hs.batchMu.Lock()
	hs.batch = append(hs.batch, rec)
	full := len(hs.batch) >= hs.batchSize
	hs.batchMu.Unlock()
	if full {
		hs.flush(ctx)
	}
}

// flush writes the pending batch in one transaction.
func (hs *HistorianService) flush(ctx context.Context) {
	hs.batchMu.Lock()
	if len(hs.batch) == 0 {
		hs.batchMu.Unlock()
		return
	}
	batchCopy := make([]models.MatchRecord, len(hs.batch))
	copy(batchCopy, hs.batch)
	hs.batch = hs.batch[:0]
	hs.batchMu.Unlock()

	if err := database.InsertMatchRecords(ctx, hs.pool, batchCopy); err != nil {
		hs.log.WithError(err).Errorf("failed to flush %d match records", len(batchCopy))
		return
	}
	hs.log.Infof("Flushed %d match records to DB.", len(batchCopy))
}

func main() {
	recent := flag.String("recent", "", "print the latest matches for a player name and exit")
	flag.Parse()

	cfg := config.Load()
	logger := logrus.New()
	logger.SetLevel(cfg.LogLevel)

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL (or PG_HOST etc.) must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.Fatalf("database: %v", err)
	}

	if *recent != "" {
		recs, err := database.RecentMatches(ctx, pool, *recent, 10)
		if err != nil {
			logger.Fatalf("recent matches: %v", err)
		}
		for _, r := range recs {
			title := ""
			if r.Article != nil {
				title = r.Article.Title
			}
			fmt.Printf("%s  room %s  %s\n", time.UnixMilli(r.FinishedAt).Format(time.RFC3339), r.RoomCode, title)
		}
		return
	}

	if cfg.RedisAddr == "" {
		logger.Fatal("REDIS_ADDR must be set")
	}
	queue, err := cache.NewPublisher(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.HistoryQueue)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer queue.Close()

	NewHistorianService(queue, pool, cfg, logger).Run(ctx)
	logger.Info("Historian shutdown complete.")
}
