// internal/cache/redis_test.go
package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/newsquiz/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires a running Redis; set REDIS_ADDR to enable.
func TestPublishAndPop(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	queue := "quiz_results_test_" + uuid.NewString()
	p, err := NewPublisher(ctx, addr, 0, queue)
	require.NoError(t, err)
	defer p.Close()
	defer p.rdb.Del(ctx, queue)

	rec := models.MatchRecord{
		ID:         uuid.New(),
		RoomCode:   "ABC123",
		PlayerID:   "p1",
		PlayerName: "Ana",
		Article:    &models.Article{Title: "Summit ends in accord"},
		Leaderboard: []models.LeaderboardEntry{
			{Name: "Ana", Score: 300},
		},
		FinishedAt: time.Now().UnixMilli(),
	}
	require.NoError(t, p.RecordMatch(ctx, rec))

	got, err := p.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "Summit ends in accord", got.Article.Title)

	empty, err := p.Pop(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestNewPublisherUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewPublisher(ctx, "127.0.0.1:1", 0, "")
	assert.Error(t, err)
}
