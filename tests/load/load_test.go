package load_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navifare/mcp-server/internal/pkg/jsonrpc"
)

type Stats struct {
	Succeeded   int
	RateLimited int
	Failed      int
}

func (s *Stats) Add(other Stats) {
	s.Succeeded += other.Succeeded
	s.RateLimited += other.RateLimited
	s.Failed += other.Failed
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func clearRedis(t *testing.T, ctx context.Context, rdb *redis.Client) {
	err := rdb.FlushDB(ctx).Err()
	require.NoError(t, err, "Failed to flush Redis")
}

func callMCP(ctx context.Context, url, sessionID string, payload interface{}) (Stats, error) {
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return Stats{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Mcp-Session-Id", sessionID)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Stats{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return Stats{RateLimited: 1}, nil
	}

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return Stats{}, fmt.Errorf("bad status: %d, body: %s", resp.StatusCode, string(raw))
	}

	var r jsonrpc.Response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return Stats{}, err
	}

	if r.Error != nil {
		return Stats{Failed: 1}, nil
	}

	return Stats{Succeeded: 1}, nil
}

func TestMCPEndpointLoad(t *testing.T) {
	appHost := getEnv("APP_HOST", "http://localhost:2091")
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	redisPass := getEnv("REDIS_PASSWORD", "")

	url := appHost + "/mcp"
	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPass,
		DB:       0,
	})
	defer rdb.Close()

	listRequest := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/list",
	}

	t.Run("Concurrent Tool Listing", func(t *testing.T) {
		clearRedis(t, ctx, rdb)
		vus := 5
		iterations := 4

		var (
			mu    sync.Mutex
			total Stats
			wg    sync.WaitGroup
		)

		wg.Add(vus)
		for vu := 0; vu < vus; vu++ {
			go func(vu int) {
				defer wg.Done()

				sessionID := fmt.Sprintf("load-sess-%d", vu)
				local := Stats{}
				for i := 0; i < iterations; i++ {
					stats, err := callMCP(ctx, url, sessionID, listRequest)
					if err != nil {
						t.Errorf("request failed: %v", err)
						return
					}
					local.Add(stats)
				}

				mu.Lock()
				total.Add(local)
				mu.Unlock()
			}(vu)
		}
		wg.Wait()

		assert.Zero(t, total.Failed, "no tools/list call should return a JSON-RPC error")
		assert.Positive(t, total.Succeeded)
	})

	t.Run("Rate Limit Enforced Per IP", func(t *testing.T) {
		clearRedis(t, ctx, rdb)

		// well past the per-second budget from one client
		attempts := 50
		total := Stats{}
		for i := 0; i < attempts; i++ {
			stats, err := callMCP(ctx, url, "load-sess-burst", listRequest)
			require.NoError(t, err)
			total.Add(stats)
		}

		assert.Positive(t, total.RateLimited, "burst traffic should trip the limiter")
		assert.Positive(t, total.Succeeded, "some requests should still pass")
	})
}
