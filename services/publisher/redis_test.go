package publisher

import (
	"context"
	"strings"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamFor(t *testing.T) {
	p := NewRedisPublisher(context.Background(), "localhost:6379", 0, "xidmetler:records", 4, 100)
	defer p.Close()

	stream := p.StreamFor("101")
	assert.True(t, strings.HasPrefix(stream, "xidmetler:records:"))
	assert.Equal(t, stream, p.StreamFor("101"), "a key always maps to the same stream")

	seen := map[string]bool{}
	for _, id := range []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"} {
		seen[p.StreamFor(id)] = true
	}
	for s := range seen {
		suffix := strings.TrimPrefix(s, "xidmetler:records:")
		assert.Contains(t, []string{"0", "1", "2", "3"}, suffix)
	}
}

func TestStreamCountFloor(t *testing.T) {
	p := NewRedisPublisher(context.Background(), "localhost:6379", 0, "s", 0, 100)
	defer p.Close()

	assert.Equal(t, "s:0", p.StreamFor("anything"))
}

// This test requires a running Redis instance
// If Redis is not available, the test will be skipped
func TestRedisPublisher(t *testing.T) {
	ctx := context.Background()
	publisher := NewRedisPublisher(ctx, "localhost:6379", 0, "test_stream_xidmetler", 1, 10)
	defer publisher.Close()

	if err := publisher.Ping(); err != nil {
		t.Skip("Redis is not available, skipping test")
	}

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 0})
	defer client.Close()
	defer client.Del(ctx, "test_stream_xidmetler:0")

	err := publisher.Publish("101", []byte("test_message"))
	require.NoError(t, err)

	messages, err := client.XRange(ctx, "test_stream_xidmetler:0", "-", "+").Result()
	require.NoError(t, err)
	require.NotEmpty(t, messages)

	last := messages[len(messages)-1]
	assert.Equal(t, "101", last.Values["id"])
	// The message should be base64 encoded
	assert.Equal(t, "dGVzdF9tZXNzYWdl", last.Values[recordField])

	assert.NoError(t, publisher.TrimStreams())
}
