package publisher

import (
	"context"
	"encoding/base64"
	"hash/fnv"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/dealmungchi/xidmetlercrawler/logger"
)

// recordField is the stream entry field holding the base64 JSON record
const recordField = "b64_record"

// RedisPublisher implements Publisher using Redis streams
type RedisPublisher struct {
	client          *redis.Client
	ctx             context.Context
	streamPrefix    string
	streamCount     int
	streamMaxLength int
	log             *logger.Logger
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(ctx context.Context, addr string, db int, streamPrefix string, streamCount int, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	if streamCount < 1 {
		streamCount = 1
	}

	return &RedisPublisher{
		client:          client,
		ctx:             ctx,
		streamPrefix:    streamPrefix,
		streamCount:     streamCount,
		streamMaxLength: streamMaxLength,
		log:             logger.ForPublisher().WithField("addr", addr),
	}
}

// Ping checks the Redis connection
func (p *RedisPublisher) Ping() error {
	return p.client.Ping(p.ctx).Err()
}

// StreamFor returns the stream a key is published to.
// The same listing id always lands on the same stream
func (p *RedisPublisher) StreamFor(key string) string {
	h := fnv.New32a()
	h.Write([]byte(key))
	return p.streamPrefix + ":" + strconv.Itoa(int(h.Sum32()%uint32(p.streamCount)))
}

// Publish publishes a message to a Redis stream
// The message is base64 encoded before publishing
func (p *RedisPublisher) Publish(key string, message []byte) error {
	encodedMessage := base64.StdEncoding.EncodeToString(message)
	stream := p.StreamFor(key)

	entryID, err := p.client.XAdd(p.ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"id":        key,
			recordField: encodedMessage,
		},
	}).Result()
	if err != nil {
		return err
	}

	p.log.Debug().Str("stream", stream).Str("entry_id", entryID).Str("listing_id", key).Msg("Published record")
	return nil
}

// TrimStreams trims all streams to the configured maximum length
func (p *RedisPublisher) TrimStreams() error {
	for i := 0; i < p.streamCount; i++ {
		stream := p.streamPrefix + ":" + strconv.Itoa(i)
		trimmed, err := p.client.XTrimMaxLen(p.ctx, stream, int64(p.streamMaxLength)).Result()
		if err != nil {
			return err
		}
		p.log.Debug().Str("stream", stream).Int64("trimmed", trimmed).Msg("Trimmed stream")
	}
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
