package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// fillScript writes KEYS[1] only while the generation at KEYS[2] still equals
// ARGV[2]. ARGV[3] is the TTL in milliseconds, 0 for none.
var fillScript = goredis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[2] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

// ViewCache is a JSON-backed Redis cache for one read model type T. Keys are
// prefix+id; a TTL of 0 stores keys without expiry.
//
// Every key has a generation counter. Set and Delete bump it, and Fill only
// writes if the generation has not moved since the caller read it, so a slow
// database read cannot resurrect a view that was invalidated meanwhile.
type ViewCache[T any] struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewViewCache[T any](client *goredis.Client, prefix string, ttl time.Duration) *ViewCache[T] {
	return &ViewCache[T]{client: client, prefix: prefix, ttl: ttl}
}

func (c *ViewCache[T]) key(id string) string    { return c.prefix + id }
func (c *ViewCache[T]) genKey(id string) string { return c.prefix + "gen:" + id }

// Get returns (nil, false) on any miss or deserialisation error.
func (c *ViewCache[T]) Get(ctx context.Context, id string) (*T, bool) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		log.Printf("ViewCache: dropping undecodable entry %s: %v", c.key(id), err)
		c.Delete(ctx, id)
		return nil, false
	}
	return &v, true
}

// Generation returns the current generation of id. Read it before loading
// from the source of truth and hand it to Fill. ok is false when Redis could
// not be read; the caller should then skip the fill.
func (c *ViewCache[T]) Generation(ctx context.Context, id string) (gen int64, ok bool) {
	gen, err := c.client.Get(ctx, c.genKey(id)).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, true
	}
	if err != nil {
		log.Printf("ViewCache: generation read error for key %s: %v", c.key(id), err)
		return 0, false
	}
	return gen, true
}

// Fill stores a view loaded on a cache miss, unless id was set or deleted
// after gen was read.
func (c *ViewCache[T]) Fill(ctx context.Context, id string, value *T, gen int64) bool {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("ViewCache: marshal error for key %s: %v", c.key(id), err)
		return false
	}
	written, err := fillScript.Run(ctx, c.client,
		[]string{c.key(id), c.genKey(id)},
		data, gen, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		log.Printf("ViewCache: fill error for key %s: %v", c.key(id), err)
		return false
	}
	return written == 1
}

// Set writes through a fresh view. Errors are logged rather than returned; a
// cache write miss is non-fatal.
func (c *ViewCache[T]) Set(ctx context.Context, id string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("ViewCache: marshal error for key %s: %v", c.key(id), err)
		return
	}
	_, err = c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey(id))
		pipe.Set(ctx, c.key(id), data, c.ttl)
		return nil
	})
	if err != nil {
		log.Printf("ViewCache: write error for key %s: %v", c.key(id), err)
	}
}

func (c *ViewCache[T]) Delete(ctx context.Context, id string) {
	_, err := c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey(id))
		pipe.Del(ctx, c.key(id))
		return nil
	})
	if err != nil {
		log.Printf("ViewCache: delete error for key %s: %v", c.key(id), err)
	}
}
