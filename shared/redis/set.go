package redis

import (
	"context"
	"log"

	goredis "github.com/redis/go-redis/v9"
)

// SetIndex keeps small denormalised string sets, one Redis set per key.
// Like ViewCache, write failures are logged and swallowed.
type SetIndex struct {
	client *goredis.Client
	prefix string
}

func NewSetIndex(client *goredis.Client, prefix string) *SetIndex {
	return &SetIndex{client: client, prefix: prefix}
}

func (s *SetIndex) Add(ctx context.Context, key, member string) {
	if err := s.client.SAdd(ctx, s.prefix+key, member).Err(); err != nil {
		log.Printf("SetIndex: add error for key %s: %v", s.prefix+key, err)
	}
}

func (s *SetIndex) Remove(ctx context.Context, key, member string) {
	if err := s.client.SRem(ctx, s.prefix+key, member).Err(); err != nil {
		log.Printf("SetIndex: remove error for key %s: %v", s.prefix+key, err)
	}
}

// Members returns nil when the set is missing or Redis is unreachable.
func (s *SetIndex) Members(ctx context.Context, key string) []string {
	members, err := s.client.SMembers(ctx, s.prefix+key).Result()
	if err != nil {
		return nil
	}
	return members
}
