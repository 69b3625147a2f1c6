package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/jobmatch/internal/db"
)

// SAdd adds members and refreshes the set TTL in a single DoMulti round-trip.
func (s *Store) SAdd(ctx context.Context, key string, ttl time.Duration, members ...string) error {
	if len(members) == 0 {
		return nil
	}

	cmds := make(rueidis.Commands, 0, 2)
	cmds = append(cmds,
		s.b().Sadd().Key(key).Member(members...).Build(),
		s.b().Expire().Key(key).Seconds(ttlSeconds(ttl)).Build(),
	)

	ops := [...]string{db.OpSAdd, db.OpExpire}
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: ops[i], Err: fmt.Errorf("key %s: %w", key, err)}
		}
	}
	return nil
}

// SMembers returns all members of a set.
func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	cmd := s.b().Smembers().Key(key).Build()
	members, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, &db.Error{Op: db.OpSMembers, Err: err}
	}
	return members, nil
}
