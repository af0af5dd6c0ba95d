package redis

import (
	"context"

	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
)

// SeenSet is a persistent membership set backed by a Redis SET.  The grant
// monitor uses it to deduplicate discovered listings across restarts.
type SeenSet struct {
	client *Client
	key    string
	logger logging.Logger
}

// NewSeenSet names the set within the client's key prefix.
func NewSeenSet(client *Client, name string, log logging.Logger) *SeenSet {
	if log == nil {
		log = logging.NewNopLogger()
	}
	prefix := "grantscope:"
	if client != nil && client.cfg.KeyPrefix != "" {
		prefix = client.cfg.KeyPrefix
	}
	return &SeenSet{client: client, key: prefix + "seen:" + name, logger: log}
}

// Contains reports membership.
func (s *SeenSet) Contains(ctx context.Context, member string) (bool, error) {
	ok, err := s.client.rdb.SIsMember(ctx, s.key, member).Result()
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.ErrCodeCacheError, "seen-set lookup")
	}
	return ok, nil
}

// Add records members as seen.
func (s *SeenSet) Add(ctx context.Context, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	if err := s.client.rdb.SAdd(ctx, s.key, args...).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "seen-set add")
	}
	return nil
}

// Size returns the member count, for operational visibility.
func (s *SeenSet) Size(ctx context.Context) (int64, error) {
	n, err := s.client.rdb.SCard(ctx, s.key).Result()
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrCodeCacheError, "seen-set size")
	}
	return n, nil
}
