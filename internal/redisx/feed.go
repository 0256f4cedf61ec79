package redisx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Activity is one line on the admin dashboard.
type Activity struct {
	EventID    string    `json:"event_id"`
	Kind       string    `json:"kind"`
	Summary    string    `json:"summary"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PushFeed prepends a to the activity feed and trims it to FeedCap entries.
func PushFeed(ctx context.Context, rdb redis.Cmdable, a Activity) error {
	b, err := json.Marshal(a)
	if err != nil {
		return err
	}
	pipe := rdb.TxPipeline()
	pipe.LPush(ctx, KeyActivityFeed, b)
	pipe.LTrim(ctx, KeyActivityFeed, 0, FeedCap-1)
	_, err = pipe.Exec(ctx)
	return err
}

// ReadFeed returns up to n entries, newest first. Undecodable entries are skipped.
func ReadFeed(ctx context.Context, rdb redis.Cmdable, n int) ([]Activity, error) {
	if n <= 0 || n > FeedCap {
		n = FeedCap
	}
	raw, err := rdb.LRange(ctx, KeyActivityFeed, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Activity, 0, len(raw))
	for _, s := range raw {
		var a Activity
		if json.Unmarshal([]byte(s), &a) != nil {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
