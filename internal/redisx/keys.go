package redisx

import (
	"fmt"
	"time"
)

const (
	// Admin session: session:{token} -> {"id": "...", "email": "...", "name": "..."}
	KeySession = "session:%s"

	// Public read cache: cache:public:{resource}
	KeyPublicCache = "cache:public:%s"

	// Checkout idempotency: idem:order:place:{external_id} -> order_id
	KeyIdemOrderPlace = "idem:order:place:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Admin activity feed, newest first.
	KeyActivityFeed = "feed:activity"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLDedup       = 48 * time.Hour
)

const FeedCap = 100

func SessionKey(token string) string { return fmt.Sprintf(KeySession, token) }

func PublicCacheKey(resource string) string { return fmt.Sprintf(KeyPublicCache, resource) }

func IdemOrderKey(externalID string) string { return fmt.Sprintf(KeyIdemOrderPlace, externalID) }

func DedupKey(service, eventID string) string { return fmt.Sprintf(KeyDedup, service, eventID) }
