package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Repair jobs that exhaust their retries land on a per-queue dead letter
// list (dlq:{queue}) for manual inspection. A register stuck here means
// reconciliation could not force it closed on its own.
const dlqPrefix = "dlq:"

type dlqEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"` // RFC 3339
	Attempts      int             `json:"attempts"`
}

// sendToDLQ parks an exhausted job. Failures here are only logged: the
// job is lost, but the periodic sweep will find the register again.
func sendToDLQ(ctx context.Context, rdb *redis.Client, queue, jobType string, payload json.RawMessage, reason string, attempts int) {
	entry := dlqEntry{
		OriginalQueue: queue,
		JobType:       jobType,
		Payload:       payload,
		Reason:        reason,
		FailedAt:      time.Now().UTC().Format(time.RFC3339),
		Attempts:      attempts,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	key := dlqPrefix + queue
	if err := rdb.LPush(ctx, key, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", key).Msg("dlq: push failed, dropping job")
		return
	}

	log.Warn().
		Str("queue", queue).
		Str("job_type", jobType).
		Str("reason", reason).
		Int("attempts", attempts).
		Msg("dlq: repair job parked for manual inspection")
}
