package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueReconcile = "jobs:reconcile"

	maxRepairAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// RepairPayload carries why a repair was requested, for the audit trail.
type RepairPayload struct {
	Reason      string `json:"reason"`
	RequestedAt string `json:"requested_at"` // ISO 8601
}

// Repairer runs one reconciliation pass. Implemented by the reconcile
// service; declared here so the pool does not depend on the service layer.
type Repairer interface {
	Repair(ctx context.Context) bool
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueRepair pushes a reconciliation repair request to Redis. Callers
// treat failures as non-fatal: repair is best-effort self-healing, never
// a precondition for the primary flow.
func (d *Dispatcher) EnqueueRepair(ctx context.Context, reason string) error {
	payload := RepairPayload{Reason: reason, RequestedAt: time.Now().UTC().Format(time.RFC3339)}
	return d.enqueue(ctx, QueueReconcile, "reconcile", payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming the reconcile
// queue. Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, repairer Repairer, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, repairer, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, repairer Repairer, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, QueueReconcile).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, repairer, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, repairer Repairer, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	if repairer.Repair(ctx) {
		log.Debug().Str("type", job.Type).Msg("reconciliation job done")
		return
	}

	job.Attempts++
	if job.Attempts >= maxRepairAttempts {
		sendToDLQ(ctx, rdb, queue, job.Type, job.Payload, "repair kept failing", job.Attempts)
		return
	}

	// Re-queue for another attempt; the repair itself is idempotent.
	encoded, err := json.Marshal(job)
	if err != nil {
		log.Error().Err(err).Msg("failed to re-marshal job for retry")
		return
	}
	if err := rdb.LPush(ctx, queue, encoded).Err(); err != nil {
		log.Error().Err(err).Msg("failed to re-queue reconciliation job")
	}
}
