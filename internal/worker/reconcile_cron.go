package worker

// reconcile_cron.go
// Background goroutine that periodically runs a reconciliation pass, so
// divergence between the two "open register" read paths is repaired even
// when no payment flow happens to trip over it.

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StartReconcileCron launches a goroutine that runs repairer.Repair on
// every tick. It respects the context for graceful shutdown.
func StartReconcileCron(ctx context.Context, repairer Repairer, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("reconcile_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("reconcile_cron: shutting down")
				return
			case <-ticker.C:
				if !repairer.Repair(ctx) {
					log.Warn().Msg("reconcile_cron: repair pass failed, will retry next tick")
				}
			}
		}
	}()
}
