package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/marketminds/engine/internal/logging"
	"github.com/marketminds/engine/internal/models"
)

// SyncAll runs aggregation for every owner that has at least one
// source. Owners are processed sequentially; one owner's failure is
// recorded and the sweep moves on.
func (a *Aggregator) SyncAll(ctx context.Context) (*models.SyncSummary, error) {
	started := time.Now()

	owners, err := a.store.ListOwnersWithSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list owners: %w", err)
	}

	a.logger.Info("Starting scheduled sync", logging.WithField("owners", len(owners)))

	summary := &models.SyncSummary{
		TotalUsers:  len(owners),
		UserResults: make([]models.UserSyncResult, 0, len(owners)),
	}

	for _, ownerID := range owners {
		if err := ctx.Err(); err != nil {
			summary.FailedUsers++
			summary.UserResults = append(summary.UserResults, models.UserSyncResult{
				OwnerID: ownerID,
				Error:   "sync aborted: " + err.Error(),
			})
			continue
		}

		result := a.syncOwner(ctx, ownerID)
		summary.UserResults = append(summary.UserResults, result)

		if result.Success {
			summary.SuccessfulUsers++
			summary.TotalItemsProcessed += result.ProcessedCount
		} else {
			summary.FailedUsers++
		}
	}

	summary.DurationSeconds = time.Since(started).Seconds()

	a.logger.Info("Scheduled sync complete", logging.WithFields(map[string]interface{}{
		"total":     summary.TotalUsers,
		"succeeded": summary.SuccessfulUsers,
		"failed":    summary.FailedUsers,
		"processed": summary.TotalItemsProcessed,
	}))

	return summary, nil
}

// syncOwner isolates one owner's run so a panic or error cannot stop
// the sweep.
func (a *Aggregator) syncOwner(ctx context.Context, ownerID string) (result models.UserSyncResult) {
	result = models.UserSyncResult{OwnerID: ownerID}

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("Owner sync panicked", logging.WithFields(map[string]interface{}{
				"owner": ownerID,
				"panic": fmt.Sprintf("%v", r),
			}))
			result.Success = false
			result.Error = fmt.Sprintf("internal error: %v", r)
		}
	}()

	report, err := a.Run(ctx, ownerID)
	if err != nil {
		a.logger.Warn("Owner sync failed", logging.WithFields(map[string]interface{}{
			"owner": ownerID,
			"error": err.Error(),
		}))
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.ProcessedCount = report.ProcessedCount
	return result
}

// RunPeriodic triggers SyncAll on a fixed interval until the context
// is cancelled. Used by the server's background sync loop.
func (a *Aggregator) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.SyncAll(ctx); err != nil {
				a.logger.Error("Periodic sync failed", logging.WithField("error", err.Error()))
			}
		}
	}
}
