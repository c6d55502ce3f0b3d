package voting

import (
	"context"
	"log/slog"
	"time"
)

const defaultSweepBatchSize = 500

// Reconciler is the out-of-band sweep that resolves partial commits: status
// rows whose gate committed but whose ledger writes did not all land.
//
// Each sweep pages through every committed status row (keyset pagination on
// updated_at, so rows are never too old to be visited) and consults
// user_vote_log:
//   - the log row exists: the vote is durably attributable, so any missing
//     derived votes or votes_by_candidate rows are re-written;
//   - the log row is absent and the gate win is older than the grace
//     period: the vote was never recorded, so the status row is deleted and
//     the user regains the right to vote.
type Reconciler struct {
	statusRepo StatusRepository
	ledger     LedgerRepository
	interval   time.Duration
	grace      time.Duration
	batchSize  int
}

func NewReconciler(statusRepo StatusRepository, ledger LedgerRepository, interval, grace time.Duration, batchSize int) *Reconciler {
	if batchSize <= 0 {
		batchSize = defaultSweepBatchSize
	}
	return &Reconciler{
		statusRepo: statusRepo,
		ledger:     ledger,
		interval:   interval,
		grace:      grace,
		batchSize:  batchSize,
	}
}

// Run loops until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	slog.Info("vote reconciler started",
		"interval", r.interval, "grace", r.grace, "batchSize", r.batchSize)

	for {
		select {
		case <-ctx.Done():
			slog.Info("vote reconciler stopped")
			return
		case now := <-ticker.C:
			repaired, compensated, err := r.Sweep(ctx, now.UTC())
			if err != nil {
				slog.Error("reconciliation sweep failed", "error", err)
				continue
			}
			if repaired > 0 || compensated > 0 {
				slog.Info("reconciliation sweep finished",
					"repaired", repaired, "compensated", compensated)
			}
		}
	}
}

// Sweep performs one reconciliation pass and reports how many rows had
// ledger writes re-derived and how many gate wins were compensated.
func (r *Reconciler) Sweep(ctx context.Context, now time.Time) (repaired, compensated int, err error) {
	var cursor time.Time
	for {
		rows, err := r.statusRepo.ListVoted(ctx, cursor, r.batchSize)
		if err != nil {
			return repaired, compensated, err
		}
		if len(rows) == 0 {
			return repaired, compensated, nil
		}

		for _, row := range rows {
			entry, found, err := r.ledger.FindUserVoteLog(ctx, row.UserID, row.ElectionID)
			if err != nil {
				slog.Warn("reconciler could not read user vote log",
					"userId", row.UserID, "electionId", row.ElectionID, "error", err)
				continue
			}

			if found {
				wrote, err := r.ledger.RepairFromLog(ctx, entry)
				if err != nil {
					slog.Warn("reconciler repair failed",
						"voteId", entry.VoteID, "error", err)
					continue
				}
				if wrote {
					slog.Info("derived ledger rows re-written",
						"voteId", entry.VoteID, "electionId", entry.ElectionID)
					repaired++
				}
				continue
			}

			// No durable vote for this gate win. Leave recent rows alone: the
			// ledger write may still be in flight.
			if now.Sub(row.UpdatedAt) < r.grace {
				continue
			}

			if err := r.statusRepo.Delete(ctx, row.UserID, row.ElectionID); err != nil {
				slog.Warn("reconciler compensation failed",
					"userId", row.UserID, "electionId", row.ElectionID, "error", err)
				continue
			}
			slog.Info("orphaned gate win compensated",
				"userId", row.UserID, "electionId", row.ElectionID)
			compensated++
		}

		if len(rows) < r.batchSize {
			return repaired, compensated, nil
		}
		cursor = rows[len(rows)-1].UpdatedAt
	}
}
