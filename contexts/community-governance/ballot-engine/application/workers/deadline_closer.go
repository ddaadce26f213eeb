package workers

import (
	"context"
	"log/slog"
	"time"

	application "balloteer/contexts/community-governance/ballot-engine/application"
	"balloteer/contexts/community-governance/ballot-engine/application/commands"
	"balloteer/contexts/community-governance/ballot-engine/ports"
)

// ExpiredProposalCloser seals expired proposals; the command side implements
// it with the same locked transition used for explicit closes.
type ExpiredProposalCloser interface {
	CloseExpired(ctx context.Context, proposalID string) (commands.CloseProposalResult, bool, error)
}

// DeadlineCloser is the background sweep that closes proposals whose deadline
// has passed. It complements lazy closing on read/write paths so results are
// published even for proposals nobody touches.
type DeadlineCloser struct {
	Proposals ports.ProposalRepository
	Closer    ExpiredProposalCloser
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce closes a bounded batch of expired open proposals. Individual close
// races (another path closing first) are skipped, not failed, so concurrent
// sweeps stay safe.
func (w DeadlineCloser) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(w.Logger)
	limit := w.BatchSize
	if limit <= 0 {
		limit = 50
	}
	now := time.Now().UTC()
	if w.Clock != nil {
		now = w.Clock.Now().UTC()
	}
	logger.Info("deadline sweep cycle started",
		"event", "ballot_deadline_sweep_started",
		"module", "community-governance/ballot-engine",
		"layer", "worker",
		"batch_size", limit,
	)

	expired, err := w.Proposals.ListExpiredOpen(ctx, now, limit)
	if err != nil {
		logger.Error("deadline sweep listing failed",
			"event", "ballot_deadline_sweep_list_failed",
			"module", "community-governance/ballot-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(expired) == 0 {
		logger.Debug("deadline sweep found no expired proposals",
			"event", "ballot_deadline_sweep_noop",
			"module", "community-governance/ballot-engine",
			"layer", "worker",
		)
		return nil
	}

	closed := 0
	for _, proposal := range expired {
		result, didClose, err := w.Closer.CloseExpired(ctx, proposal.ProposalID)
		if err != nil {
			logger.Error("deadline sweep close failed",
				"event", "ballot_deadline_sweep_close_failed",
				"module", "community-governance/ballot-engine",
				"layer", "worker",
				"proposal_id", proposal.ProposalID,
				"error", err.Error(),
			)
			return err
		}
		if !didClose {
			continue
		}
		closed++
		logger.Info("deadline sweep closed proposal",
			"event", "ballot_deadline_sweep_closed",
			"module", "community-governance/ballot-engine",
			"layer", "worker",
			"proposal_id", proposal.ProposalID,
			"community_id", proposal.CommunityID,
			"outcome", string(result.Outcome.Kind),
		)
	}

	logger.Info("deadline sweep cycle completed",
		"event", "ballot_deadline_sweep_completed",
		"module", "community-governance/ballot-engine",
		"layer", "worker",
		"expired_count", len(expired),
		"closed_count", closed,
	)
	return nil
}
