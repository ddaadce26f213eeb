package queries

import (
	"context"
	"log/slog"
	"time"

	application "balloteer/contexts/community-governance/ballot-engine/application"
	"balloteer/contexts/community-governance/ballot-engine/domain/entities"
	"balloteer/contexts/community-governance/ballot-engine/domain/services"
	"balloteer/contexts/community-governance/ballot-engine/ports"
)

// ProposalSweeper closes expired open proposals before a read is served, so
// queries never return a live tally for a proposal past its deadline.
type ProposalSweeper interface {
	SweepCommunity(ctx context.Context, communityID string) error
}

// BallotQueries serves the read side: outcome snapshots and per-voter open
// proposal listings.
type BallotQueries struct {
	Proposals ports.ProposalRepository
	Directory ports.CommunityDirectory
	Sweeper   ProposalSweeper
	Clock     ports.Clock
	Logger    *slog.Logger
}

// OutcomeView is the tally of one proposal. Final reports whether the
// proposal is closed and the figures are sealed.
type OutcomeView struct {
	Proposal  entities.Proposal
	Outcome   services.Outcome
	QuorumMet bool
	Final     bool
}

// GetOutcome returns the current tally of a proposal. An open proposal found
// past its deadline is swept closed first, so the returned view is already
// the sealed result.
func (q BallotQueries) GetOutcome(ctx context.Context, proposalID string) (OutcomeView, error) {
	logger := application.ResolveLogger(q.Logger)
	proposal, err := q.Proposals.GetProposal(ctx, proposalID)
	if err != nil {
		return OutcomeView{}, err
	}
	if proposal.IsOpen() && proposal.Expired(q.now()) && q.Sweeper != nil {
		if err := q.Sweeper.SweepCommunity(ctx, proposal.CommunityID); err != nil {
			logger.Warn("outcome read sweep failed",
				"event", "ballot_outcome_sweep_failed",
				"module", "community-governance/ballot-engine",
				"layer", "application",
				"proposal_id", proposalID,
				"error", err.Error(),
			)
		} else if proposal, err = q.Proposals.GetProposal(ctx, proposalID); err != nil {
			return OutcomeView{}, err
		}
	}

	outcome := services.ComputeOutcome(proposal)
	return OutcomeView{
		Proposal:  proposal,
		Outcome:   outcome,
		QuorumMet: services.EvaluateQuorum(proposal, outcome.TotalWeight),
		Final:     !proposal.IsOpen(),
	}, nil
}

func (q BallotQueries) now() time.Time {
	now := time.Now().UTC()
	if q.Clock != nil {
		now = q.Clock.Now().UTC()
	}
	return now
}
