package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"balloteer/contexts/community-governance/ballot-engine/domain/entities"
	domainerrors "balloteer/contexts/community-governance/ballot-engine/domain/errors"
	"balloteer/contexts/community-governance/ballot-engine/domain/services"
	"balloteer/contexts/community-governance/ballot-engine/ports"
	"balloteer/internal/shared/locking"
)

const moduleName = "community-governance/ballot-engine"

// ProposalUseCase orchestrates the proposal lifecycle: creation with ballot
// fan-out, weighted vote casting with last-write-wins replacement, and the
// single close transition that seals the tally and queues the result event.
type ProposalUseCase struct {
	Proposals           ports.ProposalRepository
	Directory           ports.CommunityDirectory
	Gateway             ports.NotificationGateway
	Outbox              ports.OutboxWriter
	Locks               *locking.KeyedMutex
	Clock               ports.Clock
	IDGen               ports.IDGenerator
	DeliveryParallelism int
	Logger              *slog.Logger
}

func (uc ProposalUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

// lockProposal serializes all mutations of a single proposal. A nil mutex
// set degrades to unsynchronized access for pure read/test wiring.
func (uc ProposalUseCase) lockProposal(proposalID string) func() {
	if uc.Locks == nil {
		return func() {}
	}
	return uc.Locks.Lock(proposalID)
}

// newProposalID builds the community-scoped identifier, e.g. c100_p1724900000000.
func newProposalID(communityID string, now time.Time) string {
	return fmt.Sprintf("c%s_p%d", communityID, now.UnixMilli())
}

func isNotFound(err error) bool {
	return errors.Is(err, domainerrors.ErrProposalNotFound)
}

// closeLocked seals an open proposal. Callers must hold the proposal lock and
// have verified the status transition; the tally is computed once here and
// becomes the immutable published result.
func (uc ProposalUseCase) closeLocked(
	ctx context.Context,
	proposal entities.Proposal,
	closedBy string,
	autoClosed bool,
) (CloseProposalResult, error) {
	now := uc.now()
	outcome := services.ComputeOutcome(proposal)
	quorumMet := services.EvaluateQuorum(proposal, outcome.TotalWeight)

	proposal.Status = entities.ProposalStatusClosed
	proposal.ClosedAt = &now
	proposal.UpdatedAt = now
	if err := uc.Proposals.MarkClosed(ctx, proposal); err != nil {
		return CloseProposalResult{}, err
	}

	event := newProposalClosedEvent(proposal, outcome, quorumMet, closedBy, autoClosed, now)
	if err := uc.appendClosedEvent(ctx, event); err != nil {
		return CloseProposalResult{}, err
	}
	return CloseProposalResult{
		Proposal:   proposal,
		Outcome:    outcome,
		QuorumMet:  quorumMet,
		AutoClosed: autoClosed,
		Event:      event,
	}, nil
}

func (uc ProposalUseCase) appendClosedEvent(ctx context.Context, event ports.ProposalClosedEvent) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newBallotEnvelope(eventID, eventTypeProposalClosed, event.CommunityID, event.ClosedAt, event)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}
