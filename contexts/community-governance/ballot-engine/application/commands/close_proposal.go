package commands

import (
	"context"
	"strings"

	application "balloteer/contexts/community-governance/ballot-engine/application"
	"balloteer/contexts/community-governance/ballot-engine/domain/entities"
	domainerrors "balloteer/contexts/community-governance/ballot-engine/domain/errors"
	"balloteer/contexts/community-governance/ballot-engine/domain/services"
	"balloteer/contexts/community-governance/ballot-engine/ports"
)

// CloseProposalCommand requests an explicit admin close.
type CloseProposalCommand struct {
	ProposalID string
	ClosedBy   string
}

// CloseProposalResult is the sealed tally of a closed proposal.
type CloseProposalResult struct {
	Proposal   entities.Proposal
	Outcome    services.Outcome
	QuorumMet  bool
	AutoClosed bool
	Event      ports.ProposalClosedEvent
}

// CloseProposal closes an open proposal on the community admin's request.
// Closing is a one-way transition; a second close fails with ErrAlreadyClosed
// and never re-publishes the result.
func (uc ProposalUseCase) CloseProposal(ctx context.Context, cmd CloseProposalCommand) (CloseProposalResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	proposalID := strings.TrimSpace(cmd.ProposalID)
	closedBy := strings.TrimSpace(cmd.ClosedBy)
	logger.Info("proposal close processing started",
		"event", "ballot_proposal_close_started",
		"module", moduleName,
		"layer", "application",
		"proposal_id", proposalID,
		"closed_by", closedBy,
	)
	if proposalID == "" || closedBy == "" {
		return CloseProposalResult{}, domainerrors.ErrInvalidProposal
	}

	unlock := uc.lockProposal(proposalID)
	defer unlock()

	proposal, err := uc.Proposals.GetProposal(ctx, proposalID)
	if err != nil {
		return CloseProposalResult{}, err
	}
	if !proposal.IsOpen() {
		return CloseProposalResult{}, domainerrors.ErrAlreadyClosed
	}

	adminID, err := uc.Directory.GetAdminID(ctx, proposal.CommunityID)
	if err != nil {
		return CloseProposalResult{}, err
	}
	if adminID == "" || adminID != closedBy {
		logger.Warn("proposal close rejected for non-admin",
			"event", "ballot_proposal_close_not_authorized",
			"module", moduleName,
			"layer", "application",
			"proposal_id", proposalID,
			"closed_by", closedBy,
		)
		return CloseProposalResult{}, domainerrors.ErrNotAuthorized
	}

	result, err := uc.closeLocked(ctx, proposal, closedBy, false)
	if err != nil {
		return CloseProposalResult{}, err
	}
	logger.Info("proposal closed",
		"event", "ballot_proposal_closed",
		"module", moduleName,
		"layer", "application",
		"proposal_id", proposalID,
		"community_id", proposal.CommunityID,
		"outcome", string(result.Outcome.Kind),
		"total_weight", result.Outcome.TotalWeight,
		"quorum_met", result.QuorumMet,
	)
	return result, nil
}

// CloseExpired closes a proposal whose deadline has passed. It is invoked by
// the deadline sweep worker and by lazy sweeps on read paths; a proposal that
// is already closed, no longer expired, or missing is skipped without error.
func (uc ProposalUseCase) CloseExpired(ctx context.Context, proposalID string) (CloseProposalResult, bool, error) {
	logger := application.ResolveLogger(uc.Logger)
	proposalID = strings.TrimSpace(proposalID)
	if proposalID == "" {
		return CloseProposalResult{}, false, domainerrors.ErrInvalidProposal
	}

	unlock := uc.lockProposal(proposalID)
	defer unlock()

	proposal, err := uc.Proposals.GetProposal(ctx, proposalID)
	if err != nil {
		if isNotFound(err) {
			return CloseProposalResult{}, false, nil
		}
		return CloseProposalResult{}, false, err
	}
	if !proposal.IsOpen() || !proposal.Expired(uc.now()) {
		return CloseProposalResult{}, false, nil
	}

	result, err := uc.closeLocked(ctx, proposal, "", true)
	if err != nil {
		return CloseProposalResult{}, false, err
	}
	logger.Info("expired proposal auto-closed",
		"event", "ballot_proposal_auto_closed",
		"module", moduleName,
		"layer", "application",
		"proposal_id", proposalID,
		"community_id", proposal.CommunityID,
		"outcome", string(result.Outcome.Kind),
		"total_weight", result.Outcome.TotalWeight,
	)
	return result, true, nil
}

// SweepCommunity auto-closes every expired open proposal of one community.
// Read paths use it so listings never show a proposal past its deadline.
func (uc ProposalUseCase) SweepCommunity(ctx context.Context, communityID string) error {
	proposals, err := uc.Proposals.ListOpenProposals(ctx, communityID)
	if err != nil {
		return err
	}
	now := uc.now()
	for _, proposal := range proposals {
		if !proposal.Expired(now) {
			continue
		}
		if _, _, err := uc.CloseExpired(ctx, proposal.ProposalID); err != nil {
			return err
		}
	}
	return nil
}
