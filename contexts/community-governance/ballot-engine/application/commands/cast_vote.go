package commands

import (
	"context"
	"strings"

	application "balloteer/contexts/community-governance/ballot-engine/application"
	"balloteer/contexts/community-governance/ballot-engine/domain/entities"
	domainerrors "balloteer/contexts/community-governance/ballot-engine/domain/errors"
)

// CastVoteCommand is the write-model input for casting or changing a vote.
type CastVoteCommand struct {
	ProposalID  string
	VoterID     string
	OptionIndex int
}

// CastVoteResult reports the stored vote and whether an earlier choice was
// replaced.
type CastVoteResult struct {
	Vote     entities.Vote
	Changed  bool
	Proposal entities.Proposal
}

// CastVote records the voter's full current weight on one option. A repeat
// vote moves the weight: the previous contribution is removed before the new
// one is added, so each voter counts exactly once. A proposal found past its
// deadline is closed here before the vote is rejected.
func (uc ProposalUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	proposalID := strings.TrimSpace(cmd.ProposalID)
	voterID := strings.TrimSpace(cmd.VoterID)
	logger.Info("vote cast processing started",
		"event", "ballot_vote_cast_started",
		"module", moduleName,
		"layer", "application",
		"proposal_id", proposalID,
		"voter_id", voterID,
		"option_index", cmd.OptionIndex,
	)
	if proposalID == "" || voterID == "" {
		return CastVoteResult{}, domainerrors.ErrInvalidProposal
	}

	unlock := uc.lockProposal(proposalID)
	defer unlock()

	proposal, err := uc.Proposals.GetProposal(ctx, proposalID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if !proposal.IsOpen() {
		return CastVoteResult{}, domainerrors.ErrVotingClosed
	}

	now := uc.now()
	if proposal.Expired(now) {
		// Lazy deadline enforcement: the first touch after expiry seals the
		// tally exactly as the sweep worker would.
		if _, err := uc.closeLocked(ctx, proposal, "", true); err != nil {
			return CastVoteResult{}, err
		}
		logger.Info("vote arrived after deadline; proposal auto-closed",
			"event", "ballot_vote_after_deadline",
			"module", moduleName,
			"layer", "application",
			"proposal_id", proposalID,
			"voter_id", voterID,
		)
		return CastVoteResult{}, domainerrors.ErrVotingClosed
	}

	voter, found, err := uc.Directory.GetVoter(ctx, proposal.CommunityID, voterID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if !found || !voter.Eligible() {
		logger.Warn("vote rejected for ineligible voter",
			"event", "ballot_vote_not_eligible",
			"module", moduleName,
			"layer", "application",
			"proposal_id", proposalID,
			"voter_id", voterID,
		)
		return CastVoteResult{}, domainerrors.ErrNotEligible
	}
	if !proposal.ValidOption(cmd.OptionIndex) {
		return CastVoteResult{}, domainerrors.ErrInvalidOption
	}

	prior, hadPrior, err := uc.Proposals.GetVote(ctx, proposalID, voterID)
	if err != nil {
		return CastVoteResult{}, err
	}
	var priorVote *entities.Vote
	if hadPrior {
		priorVote = &prior
	}

	// The live weight at cast time is what counts; a later weight change only
	// takes effect if the voter votes again.
	proposal.ApplyVote(voterID, cmd.OptionIndex, voter.Weight, priorVote)
	proposal.UpdatedAt = now
	vote := entities.Vote{
		ProposalID:  proposalID,
		VoterID:     voterID,
		OptionIndex: cmd.OptionIndex,
		Weight:      voter.Weight,
		VotedAt:     now,
	}
	if err := uc.Proposals.RecordVote(ctx, proposal, vote); err != nil {
		return CastVoteResult{}, err
	}

	logger.Info("vote recorded",
		"event", "ballot_vote_recorded",
		"module", moduleName,
		"layer", "application",
		"proposal_id", proposalID,
		"voter_id", voterID,
		"option_index", cmd.OptionIndex,
		"weight", voter.Weight,
		"changed", hadPrior,
	)
	return CastVoteResult{Vote: vote, Changed: hadPrior, Proposal: proposal}, nil
}
