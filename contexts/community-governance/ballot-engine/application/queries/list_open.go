package queries

import (
	"context"
	"sort"
	"strings"

	application "balloteer/contexts/community-governance/ballot-engine/application"
	"balloteer/contexts/community-governance/ballot-engine/domain/entities"
	domainerrors "balloteer/contexts/community-governance/ballot-engine/domain/errors"
)

// OpenProposalView pairs an open proposal with the voter's current choice,
// when one was cast.
type OpenProposalView struct {
	Proposal      entities.Proposal
	CurrentChoice *int
}

// ListOpenProposalsForVoter returns every open proposal the voter can vote on
// across all communities where they are approved with positive weight.
// Expired proposals are swept closed first and never appear in the listing.
func (q BallotQueries) ListOpenProposalsForVoter(ctx context.Context, voterID string) ([]OpenProposalView, error) {
	logger := application.ResolveLogger(q.Logger)
	voterID = strings.TrimSpace(voterID)
	if voterID == "" {
		return nil, domainerrors.ErrInvalidProposal
	}

	communities, err := q.Directory.ListCommunitiesForVoter(ctx, voterID)
	if err != nil {
		return nil, err
	}

	views := make([]OpenProposalView, 0)
	for _, communityID := range communities {
		voter, found, err := q.Directory.GetVoter(ctx, communityID, voterID)
		if err != nil {
			return nil, err
		}
		if !found || !voter.Eligible() {
			continue
		}
		if q.Sweeper != nil {
			if err := q.Sweeper.SweepCommunity(ctx, communityID); err != nil {
				logger.Warn("open proposal listing sweep failed",
					"event", "ballot_list_sweep_failed",
					"module", "community-governance/ballot-engine",
					"layer", "application",
					"community_id", communityID,
					"voter_id", voterID,
					"error", err.Error(),
				)
			}
		}
		proposals, err := q.Proposals.ListOpenProposals(ctx, communityID)
		if err != nil {
			return nil, err
		}
		for _, proposal := range proposals {
			view := OpenProposalView{Proposal: proposal}
			if choice, ok := proposal.VoterChoices[voterID]; ok {
				current := choice
				view.CurrentChoice = &current
			}
			views = append(views, view)
		}
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].Proposal.CreatedAt.Equal(views[j].Proposal.CreatedAt) {
			return views[i].Proposal.ProposalID < views[j].Proposal.ProposalID
		}
		return views[i].Proposal.CreatedAt.Before(views[j].Proposal.CreatedAt)
	})
	return views, nil
}

// ListOpenProposals returns a community's open proposals after an expiry
// sweep.
func (q BallotQueries) ListOpenProposals(ctx context.Context, communityID string) ([]entities.Proposal, error) {
	communityID = strings.TrimSpace(communityID)
	if communityID == "" {
		return nil, domainerrors.ErrInvalidProposal
	}
	if q.Sweeper != nil {
		if err := q.Sweeper.SweepCommunity(ctx, communityID); err != nil {
			return nil, err
		}
	}
	return q.Proposals.ListOpenProposals(ctx, communityID)
}
