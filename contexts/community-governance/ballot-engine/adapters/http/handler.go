package httpadapter

import (
	"context"
	"log/slog"

	"balloteer/contexts/community-governance/ballot-engine/application/commands"
	"balloteer/contexts/community-governance/ballot-engine/application/queries"
	"balloteer/contexts/community-governance/ballot-engine/domain/entities"
	"balloteer/contexts/community-governance/ballot-engine/domain/services"
	httptransport "balloteer/contexts/community-governance/ballot-engine/transport/http"
)

type Handler struct {
	Commands commands.ProposalUseCase
	Queries  queries.BallotQueries
	Logger   *slog.Logger
}

func (h Handler) CreateProposalHandler(
	ctx context.Context,
	communityID string,
	actorID string,
	req httptransport.CreateProposalRequest,
) (httptransport.CreateProposalResponse, error) {
	result, err := h.Commands.CreateProposal(ctx, commands.CreateProposalCommand{
		CommunityID:  communityID,
		CreatedBy:    actorID,
		Title:        req.Title,
		Description:  req.Description,
		Options:      req.Options,
		QuorumWeight: req.QuorumWeight,
		EndsAt:       req.EndsAt,
		Attachment:   req.Attachment,
	})
	if err != nil {
		return httptransport.CreateProposalResponse{}, err
	}
	return httptransport.CreateProposalResponse{
		Proposal:         mapProposal(result.Proposal),
		EligibleVoters:   result.EligibleVoters,
		BallotsDelivered: result.BallotsDelivered,
	}, nil
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	proposalID string,
	voterID string,
	req httptransport.CastVoteRequest,
) (httptransport.CastVoteResponse, error) {
	result, err := h.Commands.CastVote(ctx, commands.CastVoteCommand{
		ProposalID:  proposalID,
		VoterID:     voterID,
		OptionIndex: req.OptionIndex,
	})
	if err != nil {
		return httptransport.CastVoteResponse{}, err
	}
	return httptransport.CastVoteResponse{
		ProposalID:  result.Vote.ProposalID,
		VoterID:     result.Vote.VoterID,
		OptionIndex: result.Vote.OptionIndex,
		Weight:      result.Vote.Weight,
		Changed:     result.Changed,
		VotedAt:     result.Vote.VotedAt,
	}, nil
}

func (h Handler) CloseProposalHandler(
	ctx context.Context,
	proposalID string,
	actorID string,
) (httptransport.CloseProposalResponse, error) {
	result, err := h.Commands.CloseProposal(ctx, commands.CloseProposalCommand{
		ProposalID: proposalID,
		ClosedBy:   actorID,
	})
	if err != nil {
		return httptransport.CloseProposalResponse{}, err
	}
	return httptransport.CloseProposalResponse{
		Outcome:    mapOutcome(result.Proposal, result.Outcome, result.QuorumMet, true),
		ClosedBy:   actorID,
		AutoClosed: result.AutoClosed,
		ClosedAt:   result.Proposal.ClosedAt,
	}, nil
}

func (h Handler) GetOutcomeHandler(ctx context.Context, proposalID string) (httptransport.OutcomeResponse, error) {
	view, err := h.Queries.GetOutcome(ctx, proposalID)
	if err != nil {
		return httptransport.OutcomeResponse{}, err
	}
	return mapOutcome(view.Proposal, view.Outcome, view.QuorumMet, view.Final), nil
}

func (h Handler) ListOpenForVoterHandler(ctx context.Context, voterID string) (httptransport.OpenProposalListResponse, error) {
	views, err := h.Queries.ListOpenProposalsForVoter(ctx, voterID)
	if err != nil {
		return httptransport.OpenProposalListResponse{}, err
	}
	items := make([]httptransport.OpenProposalItem, 0, len(views))
	for _, view := range views {
		item := httptransport.OpenProposalItem{Proposal: mapProposal(view.Proposal)}
		if view.CurrentChoice != nil {
			choice := *view.CurrentChoice
			item.CurrentChoice = &choice
		}
		items = append(items, item)
	}
	return httptransport.OpenProposalListResponse{Items: items}, nil
}

func (h Handler) ListOpenForCommunityHandler(ctx context.Context, communityID string) (httptransport.OpenProposalListResponse, error) {
	proposals, err := h.Queries.ListOpenProposals(ctx, communityID)
	if err != nil {
		return httptransport.OpenProposalListResponse{}, err
	}
	items := make([]httptransport.OpenProposalItem, 0, len(proposals))
	for _, proposal := range proposals {
		items = append(items, httptransport.OpenProposalItem{Proposal: mapProposal(proposal)})
	}
	return httptransport.OpenProposalListResponse{Items: items}, nil
}

func mapProposal(proposal entities.Proposal) httptransport.ProposalResponse {
	resp := httptransport.ProposalResponse{
		ProposalID:  proposal.ProposalID,
		CommunityID: proposal.CommunityID,
		Title:       proposal.Title,
		Description: proposal.Description,
		Options:     append([]string(nil), proposal.Options...),
		Status:      string(proposal.Status),
		CreatedBy:   proposal.CreatedBy,
		Attachment:  proposal.Attachment,
		CreatedAt:   proposal.CreatedAt,
		ClosedAt:    proposal.ClosedAt,
	}
	if proposal.QuorumWeight != nil {
		quorum := *proposal.QuorumWeight
		resp.QuorumWeight = &quorum
	}
	if proposal.EndsAt != nil {
		endsAt := *proposal.EndsAt
		resp.EndsAt = &endsAt
	}
	return resp
}

func mapOutcome(
	proposal entities.Proposal,
	outcome services.Outcome,
	quorumMet bool,
	final bool,
) httptransport.OutcomeResponse {
	breakdown := make([]httptransport.BreakdownLineResponse, 0, len(outcome.Breakdown))
	for _, line := range outcome.Breakdown {
		breakdown = append(breakdown, httptransport.BreakdownLineResponse{
			OptionIndex: line.OptionIndex,
			Label:       line.Label,
			Weight:      line.Weight,
			Percent:     line.Percent,
		})
	}
	resp := httptransport.OutcomeResponse{
		ProposalID:   proposal.ProposalID,
		CommunityID:  proposal.CommunityID,
		Title:        proposal.Title,
		Status:       string(proposal.Status),
		Final:        final,
		OutcomeKind:  string(outcome.Kind),
		WinnerLabel:  outcome.WinnerLabel,
		WinnerWeight: outcome.WinnerWeight,
		TotalWeight:  outcome.TotalWeight,
		QuorumMet:    quorumMet,
		Breakdown:    breakdown,
	}
	if outcome.Kind == services.OutcomeWinner {
		winner := outcome.WinnerIndex
		resp.WinnerIndex = &winner
	}
	if len(outcome.TiedIndexes) > 0 {
		resp.TiedIndexes = append([]int(nil), outcome.TiedIndexes...)
	}
	if proposal.QuorumWeight != nil {
		quorum := *proposal.QuorumWeight
		resp.QuorumWeight = &quorum
	}
	return resp
}
