package httpadapter

import (
	"context"
	"log/slog"

	"balloteer/contexts/community-governance/member-registry/application"
	"balloteer/contexts/community-governance/member-registry/domain/entities"
	httptransport "balloteer/contexts/community-governance/member-registry/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) RegisterCommunityHandler(
	ctx context.Context,
	contactID string,
	req httptransport.RegisterCommunityRequest,
) (httptransport.CommunityResponse, error) {
	community, err := h.Service.RegisterCommunity(ctx, application.RegisterCommunityInput{
		CommunityID: req.CommunityID,
		Title:       req.Title,
		ContactID:   contactID,
	})
	if err != nil {
		return httptransport.CommunityResponse{}, err
	}
	return mapCommunity(community), nil
}

func (h Handler) RegisterVoterHandler(
	ctx context.Context,
	communityID string,
	req httptransport.RegisterVoterRequest,
) (httptransport.VoterResponse, error) {
	voter, err := h.Service.RegisterVoter(ctx, application.RegisterVoterInput{
		CommunityID: communityID,
		VoterID:     req.VoterID,
		Username:    req.Username,
		FirstName:   req.FirstName,
	})
	if err != nil {
		return httptransport.VoterResponse{}, err
	}
	return mapVoter(voter), nil
}

func (h Handler) RequestAccessHandler(ctx context.Context, communityID string, voterID string) error {
	return h.Service.RequestAccess(ctx, communityID, voterID)
}

func (h Handler) ReviewVoterHandler(
	ctx context.Context,
	communityID string,
	voterID string,
	reviewerID string,
	req httptransport.ReviewVoterRequest,
) (httptransport.VoterResponse, error) {
	voter, err := h.Service.ReviewVoter(ctx, application.ReviewVoterInput{
		CommunityID: communityID,
		VoterID:     voterID,
		ReviewerID:  reviewerID,
		Approve:     req.Approve,
		Weight:      req.Weight,
	})
	if err != nil {
		return httptransport.VoterResponse{}, err
	}
	return mapVoter(voter), nil
}

func (h Handler) SetWeightHandler(
	ctx context.Context,
	communityID string,
	voterID string,
	adminID string,
	req httptransport.SetWeightRequest,
) (httptransport.VoterResponse, error) {
	voter, err := h.Service.SetWeight(ctx, application.SetWeightInput{
		CommunityID: communityID,
		VoterID:     voterID,
		AdminID:     adminID,
		Weight:      req.Weight,
		Reason:      req.Reason,
	})
	if err != nil {
		return httptransport.VoterResponse{}, err
	}
	return mapVoter(voter), nil
}

func (h Handler) ListVotersHandler(ctx context.Context, communityID string) (httptransport.VoterListResponse, error) {
	voters, err := h.Service.ListVoters(ctx, communityID)
	if err != nil {
		return httptransport.VoterListResponse{}, err
	}
	items := make([]httptransport.VoterResponse, 0, len(voters))
	for _, voter := range voters {
		items = append(items, mapVoter(voter))
	}
	return httptransport.VoterListResponse{Items: items}, nil
}

func mapCommunity(community entities.Community) httptransport.CommunityResponse {
	return httptransport.CommunityResponse{
		CommunityID: community.CommunityID,
		Title:       community.Title,
		AdminID:     community.AdminID,
	}
}

func mapVoter(voter entities.Voter) httptransport.VoterResponse {
	resp := httptransport.VoterResponse{
		CommunityID:      voter.CommunityID,
		VoterID:          voter.VoterID,
		DisplayName:      voter.DisplayName,
		Approved:         voter.Approved,
		Processed:        voter.Processed,
		LastChangeReason: voter.LastChangeReason,
	}
	if voter.Weight != nil {
		weight := *voter.Weight
		resp.Weight = &weight
	}
	return resp
}
