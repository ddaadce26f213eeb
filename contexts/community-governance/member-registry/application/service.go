package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"balloteer/contexts/community-governance/member-registry/domain/entities"
	domainerrors "balloteer/contexts/community-governance/member-registry/domain/errors"
	"balloteer/contexts/community-governance/member-registry/ports"
)

// Service orchestrates community registration, voter onboarding, the
// approve/reject review flow, and weight changes.
type Service struct {
	Communities ports.CommunityRepository
	Voters      ports.VoterRepository
	Notifier    ports.Notifier
	Clock       ports.Clock
	Logger      *slog.Logger
}

type RegisterCommunityInput struct {
	CommunityID string
	Title       string
	ContactID   string
}

type RegisterVoterInput struct {
	CommunityID string
	VoterID     string
	Username    string
	FirstName   string
}

type ReviewVoterInput struct {
	CommunityID string
	VoterID     string
	ReviewerID  string
	Approve     bool
	Weight      int64
}

type SetWeightInput struct {
	CommunityID string
	VoterID     string
	AdminID     string
	Weight      int64
	Reason      string
}

// RegisterCommunity upserts the community record. The contact becomes admin
// only when no admin has been assigned yet; an existing admin is never
// overwritten here.
func (s Service) RegisterCommunity(ctx context.Context, input RegisterCommunityInput) (entities.Community, error) {
	logger := ResolveLogger(s.Logger)
	communityID := strings.TrimSpace(input.CommunityID)
	contactID := strings.TrimSpace(input.ContactID)
	if communityID == "" {
		return entities.Community{}, domainerrors.ErrInvalidRequest
	}

	now := s.now()
	community, err := s.Communities.GetCommunity(ctx, communityID)
	switch {
	case err == nil:
		if title := strings.TrimSpace(input.Title); title != "" {
			community.Title = title
		}
		if !community.HasAdmin() && contactID != "" {
			community.AdminID = contactID
		}
	case isNotFound(err):
		title := strings.TrimSpace(input.Title)
		if title == "" {
			title = "Community " + communityID
		}
		community = entities.Community{
			CommunityID: communityID,
			Title:       title,
			AdminID:     contactID,
			CreatedAt:   now,
		}
	default:
		return entities.Community{}, err
	}

	community.UpdatedAt = now
	saved, err := s.Communities.UpsertCommunity(ctx, community)
	if err != nil {
		return entities.Community{}, err
	}
	logger.Info("community registered",
		"event", "registry_community_registered",
		"module", "community-governance/member-registry",
		"layer", "application",
		"community_id", saved.CommunityID,
		"admin_id", saved.AdminID,
	)
	return saved, nil
}

// RegisterVoter upserts the member record on contact, refreshing the display
// name without touching approval state.
func (s Service) RegisterVoter(ctx context.Context, input RegisterVoterInput) (entities.Voter, error) {
	communityID := strings.TrimSpace(input.CommunityID)
	voterID := strings.TrimSpace(input.VoterID)
	if communityID == "" || voterID == "" {
		return entities.Voter{}, domainerrors.ErrInvalidRequest
	}
	if _, err := s.Communities.GetCommunity(ctx, communityID); err != nil {
		return entities.Voter{}, err
	}

	now := s.now()
	voter, err := s.Voters.GetVoter(ctx, communityID, voterID)
	switch {
	case err == nil:
		voter.DisplayName = entities.DeriveDisplayName(input.Username, input.FirstName, voter.DisplayName)
	case isNotFound(err):
		voter = entities.Voter{
			CommunityID: communityID,
			VoterID:     voterID,
			DisplayName: entities.DeriveDisplayName(input.Username, input.FirstName, ""),
			CreatedAt:   now,
		}
	default:
		return entities.Voter{}, err
	}

	voter.UpdatedAt = now
	return s.Voters.UpsertVoter(ctx, voter)
}

// RequestAccess forwards an unprocessed member's voting request to the
// community admin. Notification delivery is best effort.
func (s Service) RequestAccess(ctx context.Context, communityID string, voterID string) error {
	logger := ResolveLogger(s.Logger)
	community, err := s.Communities.GetCommunity(ctx, strings.TrimSpace(communityID))
	if err != nil {
		return err
	}
	if !community.HasAdmin() {
		return domainerrors.ErrNotAdmin
	}
	voter, err := s.Voters.GetVoter(ctx, community.CommunityID, strings.TrimSpace(voterID))
	if err != nil {
		return err
	}
	if voter.Processed {
		return domainerrors.ErrAlreadyProcessed
	}

	if s.Notifier != nil {
		if err := s.Notifier.NotifyAccessRequest(ctx, community.AdminID, community, voter); err != nil {
			logger.Warn("access request notification failed",
				"event", "registry_access_request_notify_failed",
				"module", "community-governance/member-registry",
				"layer", "application",
				"community_id", community.CommunityID,
				"voter_id", voter.VoterID,
				"error", err.Error(),
			)
		}
	}
	logger.Info("access requested",
		"event", "registry_access_requested",
		"module", "community-governance/member-registry",
		"layer", "application",
		"community_id", community.CommunityID,
		"voter_id", voter.VoterID,
	)
	return nil
}

// ReviewVoter applies the admin's approve/reject decision exactly once.
func (s Service) ReviewVoter(ctx context.Context, input ReviewVoterInput) (entities.Voter, error) {
	logger := ResolveLogger(s.Logger)
	community, err := s.Communities.GetCommunity(ctx, strings.TrimSpace(input.CommunityID))
	if err != nil {
		return entities.Voter{}, err
	}
	if !community.IsAdmin(strings.TrimSpace(input.ReviewerID)) {
		return entities.Voter{}, domainerrors.ErrNotAdmin
	}

	voter, err := s.Voters.GetVoter(ctx, community.CommunityID, strings.TrimSpace(input.VoterID))
	if err != nil {
		return entities.Voter{}, err
	}
	if voter.Processed {
		return entities.Voter{}, domainerrors.ErrAlreadyProcessed
	}

	now := s.now()
	voter.Processed = true
	voter.LastModifiedAt = now
	voter.UpdatedAt = now
	if input.Approve {
		if input.Weight <= 0 {
			return entities.Voter{}, domainerrors.ErrInvalidWeight
		}
		weight := input.Weight
		voter.Approved = true
		voter.Weight = &weight
	} else {
		voter.Approved = false
		voter.Weight = nil
	}

	saved, err := s.Voters.UpsertVoter(ctx, voter)
	if err != nil {
		return entities.Voter{}, err
	}

	if s.Notifier != nil {
		weight := int64(0)
		if saved.Weight != nil {
			weight = *saved.Weight
		}
		if err := s.Notifier.NotifyReview(ctx, saved.VoterID, community, saved.Approved, weight); err != nil {
			logger.Warn("review notification failed",
				"event", "registry_review_notify_failed",
				"module", "community-governance/member-registry",
				"layer", "application",
				"community_id", community.CommunityID,
				"voter_id", saved.VoterID,
				"error", err.Error(),
			)
		}
	}
	logger.Info("voter reviewed",
		"event", "registry_voter_reviewed",
		"module", "community-governance/member-registry",
		"layer", "application",
		"community_id", community.CommunityID,
		"voter_id", saved.VoterID,
		"approved", saved.Approved,
	)
	return saved, nil
}

// SetWeight updates an approved voter's weight with an audit reason. Open
// proposal tallies keep the weight captured at cast time until the voter
// casts again.
func (s Service) SetWeight(ctx context.Context, input SetWeightInput) (entities.Voter, error) {
	logger := ResolveLogger(s.Logger)
	if input.Weight <= 0 {
		return entities.Voter{}, domainerrors.ErrInvalidWeight
	}
	community, err := s.Communities.GetCommunity(ctx, strings.TrimSpace(input.CommunityID))
	if err != nil {
		return entities.Voter{}, err
	}
	if !community.IsAdmin(strings.TrimSpace(input.AdminID)) {
		return entities.Voter{}, domainerrors.ErrNotAdmin
	}

	voter, err := s.Voters.GetVoter(ctx, community.CommunityID, strings.TrimSpace(input.VoterID))
	if err != nil {
		return entities.Voter{}, err
	}
	if !voter.Approved {
		return entities.Voter{}, domainerrors.ErrVoterNotFound
	}

	now := s.now()
	weight := input.Weight
	reason := strings.TrimSpace(input.Reason)
	if reason == "" || strings.EqualFold(reason, "skip") {
		reason = "unspecified"
	}
	voter.Weight = &weight
	voter.LastChangeReason = reason
	voter.LastModifiedAt = now
	voter.UpdatedAt = now

	saved, err := s.Voters.UpsertVoter(ctx, voter)
	if err != nil {
		return entities.Voter{}, err
	}

	if s.Notifier != nil {
		if err := s.Notifier.NotifyWeightChange(ctx, saved.VoterID, community, weight, reason); err != nil {
			logger.Warn("weight change notification failed",
				"event", "registry_weight_notify_failed",
				"module", "community-governance/member-registry",
				"layer", "application",
				"community_id", community.CommunityID,
				"voter_id", saved.VoterID,
				"error", err.Error(),
			)
		}
	}
	logger.Info("voter weight updated",
		"event", "registry_voter_weight_updated",
		"module", "community-governance/member-registry",
		"layer", "application",
		"community_id", community.CommunityID,
		"voter_id", saved.VoterID,
		"weight", weight,
		"reason", reason,
	)
	return saved, nil
}

func (s Service) GetCommunity(ctx context.Context, communityID string) (entities.Community, error) {
	return s.Communities.GetCommunity(ctx, strings.TrimSpace(communityID))
}

func (s Service) ListVoters(ctx context.Context, communityID string) ([]entities.Voter, error) {
	return s.Voters.ListVoters(ctx, strings.TrimSpace(communityID))
}

func (s Service) ListApprovedVoters(ctx context.Context, communityID string) ([]entities.Voter, error) {
	return s.Voters.ListApprovedVoters(ctx, strings.TrimSpace(communityID))
}

func (s Service) now() time.Time {
	now := time.Now().UTC()
	if s.Clock != nil {
		now = s.Clock.Now().UTC()
	}
	return now
}

func isNotFound(err error) bool {
	return errors.Is(err, domainerrors.ErrCommunityNotFound) || errors.Is(err, domainerrors.ErrVoterNotFound)
}
