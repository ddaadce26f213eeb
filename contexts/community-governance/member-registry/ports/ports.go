package ports

import (
	"context"
	"time"

	"balloteer/contexts/community-governance/member-registry/domain/entities"
)

type CommunityRepository interface {
	GetCommunity(ctx context.Context, communityID string) (entities.Community, error)
	UpsertCommunity(ctx context.Context, community entities.Community) (entities.Community, error)
	ListCommunitiesForAdmin(ctx context.Context, adminID string) ([]entities.Community, error)
	// NextProposalNumber bumps the community-local counter used when callers
	// want sequential local numbering alongside composite proposal IDs.
	NextProposalNumber(ctx context.Context, communityID string) (int64, error)
}

type VoterRepository interface {
	GetVoter(ctx context.Context, communityID string, voterID string) (entities.Voter, error)
	UpsertVoter(ctx context.Context, voter entities.Voter) (entities.Voter, error)
	ListVoters(ctx context.Context, communityID string) ([]entities.Voter, error)
	ListApprovedVoters(ctx context.Context, communityID string) ([]entities.Voter, error)
	ListCommunitiesForVoter(ctx context.Context, voterID string) ([]string, error)
}

// Notifier delivers best-effort member notifications. Failures are logged by
// callers and never surface as domain errors.
type Notifier interface {
	NotifyAccessRequest(ctx context.Context, adminID string, community entities.Community, voter entities.Voter) error
	NotifyReview(ctx context.Context, voterID string, community entities.Community, approved bool, weight int64) error
	NotifyWeightChange(ctx context.Context, voterID string, community entities.Community, weight int64, reason string) error
}

type Clock interface {
	Now() time.Time
}
