package ports

import (
	"context"
	"time"

	"balloteer/contexts/community-governance/ballot-engine/domain/entities"
	contractsv1 "balloteer/contracts/gen/events/v1"
)

type ProposalRepository interface {
	CreateProposal(ctx context.Context, proposal entities.Proposal) error
	GetProposal(ctx context.Context, proposalID string) (entities.Proposal, error)
	// RecordVote persists the vote row and the updated proposal aggregates as
	// one atomic replacement of the voter's previous row, if any.
	RecordVote(ctx context.Context, proposal entities.Proposal, vote entities.Vote) error
	GetVote(ctx context.Context, proposalID string, voterID string) (entities.Vote, bool, error)
	MarkClosed(ctx context.Context, proposal entities.Proposal) error
	ListOpenProposals(ctx context.Context, communityID string) ([]entities.Proposal, error)
	ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]entities.Proposal, error)
}

// VoterProjection is the read model of a community member owned by the
// member registry. Weight is zero while unassigned.
type VoterProjection struct {
	VoterID     string
	DisplayName string
	Approved    bool
	Weight      int64
}

func (v VoterProjection) Eligible() bool {
	return v.Approved && v.Weight > 0
}

// CommunityDirectory exposes the member-registry data the ballot engine
// needs: admin identity, voter eligibility and live weights.
type CommunityDirectory interface {
	GetAdminID(ctx context.Context, communityID string) (string, error)
	GetVoter(ctx context.Context, communityID string, voterID string) (VoterProjection, bool, error)
	ListEligibleVoters(ctx context.Context, communityID string) ([]VoterProjection, error)
	ListCommunitiesForVoter(ctx context.Context, voterID string) ([]string, error)
}

// ResultBreakdownLine is one option of a published result.
type ResultBreakdownLine struct {
	OptionIndex int    `json:"option_index"`
	Label       string `json:"label"`
	Weight      int64  `json:"weight"`
	Percent     int    `json:"percent"`
}

// ProposalClosedEvent is the wire payload carried through the outbox and
// delivered to the notification gateway exactly once per proposal.
type ProposalClosedEvent struct {
	ProposalID   string                `json:"proposal_id"`
	CommunityID  string                `json:"community_id"`
	Title        string                `json:"title"`
	OutcomeKind  string                `json:"outcome_kind"`
	WinnerIndex  int                   `json:"winner_index"`
	WinnerLabel  string                `json:"winner_label,omitempty"`
	WinnerWeight int64                 `json:"winner_weight,omitempty"`
	TiedIndexes  []int                 `json:"tied_indexes,omitempty"`
	TotalWeight  int64                 `json:"total_weight"`
	Breakdown    []ResultBreakdownLine `json:"breakdown"`
	QuorumWeight *int64                `json:"quorum_weight,omitempty"`
	QuorumMet    bool                  `json:"quorum_met"`
	ClosedBy     string                `json:"closed_by,omitempty"`
	AutoClosed   bool                  `json:"auto_closed"`
	ClosedAt     time.Time             `json:"closed_at"`
}

// NotificationGateway is the outbound messaging edge. DeliverBallot failures
// are per-voter and must not abort a fan-out; PublishResult is invoked by the
// relay worker after the close is durable.
type NotificationGateway interface {
	DeliverBallot(ctx context.Context, voterID string, proposal entities.Proposal, weight int64) error
	PublishResult(ctx context.Context, event ProposalClosedEvent) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
