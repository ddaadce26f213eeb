package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"balloteer/contexts/community-governance/ballot-engine/domain/entities"
	"balloteer/contexts/community-governance/ballot-engine/ports"
)

const (
	topicBallotDelivery = "ballot.delivery"
	topicProposalResult = "proposal.result"
)

// Gateway is the outbound notification edge. Ballot deliveries and result
// announcements are published as events on the bus; a bot or mailer consumes
// them and talks to the actual chat platform.
//
// Result announcements are deduplicated per proposal, so relay retries after
// a partial failure cannot announce the same result twice.
type Gateway struct {
	Publisher ports.EventPublisher
	Logger    *slog.Logger

	announced *cache.Cache
}

func NewGateway(publisher ports.EventPublisher, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		Publisher: publisher,
		Logger:    logger,
		announced: cache.New(24*time.Hour, time.Hour),
	}
}

var _ ports.NotificationGateway = (*Gateway)(nil)

func (g *Gateway) DeliverBallot(ctx context.Context, voterID string, proposal entities.Proposal, weight int64) error {
	payload := map[string]any{
		"voter_id":     voterID,
		"proposal_id":  proposal.ProposalID,
		"community_id": proposal.CommunityID,
		"title":        proposal.Title,
		"description":  proposal.Description,
		"options":      proposal.Options,
		"weight":       weight,
	}
	if proposal.EndsAt != nil {
		payload["ends_at"] = proposal.EndsAt.UTC().Format(time.RFC3339)
	}
	envelope, err := g.newEnvelope(topicBallotDelivery, proposal.CommunityID, payload)
	if err != nil {
		return err
	}
	if err := g.Publisher.Publish(ctx, topicBallotDelivery, envelope); err != nil {
		return err
	}
	g.Logger.Info("ballot delivered",
		"event", "notify_ballot_delivered",
		"module", "community-governance/ballot-engine",
		"layer", "adapter",
		"proposal_id", proposal.ProposalID,
		"voter_id", voterID,
		"weight", weight,
	)
	return nil
}

func (g *Gateway) PublishResult(ctx context.Context, event ports.ProposalClosedEvent) error {
	if _, seen := g.announced.Get(event.ProposalID); seen {
		g.Logger.Debug("result announcement already published; skipping",
			"event", "notify_result_duplicate_skipped",
			"module", "community-governance/ballot-engine",
			"layer", "adapter",
			"proposal_id", event.ProposalID,
		)
		return nil
	}
	envelope, err := g.newEnvelope(topicProposalResult, event.CommunityID, event)
	if err != nil {
		return err
	}
	if err := g.Publisher.Publish(ctx, topicProposalResult, envelope); err != nil {
		return err
	}
	g.announced.SetDefault(event.ProposalID, struct{}{})
	g.Logger.Info("proposal result announced",
		"event", "notify_result_published",
		"module", "community-governance/ballot-engine",
		"layer", "adapter",
		"proposal_id", event.ProposalID,
		"community_id", event.CommunityID,
		"outcome", event.OutcomeKind,
		"total_weight", event.TotalWeight,
		"quorum_met", event.QuorumMet,
	)
	return nil
}

func (g *Gateway) newEnvelope(eventType string, communityID string, payload any) (ports.EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          uuid.NewString(),
		EventType:        eventType,
		OccurredAt:       time.Now().UTC(),
		SourceService:    "ballot-engine",
		TraceID:          uuid.NewString(),
		SchemaVersion:    1,
		PartitionKeyPath: "community_id",
		PartitionKey:     communityID,
		Data:             data,
	}, nil
}
