package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"balloteer/contexts/community-governance/member-registry/domain/entities"
	"balloteer/contexts/community-governance/member-registry/ports"
	contractsv1 "balloteer/contracts/gen/events/v1"
)

const topicRegistryNotification = "registry.notification"

// Publisher is the slice of the event bus the notifier needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, event contractsv1.Envelope) error
}

// Notifier publishes member notifications as events; the chat-facing consumer
// turns them into direct messages.
type Notifier struct {
	Publisher Publisher
	Logger    *slog.Logger
}

func NewNotifier(publisher Publisher, logger *slog.Logger) Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return Notifier{Publisher: publisher, Logger: logger}
}

var _ ports.Notifier = Notifier{}

func (n Notifier) NotifyAccessRequest(ctx context.Context, adminID string, community entities.Community, voter entities.Voter) error {
	return n.publish(ctx, "access_request", community.CommunityID, map[string]any{
		"recipient_id": adminID,
		"community_id": community.CommunityID,
		"voter_id":     voter.VoterID,
		"display_name": voter.DisplayName,
	})
}

func (n Notifier) NotifyReview(ctx context.Context, voterID string, community entities.Community, approved bool, weight int64) error {
	return n.publish(ctx, "review_decision", community.CommunityID, map[string]any{
		"recipient_id": voterID,
		"community_id": community.CommunityID,
		"approved":     approved,
		"weight":       weight,
	})
}

func (n Notifier) NotifyWeightChange(ctx context.Context, voterID string, community entities.Community, weight int64, reason string) error {
	return n.publish(ctx, "weight_change", community.CommunityID, map[string]any{
		"recipient_id": voterID,
		"community_id": community.CommunityID,
		"weight":       weight,
		"reason":       reason,
	})
}

func (n Notifier) publish(ctx context.Context, kind string, communityID string, payload map[string]any) error {
	payload["kind"] = kind
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	envelope := contractsv1.Envelope{
		EventID:          uuid.NewString(),
		EventType:        topicRegistryNotification,
		OccurredAt:       time.Now().UTC(),
		SourceService:    "member-registry",
		TraceID:          uuid.NewString(),
		SchemaVersion:    1,
		PartitionKeyPath: "community_id",
		PartitionKey:     communityID,
		Data:             data,
	}
	if err := n.Publisher.Publish(ctx, topicRegistryNotification, envelope); err != nil {
		return err
	}
	n.Logger.Info("member notification published",
		"event", "notify_member_notification",
		"module", "community-governance/member-registry",
		"layer", "adapter",
		"kind", kind,
		"community_id", communityID,
	)
	return nil
}
