package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "balloteer/contexts/community-governance/ballot-engine/application"
	"balloteer/contexts/community-governance/ballot-engine/ports"
)

// ResultRelay drains the outbox and hands proposal results to the
// notification gateway. Rows are marked published only after the gateway
// accepts them, so a crash between the two repeats delivery rather than
// losing it; the gateway deduplicates repeats by event ID.
type ResultRelay struct {
	Outbox    ports.OutboxRepository
	Gateway   ports.NotificationGateway
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce publishes a bounded batch of pending outbox rows. It stops on the
// first failure so the retry loop can reprocess remaining rows safely.
func (r ResultRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}
	logger.Info("result relay cycle started",
		"event", "ballot_result_relay_started",
		"module", "community-governance/ballot-engine",
		"layer", "worker",
		"batch_size", limit,
	)

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("result relay outbox list failed",
			"event", "ballot_result_relay_list_failed",
			"module", "community-governance/ballot-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		logger.Debug("result relay found no pending rows",
			"event", "ballot_result_relay_noop",
			"module", "community-governance/ballot-engine",
			"layer", "worker",
		)
		return nil
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var envelope ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &envelope); err != nil {
			logger.Error("result relay envelope decode failed",
				"event", "ballot_result_relay_decode_failed",
				"module", "community-governance/ballot-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		if err := r.dispatch(ctx, envelope); err != nil {
			logger.Error("result relay dispatch failed",
				"event", "ballot_result_relay_dispatch_failed",
				"module", "community-governance/ballot-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_id", envelope.EventID,
				"event_type", envelope.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("result relay mark published failed",
				"event", "ballot_result_relay_mark_failed",
				"module", "community-governance/ballot-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	logger.Info("result relay cycle completed",
		"event", "ballot_result_relay_completed",
		"module", "community-governance/ballot-engine",
		"layer", "worker",
		"published_count", len(pending),
	)
	return nil
}

// dispatch routes proposal.closed rows to the gateway announcement and
// mirrors every envelope onto the event bus for other consumers.
func (r ResultRelay) dispatch(ctx context.Context, envelope ports.EventEnvelope) error {
	if envelope.EventType == "proposal.closed" && r.Gateway != nil {
		var event ports.ProposalClosedEvent
		if err := json.Unmarshal(envelope.Data, &event); err != nil {
			return err
		}
		if err := r.Gateway.PublishResult(ctx, event); err != nil {
			return err
		}
	}
	if r.Publisher != nil {
		return r.Publisher.Publish(ctx, envelope.EventType, envelope)
	}
	return nil
}
