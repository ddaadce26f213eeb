package commands

import (
	"encoding/json"
	"time"

	"balloteer/contexts/community-governance/ballot-engine/domain/entities"
	"balloteer/contexts/community-governance/ballot-engine/domain/services"
	"balloteer/contexts/community-governance/ballot-engine/ports"
)

const eventTypeProposalClosed = "proposal.closed"

func newBallotEnvelope(
	eventID string,
	eventType string,
	communityID string,
	occurredAt time.Time,
	payload any,
) (ports.EventEnvelope, error) {
	// Events are partitioned by community so per-community consumers observe
	// closes in order.
	data, err := json.Marshal(payload)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "ballot-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "community_id",
		PartitionKey:     communityID,
		Data:             data,
	}, nil
}

func newProposalClosedEvent(
	proposal entities.Proposal,
	outcome services.Outcome,
	quorumMet bool,
	closedBy string,
	autoClosed bool,
	closedAt time.Time,
) ports.ProposalClosedEvent {
	breakdown := make([]ports.ResultBreakdownLine, 0, len(outcome.Breakdown))
	for _, line := range outcome.Breakdown {
		breakdown = append(breakdown, ports.ResultBreakdownLine{
			OptionIndex: line.OptionIndex,
			Label:       line.Label,
			Weight:      line.Weight,
			Percent:     line.Percent,
		})
	}
	event := ports.ProposalClosedEvent{
		ProposalID:   proposal.ProposalID,
		CommunityID:  proposal.CommunityID,
		Title:        proposal.Title,
		OutcomeKind:  string(outcome.Kind),
		WinnerIndex:  outcome.WinnerIndex,
		WinnerLabel:  outcome.WinnerLabel,
		WinnerWeight: outcome.WinnerWeight,
		TotalWeight:  outcome.TotalWeight,
		Breakdown:    breakdown,
		QuorumMet:    quorumMet,
		ClosedBy:     closedBy,
		AutoClosed:   autoClosed,
		ClosedAt:     closedAt.UTC(),
	}
	if len(outcome.TiedIndexes) > 0 {
		event.TiedIndexes = append([]int(nil), outcome.TiedIndexes...)
	}
	if proposal.QuorumWeight != nil {
		quorum := *proposal.QuorumWeight
		event.QuorumWeight = &quorum
	}
	return event
}
