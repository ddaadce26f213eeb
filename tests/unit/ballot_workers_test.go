package unit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	ballotengine "balloteer/contexts/community-governance/ballot-engine"
	"balloteer/contexts/community-governance/ballot-engine/adapters/memory"
	"balloteer/contexts/community-governance/ballot-engine/adapters/notify"
	"balloteer/contexts/community-governance/ballot-engine/domain/entities"
	ballotdomainerrors "balloteer/contexts/community-governance/ballot-engine/domain/errors"
	"balloteer/contexts/community-governance/ballot-engine/ports"
	ballothttp "balloteer/contexts/community-governance/ballot-engine/transport/http"
)

type recordingGateway struct {
	mu       sync.Mutex
	failNext bool
	ballots  int
	results  []ports.ProposalClosedEvent
}

func (g *recordingGateway) DeliverBallot(_ context.Context, _ string, _ entities.Proposal, _ int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ballots++
	return nil
}

func (g *recordingGateway) PublishResult(_ context.Context, event ports.ProposalClosedEvent) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failNext {
		g.failNext = false
		return errors.New("gateway unavailable")
	}
	g.results = append(g.results, event)
	return nil
}

func (g *recordingGateway) resultCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.results)
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ ports.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingPublisher) countTopic(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	count := 0
	for _, t := range p.topics {
		if t == topic {
			count++
		}
	}
	return count
}

func newWorkerModule(gateway ports.NotificationGateway) (ballotengine.Module, *memory.Store) {
	store := memory.NewStore()
	module := ballotengine.NewModule(ballotengine.Dependencies{
		Proposals:  store,
		Directory:  store,
		Gateway:    gateway,
		Outbox:     store,
		OutboxRepo: store,
		Clock:      store,
		IDGen:      store,
	})
	module.Store = store
	return module, store
}

func seedExpiredProposal(t *testing.T, store *memory.Store, proposalID string) {
	t.Helper()
	endsAt := time.Now().UTC().Add(-time.Minute)
	err := store.CreateProposal(context.Background(), entities.Proposal{
		ProposalID:  proposalID,
		CommunityID: "100",
		Title:       "Overdue ballot",
		Options:     []string{"Yes", "No"},
		Status:      entities.ProposalStatusOpen,
		EndsAt:      &endsAt,
		CreatedBy:   "admin-1",
		VoterChoices: map[string]int{
			"v1": 0,
			"v2": 1,
		},
		OptionWeights: map[int]int64{0: 3, 1: 7},
		CreatedAt:     endsAt.Add(-time.Hour),
		UpdatedAt:     endsAt.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("seed proposal failed: %v", err)
	}
}

func TestDeadlineCloserClosesExpiredProposalOnce(t *testing.T) {
	gateway := &recordingGateway{}
	module, store := newWorkerModule(gateway)
	store.SetAdmin("100", "admin-1")
	seedExpiredProposal(t, store, "c100_p1")

	if err := module.DeadlineCloser.RunOnce(context.Background()); err != nil {
		t.Fatalf("deadline closer failed: %v", err)
	}

	proposal, err := store.GetProposal(context.Background(), "c100_p1")
	if err != nil {
		t.Fatalf("get proposal failed: %v", err)
	}
	if proposal.IsOpen() || proposal.ClosedAt == nil {
		t.Fatalf("expected proposal closed with timestamp, got %+v", proposal)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected exactly one pending outbox row, got %d", len(pending))
	}

	// Second sweep finds the proposal already closed and must not re-emit.
	if err := module.DeadlineCloser.RunOnce(context.Background()); err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	pending, err = store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("second sweep must not add rows, got %d", len(pending))
	}
}

func TestResultRelayPublishesExactlyOnce(t *testing.T) {
	gateway := &recordingGateway{}
	module, store := newWorkerModule(gateway)
	store.SetAdmin("100", "admin-1")
	seedExpiredProposal(t, store, "c100_p1")

	if err := module.DeadlineCloser.RunOnce(context.Background()); err != nil {
		t.Fatalf("deadline closer failed: %v", err)
	}
	if err := module.ResultRelay.RunOnce(context.Background()); err != nil {
		t.Fatalf("result relay failed: %v", err)
	}
	if gateway.resultCount() != 1 {
		t.Fatalf("expected one result announcement, got %d", gateway.resultCount())
	}

	event := gateway.results[0]
	if event.ProposalID != "c100_p1" || event.OutcomeKind != "winner" || event.WinnerIndex != 1 {
		t.Fatalf("unexpected result payload: %+v", event)
	}
	if event.TotalWeight != 10 || !event.AutoClosed {
		t.Fatalf("expected auto-closed result with total 10, got %+v", event)
	}

	if err := module.ResultRelay.RunOnce(context.Background()); err != nil {
		t.Fatalf("second relay cycle failed: %v", err)
	}
	if gateway.resultCount() != 1 {
		t.Fatalf("drained outbox must not republish, got %d announcements", gateway.resultCount())
	}
}

func TestResultRelayRetriesAfterGatewayFailure(t *testing.T) {
	gateway := &recordingGateway{failNext: true}
	module, store := newWorkerModule(gateway)
	store.SetAdmin("100", "admin-1")
	seedExpiredProposal(t, store, "c100_p1")

	if err := module.DeadlineCloser.RunOnce(context.Background()); err != nil {
		t.Fatalf("deadline closer failed: %v", err)
	}
	if err := module.ResultRelay.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected relay to surface gateway failure")
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("failed row must stay pending, got %d", len(pending))
	}

	if err := module.ResultRelay.RunOnce(context.Background()); err != nil {
		t.Fatalf("retry cycle failed: %v", err)
	}
	if gateway.resultCount() != 1 {
		t.Fatalf("retry must deliver exactly once, got %d", gateway.resultCount())
	}
	pending, err = store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("delivered row must be marked published, got %d pending", len(pending))
	}
}

func TestCastVoteAfterDeadlineAutoCloses(t *testing.T) {
	gateway := &recordingGateway{}
	module, store := newWorkerModule(gateway)
	store.SetAdmin("100", "admin-1")
	store.SetVoter("100", ports.VoterProjection{VoterID: "late", Approved: true, Weight: 2})
	seedExpiredProposal(t, store, "c100_p1")

	_, err := module.Handler.CastVoteHandler(context.Background(), "c100_p1", "late", ballothttp.CastVoteRequest{OptionIndex: 0})
	if !errors.Is(err, ballotdomainerrors.ErrVotingClosed) {
		t.Fatalf("expected ErrVotingClosed for a late vote, got %v", err)
	}

	proposal, err := store.GetProposal(context.Background(), "c100_p1")
	if err != nil {
		t.Fatalf("get proposal failed: %v", err)
	}
	if proposal.IsOpen() {
		t.Fatalf("late vote must close the expired proposal")
	}
	if proposal.OptionWeights[0] != 3 {
		t.Fatalf("late vote must not be counted, got %+v", proposal.OptionWeights)
	}

	// The subsequent sweep sees the proposal closed; only one outbox row exists.
	if err := module.DeadlineCloser.RunOnce(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one close event, got %d", len(pending))
	}
}

func TestGatewayDeduplicatesResultAnnouncements(t *testing.T) {
	publisher := &recordingPublisher{}
	gateway := notify.NewGateway(publisher, nil)

	event := ports.ProposalClosedEvent{
		ProposalID:  "c100_p1",
		CommunityID: "100",
		Title:       "Overdue ballot",
		OutcomeKind: "winner",
		WinnerIndex: 1,
		TotalWeight: 10,
		ClosedAt:    time.Now().UTC(),
	}
	if err := gateway.PublishResult(context.Background(), event); err != nil {
		t.Fatalf("first publish failed: %v", err)
	}
	if err := gateway.PublishResult(context.Background(), event); err != nil {
		t.Fatalf("repeat publish failed: %v", err)
	}
	if got := publisher.countTopic("proposal.result"); got != 1 {
		t.Fatalf("expected one bus publication, got %d", got)
	}
}
