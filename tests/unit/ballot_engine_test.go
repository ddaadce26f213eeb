package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	ballotengine "balloteer/contexts/community-governance/ballot-engine"
	ballotdomainerrors "balloteer/contexts/community-governance/ballot-engine/domain/errors"
	"balloteer/contexts/community-governance/ballot-engine/ports"
	ballothttp "balloteer/contexts/community-governance/ballot-engine/transport/http"
	"balloteer/internal/platform/messaging"
)

func newBallotModule(t *testing.T) ballotengine.Module {
	t.Helper()
	return ballotengine.NewInMemoryModule(messaging.NewBus(nil), nil)
}

func seedCommunity(module ballotengine.Module, communityID string, adminID string, weights map[string]int64) {
	module.Store.SetAdmin(communityID, adminID)
	for voterID, weight := range weights {
		module.Store.SetVoter(communityID, ports.VoterProjection{
			VoterID:     voterID,
			DisplayName: "@" + voterID,
			Approved:    true,
			Weight:      weight,
		})
	}
}

func TestProposalLifecycleWeightedOutcome(t *testing.T) {
	module := newBallotModule(t)
	seedCommunity(module, "100", "admin-1", map[string]int64{"v1": 3, "v2": 7})

	quorum := int64(5)
	created, err := module.Handler.CreateProposalHandler(context.Background(), "100", "admin-1", ballothttp.CreateProposalRequest{
		Title:        "Pick next budget",
		Options:      []string{"Budget A", "Budget B"},
		QuorumWeight: &quorum,
	})
	if err != nil {
		t.Fatalf("create proposal failed: %v", err)
	}
	if created.EligibleVoters != 2 || created.BallotsDelivered != 2 {
		t.Fatalf("expected 2 ballots for 2 eligible voters, got %d/%d",
			created.BallotsDelivered, created.EligibleVoters)
	}
	proposalID := created.Proposal.ProposalID

	if _, err := module.Handler.CastVoteHandler(context.Background(), proposalID, "v1", ballothttp.CastVoteRequest{OptionIndex: 0}); err != nil {
		t.Fatalf("v1 vote failed: %v", err)
	}
	vote, err := module.Handler.CastVoteHandler(context.Background(), proposalID, "v2", ballothttp.CastVoteRequest{OptionIndex: 1})
	if err != nil {
		t.Fatalf("v2 vote failed: %v", err)
	}
	if vote.Weight != 7 || vote.Changed {
		t.Fatalf("expected fresh vote with weight 7, got %+v", vote)
	}

	closed, err := module.Handler.CloseProposalHandler(context.Background(), proposalID, "admin-1")
	if err != nil {
		t.Fatalf("close proposal failed: %v", err)
	}
	outcome := closed.Outcome
	if outcome.OutcomeKind != "winner" {
		t.Fatalf("expected winner outcome, got %s", outcome.OutcomeKind)
	}
	if outcome.WinnerIndex == nil || *outcome.WinnerIndex != 1 || outcome.WinnerLabel != "Budget B" {
		t.Fatalf("expected Budget B to win, got %+v", outcome)
	}
	if outcome.TotalWeight != 10 || !outcome.QuorumMet {
		t.Fatalf("expected total 10 meeting quorum 5, got %+v", outcome)
	}
	if outcome.Breakdown[0].Percent != 30 || outcome.Breakdown[1].Percent != 70 {
		t.Fatalf("expected 30/70 split, got %+v", outcome.Breakdown)
	}

	if _, err := module.Handler.CloseProposalHandler(context.Background(), proposalID, "admin-1"); !errors.Is(err, ballotdomainerrors.ErrAlreadyClosed) {
		t.Fatalf("expected ErrAlreadyClosed on second close, got %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(context.Background(), proposalID, "v1", ballothttp.CastVoteRequest{OptionIndex: 1}); !errors.Is(err, ballotdomainerrors.ErrVotingClosed) {
		t.Fatalf("expected ErrVotingClosed after close, got %v", err)
	}

	view, err := module.Handler.GetOutcomeHandler(context.Background(), proposalID)
	if err != nil {
		t.Fatalf("get outcome failed: %v", err)
	}
	if !view.Final || view.OutcomeKind != "winner" || view.TotalWeight != 10 {
		t.Fatalf("sealed outcome must match close result, got %+v", view)
	}
}

func TestRevoteMovesFullWeight(t *testing.T) {
	module := newBallotModule(t)
	seedCommunity(module, "100", "admin-1", map[string]int64{"v1": 5})

	created, err := module.Handler.CreateProposalHandler(context.Background(), "100", "admin-1", ballothttp.CreateProposalRequest{
		Title:   "Meeting day",
		Options: []string{"Monday", "Friday"},
	})
	if err != nil {
		t.Fatalf("create proposal failed: %v", err)
	}
	proposalID := created.Proposal.ProposalID

	if _, err := module.Handler.CastVoteHandler(context.Background(), proposalID, "v1", ballothttp.CastVoteRequest{OptionIndex: 0}); err != nil {
		t.Fatalf("first vote failed: %v", err)
	}
	revote, err := module.Handler.CastVoteHandler(context.Background(), proposalID, "v1", ballothttp.CastVoteRequest{OptionIndex: 1})
	if err != nil {
		t.Fatalf("revote failed: %v", err)
	}
	if !revote.Changed {
		t.Fatalf("expected revote to report a change")
	}

	view, err := module.Handler.GetOutcomeHandler(context.Background(), proposalID)
	if err != nil {
		t.Fatalf("get outcome failed: %v", err)
	}
	if view.Breakdown[0].Weight != 0 || view.Breakdown[1].Weight != 5 {
		t.Fatalf("expected weight fully moved to Friday, got %+v", view.Breakdown)
	}
	if view.TotalWeight != 5 {
		t.Fatalf("voter must count once, got total %d", view.TotalWeight)
	}
}

func TestWeightChangeAppliesOnNextVoteOnly(t *testing.T) {
	module := newBallotModule(t)
	seedCommunity(module, "100", "admin-1", map[string]int64{"v1": 3})

	created, err := module.Handler.CreateProposalHandler(context.Background(), "100", "admin-1", ballothttp.CreateProposalRequest{
		Title:   "Logo color",
		Options: []string{"Blue", "Green"},
	})
	if err != nil {
		t.Fatalf("create proposal failed: %v", err)
	}
	proposalID := created.Proposal.ProposalID

	if _, err := module.Handler.CastVoteHandler(context.Background(), proposalID, "v1", ballothttp.CastVoteRequest{OptionIndex: 0}); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	module.Store.SetVoter("100", ports.VoterProjection{VoterID: "v1", Approved: true, Weight: 10})

	view, err := module.Handler.GetOutcomeHandler(context.Background(), proposalID)
	if err != nil {
		t.Fatalf("get outcome failed: %v", err)
	}
	if view.Breakdown[0].Weight != 3 {
		t.Fatalf("recorded weight must not retally on weight change, got %d", view.Breakdown[0].Weight)
	}

	if _, err := module.Handler.CastVoteHandler(context.Background(), proposalID, "v1", ballothttp.CastVoteRequest{OptionIndex: 0}); err != nil {
		t.Fatalf("revote failed: %v", err)
	}
	view, err = module.Handler.GetOutcomeHandler(context.Background(), proposalID)
	if err != nil {
		t.Fatalf("get outcome failed: %v", err)
	}
	if view.Breakdown[0].Weight != 10 {
		t.Fatalf("revote must capture the live weight, got %d", view.Breakdown[0].Weight)
	}
}

func TestCastVoteRejectsIneligibleAndInvalidOption(t *testing.T) {
	module := newBallotModule(t)
	seedCommunity(module, "100", "admin-1", map[string]int64{"v1": 3})
	module.Store.SetVoter("100", ports.VoterProjection{VoterID: "pending", Approved: false})
	module.Store.SetVoter("100", ports.VoterProjection{VoterID: "weightless", Approved: true, Weight: 0})

	created, err := module.Handler.CreateProposalHandler(context.Background(), "100", "admin-1", ballothttp.CreateProposalRequest{
		Title:   "Quiet hours",
		Options: []string{"22:00", "23:00"},
	})
	if err != nil {
		t.Fatalf("create proposal failed: %v", err)
	}
	proposalID := created.Proposal.ProposalID

	cases := []struct {
		voterID string
		option  int
		want    error
	}{
		{"stranger", 0, ballotdomainerrors.ErrNotEligible},
		{"pending", 0, ballotdomainerrors.ErrNotEligible},
		{"weightless", 0, ballotdomainerrors.ErrNotEligible},
		{"v1", 2, ballotdomainerrors.ErrInvalidOption},
		{"v1", -1, ballotdomainerrors.ErrInvalidOption},
	}
	for _, tc := range cases {
		_, err := module.Handler.CastVoteHandler(context.Background(), proposalID, tc.voterID, ballothttp.CastVoteRequest{OptionIndex: tc.option})
		if !errors.Is(err, tc.want) {
			t.Fatalf("voter %s option %d: expected %v, got %v", tc.voterID, tc.option, tc.want, err)
		}
	}

	view, err := module.Handler.GetOutcomeHandler(context.Background(), proposalID)
	if err != nil {
		t.Fatalf("get outcome failed: %v", err)
	}
	if view.OutcomeKind != "no_votes" || view.TotalWeight != 0 {
		t.Fatalf("rejected votes must not count, got %+v", view)
	}
}

func TestCreateProposalValidation(t *testing.T) {
	module := newBallotModule(t)
	seedCommunity(module, "100", "admin-1", map[string]int64{"v1": 3})

	if _, err := module.Handler.CreateProposalHandler(context.Background(), "100", "v1", ballothttp.CreateProposalRequest{
		Title:   "Not allowed",
		Options: []string{"A", "B"},
	}); !errors.Is(err, ballotdomainerrors.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for non-admin creator, got %v", err)
	}

	if _, err := module.Handler.CreateProposalHandler(context.Background(), "100", "admin-1", ballothttp.CreateProposalRequest{
		Title:   "One option",
		Options: []string{"Only", "  "},
	}); !errors.Is(err, ballotdomainerrors.ErrInvalidProposal) {
		t.Fatalf("expected ErrInvalidProposal for a single usable option, got %v", err)
	}

	past := time.Now().UTC().Add(-time.Hour)
	if _, err := module.Handler.CreateProposalHandler(context.Background(), "100", "admin-1", ballothttp.CreateProposalRequest{
		Title:   "Already over",
		Options: []string{"A", "B"},
		EndsAt:  &past,
	}); !errors.Is(err, ballotdomainerrors.ErrInvalidProposal) {
		t.Fatalf("expected ErrInvalidProposal for past deadline, got %v", err)
	}

	badQuorum := int64(0)
	if _, err := module.Handler.CreateProposalHandler(context.Background(), "100", "admin-1", ballothttp.CreateProposalRequest{
		Title:        "Zero quorum",
		Options:      []string{"A", "B"},
		QuorumWeight: &badQuorum,
	}); !errors.Is(err, ballotdomainerrors.ErrInvalidProposal) {
		t.Fatalf("expected ErrInvalidProposal for non-positive quorum, got %v", err)
	}
}

func TestTieAndQuorumAdvisory(t *testing.T) {
	module := newBallotModule(t)
	seedCommunity(module, "100", "admin-1", map[string]int64{"v1": 5, "v2": 5})

	quorum := int64(100)
	created, err := module.Handler.CreateProposalHandler(context.Background(), "100", "admin-1", ballothttp.CreateProposalRequest{
		Title:        "Split decision",
		Options:      []string{"A", "B"},
		QuorumWeight: &quorum,
	})
	if err != nil {
		t.Fatalf("create proposal failed: %v", err)
	}
	proposalID := created.Proposal.ProposalID

	if _, err := module.Handler.CastVoteHandler(context.Background(), proposalID, "v1", ballothttp.CastVoteRequest{OptionIndex: 0}); err != nil {
		t.Fatalf("v1 vote failed: %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(context.Background(), proposalID, "v2", ballothttp.CastVoteRequest{OptionIndex: 1}); err != nil {
		t.Fatalf("v2 vote failed: %v", err)
	}

	closed, err := module.Handler.CloseProposalHandler(context.Background(), proposalID, "admin-1")
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if closed.Outcome.OutcomeKind != "tie" {
		t.Fatalf("expected tie, got %s", closed.Outcome.OutcomeKind)
	}
	if len(closed.Outcome.TiedIndexes) != 2 {
		t.Fatalf("expected both options tied, got %v", closed.Outcome.TiedIndexes)
	}
	if closed.Outcome.QuorumMet {
		t.Fatalf("total 10 must not meet quorum 100")
	}
}

func TestListOpenProposalsForVoter(t *testing.T) {
	module := newBallotModule(t)
	seedCommunity(module, "100", "admin-1", map[string]int64{"v1": 3})
	seedCommunity(module, "200", "admin-2", map[string]int64{"v1": 4, "v2": 1})

	first, err := module.Handler.CreateProposalHandler(context.Background(), "100", "admin-1", ballothttp.CreateProposalRequest{
		Title:   "Community 100 ballot",
		Options: []string{"A", "B"},
	})
	if err != nil {
		t.Fatalf("create first proposal failed: %v", err)
	}
	if _, err := module.Handler.CreateProposalHandler(context.Background(), "200", "admin-2", ballothttp.CreateProposalRequest{
		Title:   "Community 200 ballot",
		Options: []string{"X", "Y"},
	}); err != nil {
		t.Fatalf("create second proposal failed: %v", err)
	}

	if _, err := module.Handler.CastVoteHandler(context.Background(), first.Proposal.ProposalID, "v1", ballothttp.CastVoteRequest{OptionIndex: 1}); err != nil {
		t.Fatalf("vote failed: %v", err)
	}

	list, err := module.Handler.ListOpenForVoterHandler(context.Background(), "v1")
	if err != nil {
		t.Fatalf("list open failed: %v", err)
	}
	if len(list.Items) != 2 {
		t.Fatalf("expected proposals from both communities, got %d", len(list.Items))
	}
	for _, item := range list.Items {
		if item.Proposal.ProposalID == first.Proposal.ProposalID {
			if item.CurrentChoice == nil || *item.CurrentChoice != 1 {
				t.Fatalf("expected recorded choice 1, got %+v", item.CurrentChoice)
			}
		} else if item.CurrentChoice != nil {
			t.Fatalf("unvoted proposal must not carry a choice, got %+v", item.CurrentChoice)
		}
	}

	other, err := module.Handler.ListOpenForVoterHandler(context.Background(), "v2")
	if err != nil {
		t.Fatalf("list open for v2 failed: %v", err)
	}
	if len(other.Items) != 1 {
		t.Fatalf("v2 is only eligible in community 200, got %d items", len(other.Items))
	}
}
