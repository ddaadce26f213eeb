package services

import (
	"reflect"
	"testing"

	"balloteer/contexts/community-governance/ballot-engine/domain/entities"
)

func proposalWithWeights(options []string, weights map[int]int64) entities.Proposal {
	return entities.Proposal{
		ProposalID:    "c100_p1",
		CommunityID:   "100",
		Options:       options,
		Status:        entities.ProposalStatusOpen,
		OptionWeights: weights,
	}
}

func TestComputeOutcomeWinner(t *testing.T) {
	proposal := proposalWithWeights([]string{"Yes", "No"}, map[int]int64{0: 7, 1: 3})

	outcome := ComputeOutcome(proposal)
	if outcome.Kind != OutcomeWinner {
		t.Fatalf("expected winner outcome, got %s", outcome.Kind)
	}
	if outcome.WinnerIndex != 0 || outcome.WinnerLabel != "Yes" || outcome.WinnerWeight != 7 {
		t.Fatalf("unexpected winner: %+v", outcome)
	}
	if outcome.TotalWeight != 10 {
		t.Fatalf("expected total weight 10, got %d", outcome.TotalWeight)
	}
	if outcome.Breakdown[0].Percent != 70 || outcome.Breakdown[1].Percent != 30 {
		t.Fatalf("unexpected percentages: %+v", outcome.Breakdown)
	}
}

func TestComputeOutcomeTie(t *testing.T) {
	proposal := proposalWithWeights([]string{"A", "B", "C"}, map[int]int64{0: 5, 1: 5, 2: 2})

	outcome := ComputeOutcome(proposal)
	if outcome.Kind != OutcomeTie {
		t.Fatalf("expected tie outcome, got %s", outcome.Kind)
	}
	if !reflect.DeepEqual(outcome.TiedIndexes, []int{0, 1}) {
		t.Fatalf("expected options 0 and 1 tied, got %v", outcome.TiedIndexes)
	}
	if outcome.WinnerIndex != -1 {
		t.Fatalf("tie must not report a winner index, got %d", outcome.WinnerIndex)
	}
}

func TestComputeOutcomeNoVotes(t *testing.T) {
	proposal := proposalWithWeights([]string{"A", "B"}, nil)

	outcome := ComputeOutcome(proposal)
	if outcome.Kind != OutcomeNoVotes {
		t.Fatalf("expected no_votes outcome, got %s", outcome.Kind)
	}
	if outcome.TotalWeight != 0 {
		t.Fatalf("expected zero total weight, got %d", outcome.TotalWeight)
	}
	for _, line := range outcome.Breakdown {
		if line.Percent != 0 || line.Weight != 0 {
			t.Fatalf("empty ballot must report zeroed breakdown, got %+v", line)
		}
	}
}

func TestComputeOutcomeZeroWeightRowsOnly(t *testing.T) {
	proposal := proposalWithWeights([]string{"A", "B"}, map[int]int64{0: 0, 1: 0})

	outcome := ComputeOutcome(proposal)
	if outcome.Kind != OutcomeNoVotes {
		t.Fatalf("zero recorded weight must tally as no_votes, got %s", outcome.Kind)
	}
}

func TestPercentRoundsHalfAwayFromZero(t *testing.T) {
	cases := []struct {
		weight int64
		total  int64
		want   int
	}{
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{1, 200, 1},
		{1, 2, 50},
		{3, 8, 38},
		{0, 10, 0},
		{10, 10, 100},
	}
	for _, tc := range cases {
		if got := percentOf(tc.weight, tc.total); got != tc.want {
			t.Fatalf("percentOf(%d, %d) = %d, want %d", tc.weight, tc.total, got, tc.want)
		}
	}
}

func TestEvaluateQuorum(t *testing.T) {
	quorum := int64(10)
	proposal := proposalWithWeights([]string{"A"}, map[int]int64{0: 9})
	proposal.QuorumWeight = &quorum

	if EvaluateQuorum(proposal, 9) {
		t.Fatalf("9 of 10 must not meet quorum")
	}
	if !EvaluateQuorum(proposal, 10) {
		t.Fatalf("10 of 10 must meet quorum")
	}

	proposal.QuorumWeight = nil
	if !EvaluateQuorum(proposal, 0) {
		t.Fatalf("proposals without quorum always meet it")
	}
}

func TestQuorumDoesNotChangeOutcome(t *testing.T) {
	quorum := int64(100)
	proposal := proposalWithWeights([]string{"Yes", "No"}, map[int]int64{0: 3})
	proposal.QuorumWeight = &quorum

	outcome := ComputeOutcome(proposal)
	if outcome.Kind != OutcomeWinner {
		t.Fatalf("missed quorum must stay advisory, got %s", outcome.Kind)
	}
	if EvaluateQuorum(proposal, outcome.TotalWeight) {
		t.Fatalf("quorum of 100 cannot be met by total weight 3")
	}
}
