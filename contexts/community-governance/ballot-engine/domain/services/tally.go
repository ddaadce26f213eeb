package services

import (
	"math"
	"sort"

	"balloteer/contexts/community-governance/ballot-engine/domain/entities"
)

type OutcomeKind string

const (
	OutcomeNoVotes OutcomeKind = "no_votes"
	OutcomeWinner  OutcomeKind = "winner"
	OutcomeTie     OutcomeKind = "tie"
)

// OptionResult is one line of the tally breakdown, in ballot option order.
type OptionResult struct {
	OptionIndex int
	Label       string
	Weight      int64
	Percent     int
}

type Outcome struct {
	Kind         OutcomeKind
	WinnerIndex  int
	WinnerLabel  string
	WinnerWeight int64
	TiedIndexes  []int
	TotalWeight  int64
	Breakdown    []OptionResult
}

// ComputeTotalWeight sums the weight recorded on every option of the
// proposal. Options without votes contribute zero.
func ComputeTotalWeight(proposal entities.Proposal) int64 {
	var total int64
	for _, weight := range proposal.OptionWeights {
		total += weight
	}
	return total
}

// ComputeOutcome derives the result of a proposal from its option weights.
// A single option holding the strict maximum wins; an equal maximum held by
// two or more options is a tie; zero total weight is no_votes. Percentages
// are computed per option against the total and rounded half away from zero.
func ComputeOutcome(proposal entities.Proposal) Outcome {
	total := ComputeTotalWeight(proposal)
	outcome := Outcome{
		Kind:        OutcomeNoVotes,
		WinnerIndex: -1,
		TotalWeight: total,
		Breakdown:   make([]OptionResult, 0, len(proposal.Options)),
	}
	for index, label := range proposal.Options {
		weight := proposal.OptionWeights[index]
		outcome.Breakdown = append(outcome.Breakdown, OptionResult{
			OptionIndex: index,
			Label:       label,
			Weight:      weight,
			Percent:     percentOf(weight, total),
		})
	}
	if total <= 0 {
		return outcome
	}

	var max int64
	for _, line := range outcome.Breakdown {
		if line.Weight > max {
			max = line.Weight
		}
	}
	leaders := make([]int, 0, 2)
	for _, line := range outcome.Breakdown {
		if line.Weight == max {
			leaders = append(leaders, line.OptionIndex)
		}
	}
	sort.Ints(leaders)
	if len(leaders) == 1 {
		outcome.Kind = OutcomeWinner
		outcome.WinnerIndex = leaders[0]
		outcome.WinnerLabel = proposal.Options[leaders[0]]
		outcome.WinnerWeight = max
		return outcome
	}
	outcome.Kind = OutcomeTie
	outcome.TiedIndexes = leaders
	return outcome
}

// EvaluateQuorum reports whether total participating weight reached the
// proposal's quorum. Proposals without a quorum always meet it. Quorum is
// advisory: it never changes the outcome kind.
func EvaluateQuorum(proposal entities.Proposal, totalWeight int64) bool {
	if proposal.QuorumWeight == nil {
		return true
	}
	return totalWeight >= *proposal.QuorumWeight
}

// percentOf rounds half away from zero, so 1/8 of the weight reports 13%.
func percentOf(weight, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(weight) * 100 / float64(total)))
}
