package entities

import "time"

type ProposalStatus string

const (
	ProposalStatusOpen   ProposalStatus = "open"
	ProposalStatusClosed ProposalStatus = "closed"
)

// Proposal is a private weighted ballot. VoterChoices and OptionWeights are
// the aggregate view of the normalized vote rows; both representations must
// produce identical outcomes.
type Proposal struct {
	ProposalID    string
	CommunityID   string
	Title         string
	Description   string
	Options       []string
	Status        ProposalStatus
	QuorumWeight  *int64
	EndsAt        *time.Time
	CreatedBy     string
	Attachment    string
	VoterChoices  map[string]int
	OptionWeights map[int]int64
	CreatedAt     time.Time
	ClosedAt      *time.Time
	UpdatedAt     time.Time
}

func (p Proposal) IsOpen() bool {
	return p.Status == ProposalStatusOpen
}

// Expired reports whether the deadline has passed. Proposals without a
// deadline never expire.
func (p Proposal) Expired(now time.Time) bool {
	return p.EndsAt != nil && !now.Before(p.EndsAt.UTC())
}

func (p Proposal) ValidOption(optionIndex int) bool {
	return optionIndex >= 0 && optionIndex < len(p.Options)
}

// ApplyVote moves a voter's full current weight onto optionIndex. A prior
// vote is subtracted from its option first, floored at zero so a stale
// aggregate can never go negative.
func (p *Proposal) ApplyVote(voterID string, optionIndex int, weight int64, prior *Vote) {
	if p.VoterChoices == nil {
		p.VoterChoices = make(map[string]int)
	}
	if p.OptionWeights == nil {
		p.OptionWeights = make(map[int]int64)
	}
	if prior != nil {
		remaining := p.OptionWeights[prior.OptionIndex] - prior.Weight
		if remaining < 0 {
			remaining = 0
		}
		p.OptionWeights[prior.OptionIndex] = remaining
	}
	p.OptionWeights[optionIndex] += weight
	p.VoterChoices[voterID] = optionIndex
}

// Vote is the normalized per-voter row: one row per (proposal, voter), last
// write wins. Weight is the voter's weight captured at cast time.
type Vote struct {
	ProposalID  string
	VoterID     string
	OptionIndex int
	Weight      int64
	VotedAt     time.Time
}
