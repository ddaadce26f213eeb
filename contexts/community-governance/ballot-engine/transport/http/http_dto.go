package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateProposalRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Options      []string   `json:"options"`
	QuorumWeight *int64     `json:"quorum_weight,omitempty"`
	EndsAt       *time.Time `json:"ends_at,omitempty"`
	Attachment   string     `json:"attachment,omitempty"`
}

type ProposalResponse struct {
	ProposalID   string     `json:"proposal_id"`
	CommunityID  string     `json:"community_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Options      []string   `json:"options"`
	Status       string     `json:"status"`
	QuorumWeight *int64     `json:"quorum_weight,omitempty"`
	EndsAt       *time.Time `json:"ends_at,omitempty"`
	CreatedBy    string     `json:"created_by"`
	Attachment   string     `json:"attachment,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
}

type CreateProposalResponse struct {
	Proposal         ProposalResponse `json:"proposal"`
	EligibleVoters   int              `json:"eligible_voters"`
	BallotsDelivered int              `json:"ballots_delivered"`
}

type CastVoteRequest struct {
	OptionIndex int `json:"option_index"`
}

type CastVoteResponse struct {
	ProposalID  string    `json:"proposal_id"`
	VoterID     string    `json:"voter_id"`
	OptionIndex int       `json:"option_index"`
	Weight      int64     `json:"weight"`
	Changed     bool      `json:"changed"`
	VotedAt     time.Time `json:"voted_at"`
}

type BreakdownLineResponse struct {
	OptionIndex int    `json:"option_index"`
	Label       string `json:"label"`
	Weight      int64  `json:"weight"`
	Percent     int    `json:"percent"`
}

type OutcomeResponse struct {
	ProposalID   string                  `json:"proposal_id"`
	CommunityID  string                  `json:"community_id"`
	Title        string                  `json:"title"`
	Status       string                  `json:"status"`
	Final        bool                    `json:"final"`
	OutcomeKind  string                  `json:"outcome_kind"`
	WinnerIndex  *int                    `json:"winner_index,omitempty"`
	WinnerLabel  string                  `json:"winner_label,omitempty"`
	WinnerWeight int64                   `json:"winner_weight,omitempty"`
	TiedIndexes  []int                   `json:"tied_indexes,omitempty"`
	TotalWeight  int64                   `json:"total_weight"`
	QuorumWeight *int64                  `json:"quorum_weight,omitempty"`
	QuorumMet    bool                    `json:"quorum_met"`
	Breakdown    []BreakdownLineResponse `json:"breakdown"`
}

type CloseProposalResponse struct {
	Outcome    OutcomeResponse `json:"outcome"`
	ClosedBy   string          `json:"closed_by,omitempty"`
	AutoClosed bool            `json:"auto_closed"`
	ClosedAt   *time.Time      `json:"closed_at,omitempty"`
}

type OpenProposalItem struct {
	Proposal      ProposalResponse `json:"proposal"`
	CurrentChoice *int             `json:"current_choice,omitempty"`
}

type OpenProposalListResponse struct {
	Items []OpenProposalItem `json:"items"`
}
