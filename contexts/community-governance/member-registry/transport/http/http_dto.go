package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RegisterCommunityRequest struct {
	CommunityID string `json:"community_id"`
	Title       string `json:"title"`
}

type CommunityResponse struct {
	CommunityID string `json:"community_id"`
	Title       string `json:"title"`
	AdminID     string `json:"admin_id,omitempty"`
}

type RegisterVoterRequest struct {
	VoterID   string `json:"voter_id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
}

type ReviewVoterRequest struct {
	Approve bool  `json:"approve"`
	Weight  int64 `json:"weight,omitempty"`
}

type SetWeightRequest struct {
	Weight int64  `json:"weight"`
	Reason string `json:"reason,omitempty"`
}

type VoterResponse struct {
	CommunityID      string `json:"community_id"`
	VoterID          string `json:"voter_id"`
	DisplayName      string `json:"display_name"`
	Approved         bool   `json:"approved"`
	Weight           *int64 `json:"weight,omitempty"`
	Processed        bool   `json:"processed"`
	LastChangeReason string `json:"last_change_reason,omitempty"`
}

type VoterListResponse struct {
	Items []VoterResponse `json:"items"`
}
