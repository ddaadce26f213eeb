package entities

import "time"

// Community is a voting group. AdminID stays empty until the first
// admin-triggering contact and is immutable afterwards.
type Community struct {
	CommunityID     string
	Title           string
	AdminID         string
	ProposalCounter int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (c Community) HasAdmin() bool {
	return c.AdminID != ""
}

func (c Community) IsAdmin(userID string) bool {
	return c.AdminID != "" && c.AdminID == userID
}
