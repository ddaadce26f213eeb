package entities

import (
	"strings"
	"time"
)

// Voter is a community member. Weight nil means the admin has not processed
// the member yet; rejection is Processed=true, Approved=false, Weight=nil.
type Voter struct {
	CommunityID      string
	VoterID          string
	DisplayName      string
	Approved         bool
	Weight           *int64
	Processed        bool
	LastChangeReason string
	LastModifiedAt   time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Eligible reports whether the voter may cast ballots: approved with a
// positive weight.
func (v Voter) Eligible() bool {
	return v.Approved && v.Weight != nil && *v.Weight > 0
}

// DeriveDisplayName prefers the handle form of the username and falls back to
// the first name, then the previous display name.
func DeriveDisplayName(username string, firstName string, previous string) string {
	username = strings.TrimSpace(username)
	if username != "" {
		return "@" + strings.TrimPrefix(username, "@")
	}
	firstName = strings.TrimSpace(firstName)
	if firstName != "" {
		return firstName
	}
	if previous != "" {
		return previous
	}
	return "Unknown"
}
