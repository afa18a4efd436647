package domain

import "time"

// Team groups agents inside an organization. The categories attached to an
// agent's teams form that agent's dispatch eligibility set.
type Team struct {
	ID             int64
	OrganizationID int64
	Name           string
	Description    string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	CategoryIDs []int64
	MemberIDs   []int64
}
