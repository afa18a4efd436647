package domain

import "time"

// Organization is the tenant boundary; every queue key, presence marker and
// chat row is scoped to one.
type Organization struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrgDomain is a hostname registered for an organization's chat widget.
type OrgDomain struct {
	ID             int64
	OrganizationID int64
	Domain         string
	CreatedAt      time.Time
}
