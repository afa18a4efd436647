package dto

// CategoryRequest payload for create/update.
type CategoryRequest struct {
	Name string `json:"name"`
}

// TeamRequest payload for create/update.
type TeamRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	CategoryIDs []int64 `json:"category_ids"`
	MemberIDs   []int64 `json:"member_ids"`
}

// TeamResponse response.
type TeamResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	CategoryIDs []int64 `json:"category_ids"`
	MemberIDs   []int64 `json:"member_ids"`
}

// PresenceResponse response.
type PresenceResponse struct {
	AgentID int64 `json:"agent_id"`
	Online  bool  `json:"online"`
}

// OrganizationRequest payload for tenant bootstrap.
type OrganizationRequest struct {
	Name string `json:"name"`
}

// OrganizationResponse response.
type OrganizationResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// WidgetDomainRequest payload.
type WidgetDomainRequest struct {
	Domain string `json:"domain"`
}

// WidgetDomainResponse response.
type WidgetDomainResponse struct {
	ID     int64  `json:"id"`
	Domain string `json:"domain"`
}

// UpdateUserRoleRequest payload.
type UpdateUserRoleRequest struct {
	Role string `json:"role"`
}
