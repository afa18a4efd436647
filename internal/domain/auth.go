package domain

// SubjectType differentiates operator vs customer tokens.
type SubjectType string

const (
	SubjectTypeUser     SubjectType = "USER"
	SubjectTypeCustomer SubjectType = "CUSTOMER"
)
