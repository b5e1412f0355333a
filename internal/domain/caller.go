package domain

import "strings"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Caller is the authenticated identity attached to a request. A nil *Caller is anonymous.
type Caller struct {
	UserID string
	Email  string
	Role   Role
}

// SystemCaller is used for gateway webhooks, which act with admin rights.
var SystemCaller = &Caller{UserID: "system", Role: RoleAdmin}

func (c *Caller) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}

func (c *Caller) ID() string {
	if c == nil {
		return ""
	}
	return c.UserID
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
