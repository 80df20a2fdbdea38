package api

import (
	"context"
)

const (
	selfPath = "/api/user/self"

	// RoleAdmin is the lowest role value with access to site-wide statistics.
	RoleAdmin = 10
)

// User is the subset of /api/user/self the dashboard needs.
type User struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        int    `json:"role"`
	Group       string `json:"group"`
	Quota       int64  `json:"quota"`
	UsedQuota   int64  `json:"used_quota"`
}

// IsAdmin reports whether the user may read site-wide statistics.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role >= RoleAdmin
}

// Scope returns the statistics scope for the user.
func (u *User) Scope() Scope {
	if u.IsAdmin() {
		return ScopeAll
	}
	return ScopeSelf
}

// GetSelf fetches the authenticated user.
func (c *Client) GetSelf(ctx context.Context) (*User, error) {
	var u User
	if err := c.get(ctx, selfPath, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
