package config

import (
	"strings"
	"time"
)

// Environment variable names.
const (
	envBaseURL              = "ONEAPI_BASE_URL"
	envAccessToken          = "ONEAPI_ACCESS_TOKEN"
	envUserID               = "ONEAPI_USER_ID"
	envRole                 = "ONEAPI_ROLE"
	envDatabasePath         = "DATABASE_PATH"
	envPageSize             = "PAGE_SIZE"
	envRequestTimeout       = "REQUEST_TIMEOUT"
	envQuotaPerUnit         = "QUOTA_PER_UNIT"
	envDisplayInCurrency    = "DISPLAY_IN_CURRENCY"
	envDesktopNotifications = "DESKTOP_NOTIFICATIONS"
	envLogFile              = "LOG_FILE"
	envLogLevel             = "LOG_LEVEL"
)

// Default values
const (
	defaultPageSize       = 10
	defaultRequestTimeout = 30 * time.Second
	defaultQuotaPerUnit   = 500000.0
	defaultLogLevel       = "info"

	appDirName = "usage-dashboard-tui"
)

// Role overrides the statistics scope detection.
type Role int

const (
	// RoleAuto asks the gateway for the caller's role.
	RoleAuto Role = iota
	// RoleUser always uses the self endpoints.
	RoleUser
	// RoleAdmin always uses the site-wide endpoints.
	RoleAdmin
)

// String returns the string representation of the role.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	default:
		return "auto"
	}
}

// ParseRole parses ONEAPI_ROLE. Unknown values mean auto-detection.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin", "root":
		return RoleAdmin
	case "user", "self":
		return RoleUser
	default:
		return RoleAuto
	}
}
