package models

// Preferences are the view settings persisted between runs.
type Preferences struct {
	PageSize    int
	Compact     bool
	Granularity Granularity
	// Filter is the last submitted search; nil means defaults.
	Filter *Query
}

// DefaultPreferences returns the preferences used on first start.
func DefaultPreferences(pageSize int) Preferences {
	return Preferences{
		PageSize:    NormalizePageSize(pageSize),
		Granularity: Monthly,
	}
}
