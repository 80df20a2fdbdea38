package db

// Preference keys stored in the preferences table.
const (
	prefPageSize    = "page_size"
	prefCompact     = "compact"
	prefGranularity = "granularity"
	prefFilter      = "filter"
)

const sqlTimeFormat = "2006-01-02 15:04:05"
