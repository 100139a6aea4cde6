package api

// API limits and constants.
const (
	// MaxVisibleSyncErrors caps the error lines returned for one sync run.
	MaxVisibleSyncErrors = 5

	// envelopeVersion is the "v" field of every JSON response.
	envelopeVersion = 1

	// DefaultSyncRatePerMinute applies when no rate is configured.
	DefaultSyncRatePerMinute = 6
)

// Cache-Control header values.
const (
	CacheNoStore = "no-cache"
)
