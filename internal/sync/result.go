package sync

import (
	"errors"
	"time"
)

// Provenance tells the caller where returned data came from.
type Provenance string

const (
	// ProvenanceNone means the result carries no data.
	ProvenanceNone Provenance = ""
	// Cached data was served without contacting the API.
	Cached Provenance = "cached"
	// Live data was fetched just now and written to the cache.
	Live Provenance = "live"
	// CachedDueToError data is a cache fallback after a failed API call.
	CachedDueToError Provenance = "cached-due-to-error"
	// CachedDueToQuota data is a cache fallback because the daily quota is spent.
	CachedDueToQuota Provenance = "cached-due-to-quota"
)

// Stale reports whether the data is a fallback the user should be warned about.
func (p Provenance) Stale() bool {
	return p == CachedDueToError || p == CachedDueToQuota
}

func (p Provenance) String() string {
	if p == ProvenanceNone {
		return "none"
	}
	return string(p)
}

var (
	// ErrQuotaExhausted is returned when the daily time-entry budget is spent.
	ErrQuotaExhausted = errors.New("daily toggl API quota exhausted")
	// ErrAuth is returned when the API rejected the credential.
	ErrAuth = errors.New("toggl rejected the API token")
	// ErrRemote wraps every other failed API call.
	ErrRemote = errors.New("toggl API call failed")
)

// Snapshot is cached data offered alongside an error.
type Snapshot[T any] struct {
	Data      T
	FetchedAt time.Time
}

// Result is the outcome of one orchestrated request. When Provenance is
// ProvenanceNone, Data is the zero value and Err explains why.
type Result[T any] struct {
	Data       T
	Provenance Provenance
	FetchedAt  time.Time
	// Err is set for every outcome except Cached and Live. For fallbacks it
	// holds the reason the cache was used.
	Err error
	// Fallback carries cached data next to an auth error, for the caller to
	// show or ignore.
	Fallback *Snapshot[T]
	// Diagnostic reports a non-fatal local problem, such as a failed cache
	// write after a successful fetch.
	Diagnostic error
}

// HasData reports whether Data is usable.
func (r Result[T]) HasData() bool { return r.Provenance != ProvenanceNone }
