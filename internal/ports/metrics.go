package ports

import "time"

// Metrics receives client-side counters. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObserveRequest(origin Origin, method string, status int, elapsed time.Duration)
	CountQuery(role string, outcome string)
	CountSessionExpiry()
	CountFetch(kind string, outcome string, malformedFields int)
}

type NopMetrics struct{}

func (NopMetrics) ObserveRequest(Origin, string, int, time.Duration) {}
func (NopMetrics) CountQuery(string, string)                         {}
func (NopMetrics) CountSessionExpiry()                               {}
func (NopMetrics) CountFetch(string, string, int)                    {}
