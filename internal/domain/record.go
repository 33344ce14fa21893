package domain

import "time"

// DiscoveryRecord es la entrada del registro de frescura para un par.
type DiscoveryRecord struct {
	PairID        string
	FirstSeenAt   time.Time
	LastSeenAt    time.Time
	LastCandidate ScoredCandidate
	Observations  int
}

// Expired indica si el registro superó la ventana de retención en now.
func (r DiscoveryRecord) Expired(now time.Time, retention time.Duration) bool {
	return now.Sub(r.LastSeenAt) > retention
}
