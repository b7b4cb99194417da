package ingestion

import "time"

// Report summarizes one ingestion run.
type Report struct {
	Version          string
	Seen             int
	Indexed          int
	SkippedMalformed int
	SkippedEmpty     int
	Chunks           int
	Dim              int
	Fingerprint      string
	Pruned           []string
	Duration         time.Duration
}

// Skipped returns the number of documents left out of the snapshot.
func (r *Report) Skipped() int {
	return r.SkippedMalformed + r.SkippedEmpty
}
