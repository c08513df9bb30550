package status

import "time"

// Announcement is the last successful publish, kept for the dashboard.
type Announcement struct {
	TokenID   string    `json:"token_id"`
	Symbol    string    `json:"symbol"`
	Text      string    `json:"text"`
	PublishID string    `json:"publish_id"`
	At        time.Time `json:"at"`
}

// Entry is one line of the bounded recent-activity log.
type Entry struct {
	At      time.Time `json:"at"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// Snapshot is the observer-facing pipeline state. Values are copies;
// observers never share memory with the pipeline.
type Snapshot struct {
	Running bool `json:"running"`

	StoreConnected     bool `json:"store_connected"`
	ChannelConnected   bool `json:"channel_connected"`
	GeneratorAvailable bool `json:"generator_available"`

	TokenCount     int       `json:"token_count"`
	LastScan       time.Time `json:"last_scan"`
	LastOutcome    string    `json:"last_outcome"`
	AnnouncedCount int       `json:"announced_count"`

	LastAnnouncement *Announcement `json:"last_announcement,omitempty"`

	// Activity is newest-first and capped.
	Activity []Entry `json:"activity"`
}

// Tick outcomes recorded in LastOutcome.
const (
	OutcomeNoop      = "noop"
	OutcomeAnnounced = "announced"
	OutcomeSkipped   = "skipped-overlap"
	OutcomeFailed    = "failed"
)
