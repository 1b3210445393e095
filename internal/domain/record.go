// Package domain defines the business types for the carbon logging service.
package domain

// ActivityType is the coarse emission category of a logged activity.
type ActivityType string

const (
	ActivityTransport ActivityType = "TRANSPORT"
	ActivityFood      ActivityType = "FOOD"
	ActivityEnergy    ActivityType = "ENERGY"
	ActivityUnknown   ActivityType = "UNKNOWN"
)

// DefaultUnit returns the unit assumed for a category when the text names none.
func (t ActivityType) DefaultUnit() string {
	switch t {
	case ActivityFood:
		return "serving"
	case ActivityTransport:
		return "km"
	case ActivityEnergy:
		return "kWh"
	default:
		return ""
	}
}

// DefaultKey returns the generic catalog key used when a category resolved
// but no specific item could be matched.
func (t ActivityType) DefaultKey() string {
	switch t {
	case ActivityFood:
		return "food"
	case ActivityTransport:
		return "car"
	case ActivityEnergy:
		return "electricity"
	default:
		return ""
	}
}

// ActivityRecord is one recognized sentence converted into an emission entry.
// Records are immutable once created and persisted to the history store.
type ActivityRecord struct {
	ID            string       `json:"_id,omitempty"`
	Username      string       `json:"username"`
	InputText     string       `json:"input_text"`
	ActivityType  ActivityType `json:"activity_type"`
	Key           string       `json:"key,omitempty"`
	Quantity      float64      `json:"quantity"`
	Unit          string       `json:"unit,omitempty"`
	CO2e          float64      `json:"co2e"`
	IsVerified    bool         `json:"is_verified"`
	Timestamp     int64        `json:"timestamp"`
	DateReadable  string       `json:"date_readable,omitempty"`
	SourceGroupID string       `json:"source_group_id,omitempty"`
}

// BatchResult aggregates the outcome of one extraction request. It is
// transient; only its records are persisted.
type BatchResult struct {
	Records         []ActivityRecord
	FailedSentences []string
	TotalCO2e       float64
}
