// Package events publishes domain events for downstream aggregation.
package events

import "example.com/carbonlog/internal/domain"

// ActivityLogged is emitted after an activity record is persisted. Downstream
// consumers (reporting, leaderboards) aggregate these; delivery is
// best-effort and never blocks the batch.
type ActivityLogged struct {
	RecordID      string              `json:"record_id"`
	Username      string              `json:"username"`
	ActivityType  domain.ActivityType `json:"activity_type"`
	Key           string              `json:"key"`
	Quantity      float64             `json:"quantity"`
	Unit          string              `json:"unit"`
	CO2eKg        float64             `json:"co2e_kg"`
	IsVerified    bool                `json:"is_verified"`
	Timestamp     int64               `json:"timestamp"`
	SourceGroupID string              `json:"source_group_id"`
}
