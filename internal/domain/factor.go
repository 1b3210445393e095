package domain

import "time"

// FactorStatus tracks the verification tier of an emission factor.
type FactorStatus string

const (
	FactorVerified FactorStatus = "verified"
	FactorPending  FactorStatus = "pending"
)

// EmissionFactor is a scalar conversion rate from activity quantity to CO2e.
// Exactly one verified factor may exist per normalized key; multiple pending
// factors may coexist, scoped to their submitter. Rows imported from the
// legacy schema may carry an empty status, which readers treat as verified.
type EmissionFactor struct {
	Key             string       `json:"key"`
	ActivityType    ActivityType `json:"activity_type"`
	CO2ePerUnit     float64      `json:"co2e_per_unit"`
	Unit            string       `json:"unit"`
	Status          FactorStatus `json:"status,omitempty"`
	AddedBy         string       `json:"added_by,omitempty"`
	SourceReference string       `json:"source_reference,omitempty"`
	CreatedAt       time.Time    `json:"created_at,omitempty"`
}
