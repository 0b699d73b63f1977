package models

import "time"

// CanonicalService is an authoritative taxonomy entry that provider service
// labels are matched against. Rows are produced by the taxonomy extraction
// job and treated as immutable within a pipeline run.
type CanonicalService struct {
	ID                     string    `json:"id" db:"id"`
	Category               string    `json:"category" db:"category"`
	Service                string    `json:"service" db:"service"`
	HistoricalRequestCount int       `json:"historical_request_count" db:"historical_request_count"`
	IsActive               bool      `json:"is_active" db:"is_active"`
	CreatedAt              time.Time `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time `json:"updated_at" db:"updated_at"`
}
