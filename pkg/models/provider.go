package models

import (
	"encoding/json"
	"time"
)

// Provider is a service provider record as imported by the CRM.
// The services column is loosely typed at the source: either a JSON array of
// labels or a single comma/semicolon-delimited string. It is coerced into
// []string at the ingestion boundary (pkg/ingest) and never inspected raw
// anywhere else.
type Provider struct {
	ID        string          `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Services  json.RawMessage `json:"services" db:"services"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}
