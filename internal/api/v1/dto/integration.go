package dto

import "encoding/json"

// IntegrationUpsertDTO connects or reconfigures an integration. Credential is
// write-only and never returned.
type IntegrationUpsertDTO struct {
	Type       string          `json:"type" validate:"required,oneof=github slack jira notion"`
	Config     json.RawMessage `json:"config"`
	Credential string          `json:"credential"`
}
