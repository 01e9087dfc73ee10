package models

import (
	"encoding/json"
	"time"
)

// SettingCountdownEnabled is the only persisted flag.
const SettingCountdownEnabled = "countdownEnabled"

// Setting is a persisted key/value entry.
type Setting struct {
	Key       string          `db:"key" json:"key"`
	Value     json.RawMessage `db:"value" json:"value"`
	UpdatedBy *string         `db:"updated_by" json:"updatedBy,omitempty"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}
