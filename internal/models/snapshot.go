package models

import "time"

// Snapshot is the full current value of a subscribed path.
type Snapshot struct {
	Path string      `json:"path"`
	Data interface{} `json:"data"`
	At   time.Time   `json:"at"`
}
