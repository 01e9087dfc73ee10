package models

import "time"

// ActivityAction tags an activity log entry.
type ActivityAction string

const (
	ActivityAdd     ActivityAction = "add"
	ActivityEdit    ActivityAction = "edit"
	ActivityArchive ActivityAction = "archive"
)

// Activity is an append-only audit entry.
type Activity struct {
	ID        string         `db:"id" json:"id"`
	Action    ActivityAction `db:"action" json:"action"`
	Subject   string         `db:"subject" json:"subject"`
	ActorID   *string        `db:"actor_id" json:"actorId,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"timestamp"`
}
