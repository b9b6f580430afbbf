package domain

// ChangeOp identifies the kind of store mutation carried by a Change.
type ChangeOp string

const (
	TaskCreated ChangeOp = "task-created"
	TaskUpdated ChangeOp = "task-updated"
	TaskDeleted ChangeOp = "task-deleted"
)

// Change is an outbound record describing one store mutation. Task carries the
// full record after the mutation; for deletes it is the record that was removed.
type Change struct {
	Op        ChangeOp `json:"op"`
	Task      Task     `json:"task"`
	UserID    string   `json:"userId,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

// ChangeEnvelope wraps a change for the outbound queue.
type ChangeEnvelope struct {
	ID     string `json:"id"`
	Change Change `json:"change"`
}
