// Package events fans out "refresh" notifications to the websocket clients
// watching a workspace.
package events

import (
	"context"
	"time"
)

const (
	WorkspaceUpdated = "workspace.updated"
	WorkspaceDeleted = "workspace.deleted"
	MemberAdded      = "member.added"
	ProjectChanged   = "project.changed"
	ProjectDeleted   = "project.deleted"
	TaskChanged      = "task.changed"
	TaskDeleted      = "task.deleted"
	CommentChanged   = "comment.changed"
)

type Event struct {
	Type        string    `json:"type"`
	WorkspaceID string    `json:"workspace_id"`
	EntityID    string    `json:"entity_id"`
	At          time.Time `json:"at"`
}

// Publisher is called by services after a transaction commits. Delivery is
// best effort: failures are logged, never returned.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

// Local delivers events straight to the hub of this process.
type Local struct {
	Hub *Hub
}

func (l Local) Publish(_ context.Context, event Event) {
	l.Hub.Broadcast(event)
}
