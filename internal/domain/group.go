package domain

import (
	"time"

	"github.com/google/uuid"
)

// Group represents a chat group. The presence core only reads its member
// list; administration happens elsewhere.
type Group struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	OwnerID   uuid.UUID `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewGroup creates a new group owned by the given user.
func NewGroup(name string, ownerID uuid.UUID) *Group {
	return &Group{
		ID:        uuid.New(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
	}
}
