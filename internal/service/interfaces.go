package service

import (
	"chatline-server/internal/domain"
	"context"
	"time"

	"github.com/google/uuid"
)

// --- Service Interfaces ---

// IUserService defines the interface for user-related business logic.
type IUserService interface {
	Register(username, avatar, password string) (*domain.User, error)
	Login(username, password string) (*domain.User, error)
}

// ITokenService issues and verifies bearer credentials.
type ITokenService interface {
	Issue(user *domain.User) (string, error)
	Verify(token string) (uuid.UUID, error)
}

// --- Collaborator Interfaces ---

// IUserDirectory resolves users and persists their online flag.
type IUserDirectory interface {
	Create(user *domain.User) error
	FindByID(id uuid.UUID) (*domain.User, error)
	FindByUsername(username string) (*domain.User, error)
	SetOnline(id uuid.UUID, online bool) error
	ListAll() ([]*domain.User, error)
}

// IGroupDirectory resolves group membership. The presence core re-resolves
// members on every dispatch and never caches them.
type IGroupDirectory interface {
	Create(group *domain.Group) error
	FindByID(id uuid.UUID) (*domain.Group, error)
	AddMember(groupID, userID uuid.UUID) error
	RemoveMember(groupID, userID uuid.UUID) error
	MemberIDs(groupID uuid.UUID) ([]uuid.UUID, error)
	GroupIDsFor(userID uuid.UUID) ([]uuid.UUID, error)
	IsMember(groupID, userID uuid.UUID) (bool, error)
}

// IMessageStore defines the interface for message persistence.
type IMessageStore interface {
	Save(ctx context.Context, message *domain.ChatMessage) error
	FindByID(ctx context.Context, id string) (*domain.ChatMessage, error)
	MarkDelivered(ctx context.Context, ids []string) error
	MarkSeen(ctx context.Context, conversationID, userID string) error
	SoftDelete(ctx context.Context, id, userID string) (*domain.ChatMessage, error)
	HardDelete(ctx context.Context, id string) error
	PendingFor(ctx context.Context, userID string, groupIDs []string) ([]*domain.ChatMessage, error)
	RecentDeletions(ctx context.Context, userID string, groupIDs []string, since time.Time) ([]*domain.ChatMessage, error)
	Conversation(ctx context.Context, conversationID, requesterID string, limit int64) ([]*domain.ChatMessage, error)
}
