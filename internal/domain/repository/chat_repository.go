package repository

import (
	"context"
	"time"

	"dermacare/internal/domain/entity"
)

type ChatRepository interface {
	// CreateRoomWithMessage persists a new room and its opening system
	// message as one atomic write.
	CreateRoomWithMessage(ctx context.Context, room *entity.ChatRoom, initial *entity.ChatMessage) error
	GetRoomByRoomID(ctx context.Context, roomID string) (*entity.ChatRoom, error)
	// UpdateRoomParticipants writes the participant list and any status
	// change that came with it.
	UpdateRoomParticipants(ctx context.Context, room *entity.ChatRoom) error
	// CloseRoom marks the room closed and appends the closing system
	// message atomically. Fails with CONFLICT if the room is already closed.
	CloseRoom(ctx context.Context, room *entity.ChatRoom, closing *entity.ChatMessage) error
	ListActiveRoomsByUser(ctx context.Context, userID string) ([]*entity.ChatRoom, error)

	// CreateMessage persists a message and advances the room's
	// lastMessageAt in the same transaction.
	CreateMessage(ctx context.Context, message *entity.ChatMessage) error
	GetMessageByID(ctx context.Context, id string) (*entity.ChatMessage, error)
	// ListRoomMessages returns messages for a room newest first, capped at
	// limit, optionally bounded to createdAt strictly before the cursor.
	ListRoomMessages(ctx context.Context, roomID string, limit int, before time.Time) ([]*entity.ChatMessage, error)
	// MarkMessageRead appends a read receipt for the user if absent.
	// Idempotent per user.
	MarkMessageRead(ctx context.Context, messageID, userID string, at time.Time) error
	// UpdateMessageContent writes body text, attachments, type and edit
	// markers of an existing message.
	UpdateMessageContent(ctx context.Context, message *entity.ChatMessage) error
}
