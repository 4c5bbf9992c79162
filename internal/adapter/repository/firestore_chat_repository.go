package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"dermacare/internal/domain/entity"
	"dermacare/internal/domain/repository"
	"dermacare/pkg/errors"
	"dermacare/pkg/logger"
)

const (
	roomsCollection    = "chat_rooms"
	messagesCollection = "chat_messages"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) CreateRoomWithMessage(ctx context.Context, room *entity.ChatRoom, initial *entity.ChatMessage) error {
	if room.ID == "" {
		room.ID = uuid.New().String()
	}
	if initial.ID == "" {
		initial.ID = uuid.New().String()
	}
	initial.RoomID = room.ID

	now := time.Now()
	room.CreatedAt = now
	room.UpdatedAt = now

	roomRef := r.client.Collection(roomsCollection).Doc(room.ID)
	messageRef := r.client.Collection(messagesCollection).Doc(initial.ID)

	// Room and its opening system message land together or not at all.
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Set(roomRef, room); err != nil {
			return err
		}
		return tx.Set(messageRef, initial)
	})
	if err != nil {
		return errors.Internal("Failed to create chat room", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetRoomByRoomID(ctx context.Context, roomID string) (*entity.ChatRoom, error) {
	iter := r.client.Collection(roomsCollection).Where("roomId", "==", roomID).Limit(1).Documents(ctx)
	doc, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, errors.NotFound("Chat room", nil)
		}
		return nil, errors.Internal("Failed to get chat room", err)
	}

	var room entity.ChatRoom
	if err := doc.DataTo(&room); err != nil {
		return nil, errors.Internal("Failed to parse chat room data", err)
	}
	room.ID = doc.Ref.ID

	return &room, nil
}

func (r *firestoreChatRepository) UpdateRoomParticipants(ctx context.Context, room *entity.ChatRoom) error {
	room.UpdatedAt = time.Now()

	_, err := r.client.Collection(roomsCollection).Doc(room.ID).Update(ctx, []firestore.Update{
		{Path: "participants", Value: room.Participants},
		{Path: "participantIds", Value: room.ParticipantIDs},
		{Path: "status", Value: room.Status},
		{Path: "updatedAt", Value: room.UpdatedAt},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Chat room", err)
		}
		return errors.Internal("Failed to update chat room participants", err)
	}

	return nil
}

func (r *firestoreChatRepository) CloseRoom(ctx context.Context, room *entity.ChatRoom, closing *entity.ChatMessage) error {
	if closing.ID == "" {
		closing.ID = uuid.New().String()
	}
	closing.RoomID = room.ID

	roomRef := r.client.Collection(roomsCollection).Doc(room.ID)
	messageRef := r.client.Collection(messagesCollection).Doc(closing.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(roomRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Chat room", err)
			}
			return err
		}

		var current entity.ChatRoom
		if err := doc.DataTo(&current); err != nil {
			return err
		}
		// Closing is terminal; a racing second close must not move closedAt.
		if current.Status == entity.RoomStatusClosed {
			return errors.Conflict("Chat room is already closed")
		}

		if err := tx.Update(roomRef, []firestore.Update{
			{Path: "status", Value: entity.RoomStatusClosed},
			{Path: "closedAt", Value: *room.ClosedAt},
			{Path: "updatedAt", Value: time.Now()},
		}); err != nil {
			return err
		}
		return tx.Set(messageRef, closing)
	})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			return appErr
		}
		return errors.Internal("Failed to close chat room", err)
	}

	return nil
}

func (r *firestoreChatRepository) ListActiveRoomsByUser(ctx context.Context, userID string) ([]*entity.ChatRoom, error) {
	query := r.client.Collection(roomsCollection).
		Where("participantIds", "array-contains", userID).
		Where("status", "in", []string{string(entity.RoomStatusActive), string(entity.RoomStatusPending)}).
		OrderBy("lastMessageAt", firestore.Desc)

	iter := query.Documents(ctx)
	var rooms []*entity.ChatRoom

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while listing rooms for user %s: %v", userID, err)
			return nil, errors.Internal("Failed to list chat rooms", err)
		}

		var room entity.ChatRoom
		if err := doc.DataTo(&room); err != nil {
			logger.Warn("Skipping malformed chat room %s: %v", doc.Ref.ID, err)
			continue
		}
		room.ID = doc.Ref.ID
		rooms = append(rooms, &room)
	}

	return rooms, nil
}

func (r *firestoreChatRepository) CreateMessage(ctx context.Context, message *entity.ChatMessage) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	now := time.Now()
	message.CreatedAt = now
	message.UpdatedAt = now

	roomRef := r.client.Collection(roomsCollection).Doc(message.RoomID)
	messageRef := r.client.Collection(messagesCollection).Doc(message.ID)

	// The message write and the room's lastMessageAt advance are one
	// transaction; lastMessageAt never moves backwards.
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(roomRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Chat room", err)
			}
			return err
		}

		var room entity.ChatRoom
		if err := doc.DataTo(&room); err != nil {
			return err
		}

		if err := tx.Set(messageRef, message); err != nil {
			return err
		}
		if message.CreatedAt.After(room.LastMessageAt) {
			return tx.Update(roomRef, []firestore.Update{
				{Path: "lastMessageAt", Value: message.CreatedAt},
				{Path: "updatedAt", Value: message.CreatedAt},
			})
		}
		return nil
	})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			return appErr
		}
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetMessageByID(ctx context.Context, id string) (*entity.ChatMessage, error) {
	doc, err := r.client.Collection(messagesCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var message entity.ChatMessage
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	message.ID = doc.Ref.ID

	return &message, nil
}

func (r *firestoreChatRepository) ListRoomMessages(ctx context.Context, roomID string, limit int, before time.Time) ([]*entity.ChatMessage, error) {
	query := r.client.Collection(messagesCollection).
		Where("roomId", "==", roomID).
		OrderBy("createdAt", firestore.Desc)

	if !before.IsZero() {
		query = query.Where("createdAt", "<", before)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	var messages []*entity.ChatMessage

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while listing messages for room %s: %v", roomID, err)
			return nil, errors.Internal("Failed to list messages", err)
		}

		var message entity.ChatMessage
		if err := doc.DataTo(&message); err != nil {
			logger.Warn("Skipping malformed message %s: %v", doc.Ref.ID, err)
			continue
		}
		message.ID = doc.Ref.ID
		messages = append(messages, &message)
	}

	return messages, nil
}

func (r *firestoreChatRepository) MarkMessageRead(ctx context.Context, messageID, userID string, at time.Time) error {
	messageRef := r.client.Collection(messagesCollection).Doc(messageID)

	// Read-modify-write inside a transaction so two concurrent readers
	// cannot clobber each other's receipts.
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(messageRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Message", err)
			}
			return err
		}

		var message entity.ChatMessage
		if err := doc.DataTo(&message); err != nil {
			return err
		}

		if !message.MarkReadBy(userID, at) {
			return nil // already marked as read
		}

		return tx.Update(messageRef, []firestore.Update{
			{Path: "readBy", Value: message.ReadBy},
			{Path: "status", Value: message.Status},
			{Path: "updatedAt", Value: at},
		})
	})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			return appErr
		}
		return errors.Internal("Failed to update message read status", err)
	}

	return nil
}

func (r *firestoreChatRepository) UpdateMessageContent(ctx context.Context, message *entity.ChatMessage) error {
	_, err := r.client.Collection(messagesCollection).Doc(message.ID).Update(ctx, []firestore.Update{
		{Path: "content", Value: message.Content},
		{Path: "type", Value: message.Type},
		{Path: "metadata", Value: message.Metadata},
		{Path: "updatedAt", Value: message.UpdatedAt},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Message", err)
		}
		return errors.Internal("Failed to update message", err)
	}

	return nil
}
