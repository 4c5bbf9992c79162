package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dermacare/internal/domain/entity"
	"dermacare/internal/domain/repository"
	"dermacare/internal/infrastructure/ratelimit"
	"dermacare/pkg/errors"
	"dermacare/pkg/logger"
)

const (
	sessionStartedText = "Chat session started"
	sessionClosedText  = "Chat session closed"
)

type ChatUseCase struct {
	chatRepo        repository.ChatRepository
	userRepo        repository.UserRepository
	rateLimiter     *ratelimit.RateLimiter
	historyLimit    int
	historyMaxLimit int
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	historyLimit int,
	historyMaxLimit int,
) *ChatUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &ChatUseCase{
		chatRepo:        chatRepo,
		userRepo:        userRepo,
		rateLimiter:     rateLimiter,
		historyLimit:    historyLimit,
		historyMaxLimit: historyMaxLimit,
	}
}

type CreateRoomInput struct {
	Subject  string
	Category entity.RoomCategory
	Priority entity.RoomPriority
	Tags     []string
	Metadata entity.RoomMetadata
}

type SendMessageInput struct {
	RoomID      string
	Content     string
	Type        entity.MessageType
	ReplyTo     string
	Mentions    []string
	Attachments []entity.Attachment
}

type RoomResponse struct {
	*entity.ChatRoom
	InitialMessage *entity.ChatMessage `json:"initial_message,omitempty"`
}

type MessageResponse struct {
	*entity.ChatMessage
	Sender  *entity.UserSummary `json:"sender,omitempty"`
	ReplyTo *entity.ChatMessage `json:"reply_to_message,omitempty"`
}

type ActiveRoomResponse struct {
	*entity.ChatRoom
	ParticipantUsers []*entity.UserSummary `json:"participant_users,omitempty"`
}

type MarkReadResult struct {
	MarkedCount int      `json:"marked_count"`
	FailedIDs   []string `json:"failed_ids,omitempty"`
}

// CreateRoom opens a new chat session. The requester becomes the sole
// participant with the customer role, and the room starts out pending with
// one system message recording the session start.
func (uc *ChatUseCase) CreateRoom(ctx context.Context, userID string, input CreateRoomInput) (*RoomResponse, error) {
	allowed, waitTime := uc.rateLimiter.Allow(userID, "create_room")
	if !allowed {
		logger.Warn("CreateRoom rate limited: user %s must wait %v", userID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before opening another chat session")
	}

	if len(input.Subject) > entity.MaxSubjectLength {
		return nil, errors.Validation(fmt.Sprintf("Subject cannot exceed %d characters", entity.MaxSubjectLength), nil)
	}
	if input.Category == "" {
		input.Category = entity.CategoryGeneral
	}
	if !input.Category.Valid() {
		return nil, errors.Validation("Unknown room category", nil)
	}
	if input.Priority == "" {
		input.Priority = entity.PriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, errors.Validation("Unknown room priority", nil)
	}

	now := time.Now()
	room := &entity.ChatRoom{
		RoomID:        uuid.New().String(),
		Subject:       input.Subject,
		Category:      input.Category,
		Priority:      input.Priority,
		Status:        entity.RoomStatusPending,
		Tags:          input.Tags,
		Metadata:      input.Metadata,
		LastMessageAt: now,
	}
	room.AddParticipant(userID, entity.ParticipantCustomer, now)

	initial := entity.NewSystemMessage("", userID, sessionStartedText, now)

	if err := uc.chatRepo.CreateRoomWithMessage(ctx, room, initial); err != nil {
		logger.Error("CreateRoom: failed to persist room: %v", err)
		return nil, err
	}

	return &RoomResponse{
		ChatRoom:       room,
		InitialMessage: initial,
	}, nil
}

// JoinRoom adds a participant. Re-joining is a no-op, not an error. A staff
// participant joining a pending room activates it.
func (uc *ChatUseCase) JoinRoom(ctx context.Context, userID string, role entity.ParticipantRole, roomID string) (*entity.ChatRoom, error) {
	if !role.Valid() {
		return nil, errors.Validation("Unknown participant role", nil)
	}

	room, err := uc.chatRepo.GetRoomByRoomID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.IsClosed() {
		return nil, errors.Conflict("Chat room is closed")
	}

	if !room.AddParticipant(userID, role, time.Now()) {
		return room, nil
	}

	if err := uc.chatRepo.UpdateRoomParticipants(ctx, room); err != nil {
		logger.Error("JoinRoom: failed to persist participants for room %s: %v", room.RoomID, err)
		return nil, err
	}

	return room, nil
}

// SendMessage appends a message to a room and advances the room's
// lastMessageAt. The sender must be a participant and the room must be open.
func (uc *ChatUseCase) SendMessage(ctx context.Context, userID string, input SendMessageInput) (*MessageResponse, error) {
	allowed, waitTime := uc.rateLimiter.Allow(userID, "send_message")
	if !allowed {
		logger.Warn("SendMessage rate limited: user %s must wait %v", userID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message")
	}

	if input.Type == "" {
		input.Type = entity.MessageText
	}
	if !input.Type.Valid() {
		return nil, errors.Validation("Unknown message type", nil)
	}
	if len(input.Content) > entity.MaxMessageTextLength {
		return nil, errors.Validation(fmt.Sprintf("Message text cannot exceed %d characters", entity.MaxMessageTextLength), nil)
	}

	room, err := uc.chatRepo.GetRoomByRoomID(ctx, input.RoomID)
	if err != nil {
		return nil, err
	}
	if room.IsClosed() {
		return nil, errors.Conflict("Chat room is closed")
	}
	if !room.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant of this chat room", nil)
	}

	if input.ReplyTo != "" {
		replied, err := uc.chatRepo.GetMessageByID(ctx, input.ReplyTo)
		if err != nil {
			return nil, err
		}
		if replied.RoomID != room.ID {
			return nil, errors.BadRequest("Replied message belongs to a different chat room", nil)
		}
	}

	now := time.Now()
	message := &entity.ChatMessage{
		RoomID:   room.ID,
		SenderID: userID,
		Type:     input.Type,
		Content: entity.MessageContent{
			Text:        input.Content,
			Attachments: input.Attachments,
		},
		Status: entity.MessageStatusSent,
		Metadata: entity.MessageMetadata{
			ReplyTo:  input.ReplyTo,
			Mentions: input.Mentions,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.chatRepo.CreateMessage(ctx, message); err != nil {
		logger.Error("SendMessage: failed to persist message for room %s: %v", input.RoomID, err)
		return nil, err
	}

	return uc.resolveMessage(ctx, message, map[string]*entity.UserSummary{}), nil
}

// GetHistory returns a room's messages newest first, capped at the
// configured page size, optionally bounded to strictly before the cursor.
func (uc *ChatUseCase) GetHistory(ctx context.Context, userID, roomID string, limit int, before time.Time) ([]*MessageResponse, error) {
	room, err := uc.chatRepo.GetRoomByRoomID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(userID) {
		if err := uc.requireStaff(ctx, userID); err != nil {
			return nil, err
		}
	}

	if limit <= 0 {
		limit = uc.historyLimit
	}
	if limit > uc.historyMaxLimit {
		limit = uc.historyMaxLimit
	}

	messages, err := uc.chatRepo.ListRoomMessages(ctx, room.ID, limit, before)
	if err != nil {
		return nil, err
	}

	senders := map[string]*entity.UserSummary{}
	responses := make([]*MessageResponse, 0, len(messages))
	for _, message := range messages {
		responses = append(responses, uc.resolveMessage(ctx, message, senders))
	}

	return responses, nil
}

// MarkRead records a read receipt for each message. Messages are handled
// independently: one bad ID does not abort the rest, and re-reading an
// already-read message is a no-op.
func (uc *ChatUseCase) MarkRead(ctx context.Context, userID string, messageIDs []string) (*MarkReadResult, error) {
	if len(messageIDs) == 0 {
		return nil, errors.Validation("messageIds cannot be empty", nil)
	}

	now := time.Now()
	result := &MarkReadResult{}
	for _, id := range messageIDs {
		if err := uc.chatRepo.MarkMessageRead(ctx, id, userID, now); err != nil {
			logger.Warn("MarkRead: message %s for user %s: %v", id, userID, err)
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}
		result.MarkedCount++
	}

	return result, nil
}

// CloseRoom terminates a chat session. Closing is terminal: the room
// refuses further messages, joins and re-closes.
func (uc *ChatUseCase) CloseRoom(ctx context.Context, userID, roomID string) error {
	room, err := uc.chatRepo.GetRoomByRoomID(ctx, roomID)
	if err != nil {
		return err
	}
	if room.IsClosed() {
		return errors.Conflict("Chat room is already closed")
	}
	if !room.HasParticipant(userID) {
		if err := uc.requireStaff(ctx, userID); err != nil {
			return err
		}
	}

	now := time.Now()
	room.Close(now)
	closing := entity.NewSystemMessage(room.ID, userID, sessionClosedText, now)

	if err := uc.chatRepo.CloseRoom(ctx, room, closing); err != nil {
		logger.Error("CloseRoom: failed to close room %s: %v", roomID, err)
		return err
	}

	return nil
}

// ListActiveRooms returns the pending and active rooms the user
// participates in, most recently active first.
func (uc *ChatUseCase) ListActiveRooms(ctx context.Context, userID string) ([]*ActiveRoomResponse, error) {
	rooms, err := uc.chatRepo.ListActiveRoomsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	users := map[string]*entity.UserSummary{}
	responses := make([]*ActiveRoomResponse, 0, len(rooms))
	for _, room := range rooms {
		resp := &ActiveRoomResponse{ChatRoom: room}
		for _, p := range room.Participants {
			if summary := uc.lookupUser(ctx, p.UserID, users); summary != nil {
				resp.ParticipantUsers = append(resp.ParticipantUsers, summary)
			}
		}
		responses = append(responses, resp)
	}

	return responses, nil
}

// UpdateLastSeen refreshes the caller's lastSeen marker in a room.
func (uc *ChatUseCase) UpdateLastSeen(ctx context.Context, userID, roomID string) error {
	room, err := uc.chatRepo.GetRoomByRoomID(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.TouchLastSeen(userID, time.Now()) {
		return errors.Forbidden("You are not a participant of this chat room", nil)
	}

	return uc.chatRepo.UpdateRoomParticipants(ctx, room)
}

// EditMessage replaces a message's text. Only the sender may edit, and
// system messages are immutable.
func (uc *ChatUseCase) EditMessage(ctx context.Context, userID, messageID, newText string) (*entity.ChatMessage, error) {
	if len(newText) > entity.MaxMessageTextLength {
		return nil, errors.Validation(fmt.Sprintf("Message text cannot exceed %d characters", entity.MaxMessageTextLength), nil)
	}

	message, err := uc.chatRepo.GetMessageByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.SenderID != userID {
		return nil, errors.Forbidden("Only the sender can edit a message", nil)
	}
	if message.Type == entity.MessageSystem {
		return nil, errors.Forbidden("System messages cannot be edited", nil)
	}

	message.Edit(newText, time.Now())

	if err := uc.chatRepo.UpdateMessageContent(ctx, message); err != nil {
		return nil, err
	}

	return message, nil
}

// AddAttachment appends an attachment to an existing message; the message
// type follows the attachment type.
func (uc *ChatUseCase) AddAttachment(ctx context.Context, userID, messageID string, attachment entity.Attachment) (*entity.ChatMessage, error) {
	if !attachment.Type.Valid() {
		return nil, errors.Validation("Unknown attachment type", nil)
	}
	if attachment.URL == "" {
		return nil, errors.Validation("Attachment URL is required", nil)
	}

	message, err := uc.chatRepo.GetMessageByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.SenderID != userID {
		return nil, errors.Forbidden("Only the sender can attach files to a message", nil)
	}
	if message.Type == entity.MessageSystem {
		return nil, errors.Forbidden("System messages cannot carry attachments", nil)
	}

	message.AddAttachment(attachment)
	message.UpdatedAt = time.Now()

	if err := uc.chatRepo.UpdateMessageContent(ctx, message); err != nil {
		return nil, err
	}

	return message, nil
}

func (uc *ChatUseCase) requireStaff(ctx context.Context, userID string) error {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return errors.Forbidden("You are not a participant of this chat room", err)
	}
	if !user.Role.IsStaff() {
		return errors.Forbidden("You are not a participant of this chat room", nil)
	}
	return nil
}

func (uc *ChatUseCase) resolveMessage(ctx context.Context, message *entity.ChatMessage, cache map[string]*entity.UserSummary) *MessageResponse {
	resp := &MessageResponse{
		ChatMessage: message,
		Sender:      uc.lookupUser(ctx, message.SenderID, cache),
	}
	if message.Metadata.ReplyTo != "" {
		replied, err := uc.chatRepo.GetMessageByID(ctx, message.Metadata.ReplyTo)
		if err == nil {
			resp.ReplyTo = replied
		}
	}
	return resp
}

func (uc *ChatUseCase) lookupUser(ctx context.Context, userID string, cache map[string]*entity.UserSummary) *entity.UserSummary {
	if summary, ok := cache[userID]; ok {
		return summary
	}
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.Debug("Could not resolve user %s: %v", userID, err)
		cache[userID] = nil
		return nil
	}
	cache[userID] = user.Summary()
	return cache[userID]
}
