package handler

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"dermacare/internal/domain/entity"
	"dermacare/internal/usecase"
	"dermacare/pkg/errors"
	"dermacare/pkg/response"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type createRoomRequest struct {
	Subject  string   `json:"subject" validate:"omitempty,max=200"`
	Category string   `json:"category" validate:"omitempty,oneof=general technical medical billing other"`
	Priority string   `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Tags     []string `json:"tags,omitempty"`
}

type sendMessageRequest struct {
	RoomID      string              `json:"room_id" validate:"required"`
	Content     string              `json:"content" validate:"required_without=Attachments,max=5000"`
	Type        string              `json:"type" validate:"omitempty,oneof=text image file system typing read"`
	ReplyTo     string              `json:"reply_to,omitempty"`
	Mentions    []string            `json:"mentions,omitempty"`
	Attachments []attachmentRequest `json:"attachments,omitempty" validate:"omitempty,dive"`
}

type attachmentRequest struct {
	Type      string `json:"type" validate:"required,oneof=image file link"`
	URL       string `json:"url" validate:"required,url"`
	Name      string `json:"name,omitempty"`
	Size      int64  `json:"size,omitempty" validate:"omitempty,gte=0"`
	MimeType  string `json:"mime_type,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

type markReadRequest struct {
	MessageIDs []string `json:"message_ids" validate:"required,min=1,dive,required"`
}

type editMessageRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}

func (r attachmentRequest) toEntity() entity.Attachment {
	return entity.Attachment{
		Type:      entity.AttachmentType(r.Type),
		URL:       r.URL,
		Name:      r.Name,
		Size:      r.Size,
		MimeType:  r.MimeType,
		Thumbnail: r.Thumbnail,
	}
}

// CreateRoom opens a new chat session for the authenticated user.
func (h *ChatHandler) CreateRoom(c echo.Context) error {
	var req createRoomRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	room, err := h.chatUseCase.CreateRoom(c.Request().Context(), userID, usecase.CreateRoomInput{
		Subject:  req.Subject,
		Category: entity.RoomCategory(req.Category),
		Priority: entity.RoomPriority(req.Priority),
		Tags:     req.Tags,
		Metadata: entity.RoomMetadata{
			IPAddress: c.RealIP(),
			UserAgent: c.Request().UserAgent(),
		},
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, room)
}

// GetActiveRooms lists pending and active rooms the user participates in.
func (h *ChatHandler) GetActiveRooms(c echo.Context) error {
	userID := c.Get("uid").(string)

	rooms, err := h.chatUseCase.ListActiveRooms(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, rooms)
}

// CloseRoom terminates a chat session.
func (h *ChatHandler) CloseRoom(c echo.Context) error {
	roomID := c.Param("roomId")
	userID := c.Get("uid").(string)

	if err := h.chatUseCase.CloseRoom(c.Request().Context(), userID, roomID); err != nil {
		return response.Error(c, err)
	}

	return response.Message(c, "Chat room closed successfully")
}

// JoinRoom adds the acting staff user to a room. Doctors join with the
// doctor role, everyone else on the platform side joins as support.
func (h *ChatHandler) JoinRoom(c echo.Context) error {
	roomID := c.Param("roomId")
	user := c.Get("user").(*entity.User)

	role := entity.ParticipantSupport
	if user.Role == entity.RoleDoctor {
		role = entity.ParticipantDoctor
	}

	room, err := h.chatUseCase.JoinRoom(c.Request().Context(), user.ID, role, roomID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, room)
}

// UpdateLastSeen refreshes the caller's lastSeen marker in a room.
func (h *ChatHandler) UpdateLastSeen(c echo.Context) error {
	roomID := c.Param("roomId")
	userID := c.Get("uid").(string)

	if err := h.chatUseCase.UpdateLastSeen(c.Request().Context(), userID, roomID); err != nil {
		return response.Error(c, err)
	}

	return response.Message(c, "Last seen updated")
}

// SendMessage appends a message to a room.
func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	attachments := make([]entity.Attachment, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		attachments = append(attachments, a.toEntity())
	}

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), userID, usecase.SendMessageInput{
		RoomID:      req.RoomID,
		Content:     req.Content,
		Type:        entity.MessageType(req.Type),
		ReplyTo:     req.ReplyTo,
		Mentions:    req.Mentions,
		Attachments: attachments,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// GetHistory returns a room's messages newest first. The optional `before`
// query parameter (RFC 3339) bounds results to strictly older messages.
func (h *ChatHandler) GetHistory(c echo.Context) error {
	roomID := c.Param("roomId")
	userID := c.Get("uid").(string)

	limit := 0
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			return response.Error(c, errors.Validation("limit must be a non-negative integer", err))
		}
		limit = parsed
	}

	var before time.Time
	if beforeStr := c.QueryParam("before"); beforeStr != "" {
		parsed, err := time.Parse(time.RFC3339, beforeStr)
		if err != nil {
			return response.Error(c, errors.Validation("before must be an RFC 3339 timestamp", err))
		}
		before = parsed
	}

	messages, err := h.chatUseCase.GetHistory(c.Request().Context(), userID, roomID, limit, before)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

// MarkRead records read receipts for a batch of messages.
func (h *ChatHandler) MarkRead(c echo.Context) error {
	var req markReadRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	result, err := h.chatUseCase.MarkRead(c.Request().Context(), userID, req.MessageIDs)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}

// EditMessage replaces the text of a message the caller sent.
func (h *ChatHandler) EditMessage(c echo.Context) error {
	messageID := c.Param("id")

	var req editMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	message, err := h.chatUseCase.EditMessage(c.Request().Context(), userID, messageID, req.Content)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, message)
}

// AddAttachment appends an attachment to a message the caller sent.
func (h *ChatHandler) AddAttachment(c echo.Context) error {
	messageID := c.Param("id")

	var req attachmentRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	message, err := h.chatUseCase.AddAttachment(c.Request().Context(), userID, messageID, req.toEntity())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, message)
}
