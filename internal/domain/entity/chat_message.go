package entity

import "time"

type MessageType string

const (
	MessageText   MessageType = "text"
	MessageImage  MessageType = "image"
	MessageFile   MessageType = "file"
	MessageSystem MessageType = "system"
	MessageTyping MessageType = "typing"
	MessageRead   MessageType = "read"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageImage, MessageFile, MessageSystem, MessageTyping, MessageRead:
		return true
	}
	return false
}

type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
	MessageStatusFailed    MessageStatus = "failed"
)

func (s MessageStatus) Valid() bool {
	switch s {
	case MessageStatusSent, MessageStatusDelivered, MessageStatusRead, MessageStatusFailed:
		return true
	}
	return false
}

type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentFile  AttachmentType = "file"
	AttachmentLink  AttachmentType = "link"
)

func (t AttachmentType) Valid() bool {
	switch t {
	case AttachmentImage, AttachmentFile, AttachmentLink:
		return true
	}
	return false
}

// MaxMessageTextLength bounds message body text.
const MaxMessageTextLength = 5000

type Attachment struct {
	Type      AttachmentType `json:"type" firestore:"type"`
	URL       string         `json:"url" firestore:"url"`
	Name      string         `json:"name,omitempty" firestore:"name,omitempty"`
	Size      int64          `json:"size,omitempty" firestore:"size,omitempty"`
	MimeType  string         `json:"mime_type,omitempty" firestore:"mimeType,omitempty"`
	Thumbnail string         `json:"thumbnail,omitempty" firestore:"thumbnail,omitempty"`
}

type MessageContent struct {
	Text        string       `json:"text,omitempty" firestore:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty" firestore:"attachments,omitempty"`
}

type ReadReceipt struct {
	UserID string    `json:"user_id" firestore:"userId"`
	ReadAt time.Time `json:"read_at" firestore:"readAt"`
}

type MessageMetadata struct {
	IsEdited bool       `json:"is_edited" firestore:"isEdited"`
	EditedAt *time.Time `json:"edited_at,omitempty" firestore:"editedAt,omitempty"`
	ReplyTo  string     `json:"reply_to,omitempty" firestore:"replyTo,omitempty"`
	Mentions []string   `json:"mentions,omitempty" firestore:"mentions,omitempty"`
}

// ChatMessage belongs to exactly one room. RoomID references the room's
// storage key, not its public identifier.
type ChatMessage struct {
	ID        string          `json:"id" firestore:"id"`
	RoomID    string          `json:"room_id" firestore:"roomId"`
	SenderID  string          `json:"sender_id" firestore:"senderId"`
	Type      MessageType     `json:"type" firestore:"type"`
	Content   MessageContent  `json:"content" firestore:"content"`
	Status    MessageStatus   `json:"status" firestore:"status"`
	ReadBy    []ReadReceipt   `json:"read_by" firestore:"readBy"`
	Metadata  MessageMetadata `json:"metadata" firestore:"metadata"`
	CreatedAt time.Time       `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time       `json:"updated_at" firestore:"updatedAt"`
}

// NewSystemMessage builds a platform-authored message marking a lifecycle
// event, such as session open or close.
func NewSystemMessage(roomID, senderID, text string, now time.Time) *ChatMessage {
	return &ChatMessage{
		RoomID:    roomID,
		SenderID:  senderID,
		Type:      MessageSystem,
		Content:   MessageContent{Text: text},
		Status:    MessageStatusSent,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (m *ChatMessage) ReadByUser(userID string) bool {
	for _, r := range m.ReadBy {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// MarkReadBy appends a read receipt for the user and flips the message to
// read. Idempotent per user: a second call is a no-op and returns false.
func (m *ChatMessage) MarkReadBy(userID string, now time.Time) bool {
	if m.ReadByUser(userID) {
		return false
	}
	m.ReadBy = append(m.ReadBy, ReadReceipt{UserID: userID, ReadAt: now})
	m.Status = MessageStatusRead
	return true
}

// Edit replaces the body text and stamps the edit markers.
func (m *ChatMessage) Edit(text string, now time.Time) {
	m.Content.Text = text
	m.Metadata.IsEdited = true
	m.Metadata.EditedAt = &now
	m.UpdatedAt = now
}

// AddAttachment appends an attachment and retypes the message to match it.
func (m *ChatMessage) AddAttachment(att Attachment) {
	m.Content.Attachments = append(m.Content.Attachments, att)
	if att.Type == AttachmentImage {
		m.Type = MessageImage
	} else {
		m.Type = MessageFile
	}
}
