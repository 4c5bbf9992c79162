package entity

import "time"

type RoomStatus string

const (
	RoomStatusPending RoomStatus = "pending"
	RoomStatusActive  RoomStatus = "active"
	RoomStatusClosed  RoomStatus = "closed"
)

func (s RoomStatus) Valid() bool {
	switch s {
	case RoomStatusPending, RoomStatusActive, RoomStatusClosed:
		return true
	}
	return false
}

type RoomCategory string

const (
	CategoryGeneral   RoomCategory = "general"
	CategoryTechnical RoomCategory = "technical"
	CategoryMedical   RoomCategory = "medical"
	CategoryBilling   RoomCategory = "billing"
	CategoryOther     RoomCategory = "other"
)

func (c RoomCategory) Valid() bool {
	switch c {
	case CategoryGeneral, CategoryTechnical, CategoryMedical, CategoryBilling, CategoryOther:
		return true
	}
	return false
}

type RoomPriority string

const (
	PriorityLow    RoomPriority = "low"
	PriorityMedium RoomPriority = "medium"
	PriorityHigh   RoomPriority = "high"
	PriorityUrgent RoomPriority = "urgent"
)

func (p RoomPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type ParticipantRole string

const (
	ParticipantCustomer ParticipantRole = "customer"
	ParticipantSupport  ParticipantRole = "support"
	ParticipantDoctor   ParticipantRole = "doctor"
)

func (r ParticipantRole) Valid() bool {
	switch r {
	case ParticipantCustomer, ParticipantSupport, ParticipantDoctor:
		return true
	}
	return false
}

// IsStaff reports whether the participant joined on the platform side of
// the conversation. A staff participant joining promotes a pending room.
func (r ParticipantRole) IsStaff() bool {
	return r == ParticipantSupport || r == ParticipantDoctor
}

// MaxSubjectLength bounds the room subject.
const MaxSubjectLength = 200

type Participant struct {
	UserID   string          `json:"user_id" firestore:"userId"`
	Role     ParticipantRole `json:"role" firestore:"role"`
	JoinedAt time.Time       `json:"joined_at" firestore:"joinedAt"`
	LastSeen time.Time       `json:"last_seen" firestore:"lastSeen"`
}

type RoomMetadata struct {
	Browser   string `json:"browser,omitempty" firestore:"browser,omitempty"`
	Device    string `json:"device,omitempty" firestore:"device,omitempty"`
	IPAddress string `json:"ip_address,omitempty" firestore:"ipAddress,omitempty"`
	UserAgent string `json:"user_agent,omitempty" firestore:"userAgent,omitempty"`
}

// ChatRoom is a support chat session. RoomID is the public opaque
// identifier used on the API; ID is the storage document key.
type ChatRoom struct {
	ID             string        `json:"-" firestore:"id"`
	RoomID         string        `json:"room_id" firestore:"roomId"`
	Subject        string        `json:"subject,omitempty" firestore:"subject,omitempty"`
	Category       RoomCategory  `json:"category" firestore:"category"`
	Priority       RoomPriority  `json:"priority" firestore:"priority"`
	Status         RoomStatus    `json:"status" firestore:"status"`
	Tags           []string      `json:"tags,omitempty" firestore:"tags,omitempty"`
	Metadata       RoomMetadata  `json:"metadata" firestore:"metadata"`
	Participants   []Participant `json:"participants" firestore:"participants"`
	ParticipantIDs []string      `json:"-" firestore:"participantIds"`
	CreatedAt      time.Time     `json:"created_at" firestore:"createdAt"`
	UpdatedAt      time.Time     `json:"updated_at" firestore:"updatedAt"`
	ClosedAt       *time.Time    `json:"closed_at,omitempty" firestore:"closedAt,omitempty"`
	LastMessageAt  time.Time     `json:"last_message_at" firestore:"lastMessageAt"`
}

func (r *ChatRoom) IsClosed() bool {
	return r.Status == RoomStatusClosed
}

func (r *ChatRoom) HasParticipant(userID string) bool {
	return r.Participant(userID) != nil
}

func (r *ChatRoom) Participant(userID string) *Participant {
	for i := range r.Participants {
		if r.Participants[i].UserID == userID {
			return &r.Participants[i]
		}
	}
	return nil
}

// AddParticipant appends a participant unless the user is already present.
// Returns true when the list changed. A staff participant joining a pending
// room promotes it to active.
func (r *ChatRoom) AddParticipant(userID string, role ParticipantRole, now time.Time) bool {
	if r.HasParticipant(userID) {
		return false
	}
	r.Participants = append(r.Participants, Participant{
		UserID:   userID,
		Role:     role,
		JoinedAt: now,
		LastSeen: now,
	})
	r.ParticipantIDs = append(r.ParticipantIDs, userID)
	if r.Status == RoomStatusPending && role.IsStaff() {
		r.Status = RoomStatusActive
	}
	return true
}

// TouchLastSeen refreshes a participant's lastSeen. Returns false when the
// user is not a participant.
func (r *ChatRoom) TouchLastSeen(userID string, now time.Time) bool {
	p := r.Participant(userID)
	if p == nil {
		return false
	}
	p.LastSeen = now
	return true
}

// TouchLastMessage advances lastMessageAt. The value never moves backwards.
func (r *ChatRoom) TouchLastMessage(now time.Time) {
	if now.After(r.LastMessageAt) {
		r.LastMessageAt = now
	}
}

// Close marks the room closed. Closing is terminal; callers must check
// IsClosed first, the method itself is unconditional.
func (r *ChatRoom) Close(now time.Time) {
	r.Status = RoomStatusClosed
	r.ClosedAt = &now
}
