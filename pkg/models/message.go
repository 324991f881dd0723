package models

import (
	"time"
)

type MessageKind string

const (
	MessageKindText MessageKind = "text"
	MessageKindCall MessageKind = "call"
)

type CallType string

const (
	CallTypeAudio CallType = "audio"
	CallTypeVideo CallType = "video"
)

type CallStatus string

const (
	CallStatusAnswered CallStatus = "answered"
	CallStatusMissed   CallStatus = "missed"
)

// Message is a single direct message between two users. A conversation is
// the unordered pair (sender, receiver); the pair itself is immutable once
// the message is created.
type Message struct {
	ID           string      `json:"id" db:"id"`
	SenderID     string      `json:"sender_id" db:"sender_id"`
	ReceiverID   string      `json:"receiver_id" db:"receiver_id"`
	Kind         MessageKind `json:"kind" db:"kind"`
	Text         string      `json:"text,omitempty" db:"text"`
	ImageURL     *string     `json:"image_url,omitempty" db:"image_url"`
	AudioURL     *string     `json:"audio_url,omitempty" db:"audio_url"`
	VideoURL     *string     `json:"video_url,omitempty" db:"video_url"`
	CallType     *CallType   `json:"call_type,omitempty" db:"call_type"`
	CallStatus   *CallStatus `json:"call_status,omitempty" db:"call_status"`
	CallDuration int         `json:"call_duration,omitempty" db:"call_duration"`
	Seen         bool        `json:"seen" db:"seen"`
	IsDeleted    bool        `json:"is_deleted" db:"is_deleted"`
	DeletedFor   []string    `json:"deleted_for,omitempty" db:"deleted_for"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

// HasContent reports whether the message carries at least one content field.
func (m *Message) HasContent() bool {
	return m.Text != "" || m.ImageURL != nil || m.AudioURL != nil || m.VideoURL != nil
}

// DeletedForUser reports whether userID is in the message's delete-for-me set.
func (m *Message) DeletedForUser(userID string) bool {
	for _, id := range m.DeletedFor {
		if id == userID {
			return true
		}
	}
	return false
}

// InvolvesUser reports whether userID is the sender or the receiver.
func (m *Message) InvolvesUser(userID string) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// Redacted returns a placeholder copy with all content stripped, used for
// messages deleted for everyone. The pair, id and timestamp survive so
// clients can keep the thread position and render a "message removed" stub.
func (m *Message) Redacted() Message {
	return Message{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Kind:       m.Kind,
		Seen:       m.Seen,
		IsDeleted:  true,
		CreatedAt:  m.CreatedAt,
	}
}

// SendMessageRequest is the body of a send operation. Media fields are
// reference URLs already produced by the upload pipeline; the core never
// handles raw bytes.
type SendMessageRequest struct {
	Text     string  `json:"text,omitempty"`
	ImageURL *string `json:"image_url,omitempty"`
	AudioURL *string `json:"audio_url,omitempty"`
	VideoURL *string `json:"video_url,omitempty"`
}

// CallLogRequest records the outcome of a finished call as a thread entry.
type CallLogRequest struct {
	OtherUserID  string `json:"other_user_id"`
	CallType     string `json:"call_type"`
	CallStatus   string `json:"call_status"`
	CallDuration int    `json:"call_duration"`
	WasCaller    bool   `json:"was_caller"`
}

type ThreadResponse struct {
	Messages []Message `json:"messages"`
}

type MessageResponse struct {
	Message Message `json:"message"`
}
