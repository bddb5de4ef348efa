package models

import (
	"time"
)

// Sender identifies who authored a chat message
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Message represents a single entry in a conversation transcript.
//
// An assistant message starts with IsTyping=true and an empty Text, then is
// mutated incrementally while a streamed reply is ingested. Once IsTyping
// flips to false the message is terminal and never mutated again. User
// messages are immutable from creation.
type Message struct {
	ID                 int64     `json:"id"`
	Text               string    `json:"text"`
	Sender             Sender    `json:"sender"`
	Timestamp          time.Time `json:"timestamp"`
	IsTyping           bool      `json:"is_typing"`
	SuggestedProducts  []Product `json:"suggested_products,omitempty"`
	SuggestedQuestions []string  `json:"suggested_questions,omitempty"`
	IncludedProducts   []Product `json:"included_products,omitempty"`
}

// Terminal reports whether the message will no longer be mutated.
// User messages are terminal from creation.
func (m *Message) Terminal() bool {
	return m.Sender == SenderUser || !m.IsTyping
}

// MessagePair is the user/assistant couple appended by a single send.
type MessagePair struct {
	User      Message `json:"user"`
	Assistant Message `json:"assistant"`
}
