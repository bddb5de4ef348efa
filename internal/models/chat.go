package models

import "encoding/json"

// AssistantRequest is the outbound payload for the platform chat endpoint
type AssistantRequest struct {
	Query          string   `json:"query"`           // The current user message
	ConversationID string   `json:"conversation_id"` // Stable id for the whole conversation
	ProductIDs     []string `json:"product_ids"`     // Product context attached to this turn
	Stream         bool     `json:"stream"`          // Line-framed streaming vs single JSON body
}

// AssistantResponse is the single-shot (non-streaming) chat response
type AssistantResponse struct {
	Response             string       `json:"response"`
	Products             []RawProduct `json:"products"`
	SuggestedUserQueries []string     `json:"suggested_user_queries"`
}

// Stream frame types. Each line of a streamed chat response decodes into a
// StreamFrame discriminated by Type.
const (
	FrameContent   = "content"
	FrameQuestions = "questions"
	FrameProducts  = "products"
	FrameComplete  = "complete"
)

// StreamFrame is one decoded line of a streamed chat response. Content holds
// a type-dependent payload: a string for content frames, a string array for
// question frames, a product array for product frames, nothing for complete.
type StreamFrame struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content,omitempty"`
}

// Text decodes the payload of a content frame.
func (f *StreamFrame) Text() (string, error) {
	var s string
	err := json.Unmarshal(f.Content, &s)
	return s, err
}

// Questions decodes the payload of a questions frame.
func (f *StreamFrame) Questions() ([]string, error) {
	var qs []string
	err := json.Unmarshal(f.Content, &qs)
	return qs, err
}

// Products decodes the payload of a products frame.
func (f *StreamFrame) Products() ([]RawProduct, error) {
	var ps []RawProduct
	err := json.Unmarshal(f.Content, &ps)
	return ps, err
}

// AutocompleteResult is one scored suggestion from the autocomplete endpoint
type AutocompleteResult struct {
	Data  map[string]interface{} `json:"data"`
	Score float64                `json:"score"`
}

// AutocompleteResponse is the body of the autocomplete endpoint
type AutocompleteResponse struct {
	Results []AutocompleteResult `json:"results"`
}

// BasicResponse is a generic status message payload
type BasicResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"` // "success" or "error"
}
