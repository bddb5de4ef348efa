package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"shopping-assistant/internal/models"
	"shopping-assistant/internal/services"
)

// SessionHandler handles HTTP requests for chat sessions
type SessionHandler struct {
	sessions *services.SessionService
	presets  *services.PresetService
	logger   *log.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *services.SessionService, presets *services.PresetService, logger *log.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		presets:  presets,
		logger:   logger,
	}
}

// Request/response bodies

type CreateSessionRequest struct {
	Stream bool `json:"stream"`
}

type SessionResponse struct {
	SessionID      string           `json:"session_id"`
	ConversationID string           `json:"conversation_id"`
	Stream         bool             `json:"stream"`
	Messages       []models.Message `json:"messages"`
	Products       []models.Product `json:"products"`
}

type SendMessageRequest struct {
	Text       string   `json:"text"`
	ProductIDs []string `json:"product_ids,omitempty"`
}

type SendPresetRequest struct {
	PresetID string `json:"preset_id"`
}

type ProductContextRequest struct {
	ProductIDs []string `json:"product_ids"`
}

// CreateSession handles new-session requests
// @Summary Create a chat session
// @Description Starts a new conversation with a fresh conversation id
// @Tags sessions
// @Accept json
// @Produce json
// @Param session body CreateSessionRequest false "Session options"
// @Success 201 {object} SessionResponse
// @Router /api/v1/sessions [post]
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var reqBody CreateSessionRequest
	if r.Body != nil {
		// An empty body means defaults, not an error
		_ = json.NewDecoder(r.Body).Decode(&reqBody)
	}

	session := h.sessions.CreateSession(reqBody.Stream)
	h.logger.Printf("session created: %s (stream: %v)", session.ID(), reqBody.Stream)

	sendJSON(w, h.logger, http.StatusCreated, h.sessionResponse(session))
}

// GetSession returns the transcript and product context of a session
// @Summary Get a chat session
// @Description Returns the full transcript and attached product context
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SessionResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/sessions/{id} [get]
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}
	sendJSON(w, h.logger, http.StatusOK, h.sessionResponse(session))
}

// DeleteSession ends a session
// @Summary Delete a chat session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.BasicResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/sessions/{id} [delete]
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	if err := h.sessions.DeleteSession(sessionID); err != nil {
		sendError(w, h.logger, http.StatusNotFound, err.Error())
		return
	}
	sendJSON(w, h.logger, http.StatusOK, models.BasicResponse{
		Message: "session deleted",
		Status:  "success",
	})
}

// ClearSession starts a new chat on an existing session
// @Summary Clear a chat session
// @Description Empties the transcript and product context and rotates the conversation id
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SessionResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/sessions/{id}/clear [post]
func (h *SessionHandler) ClearSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}
	session.Clear()
	sendJSON(w, h.logger, http.StatusOK, h.sessionResponse(session))
}

// SendMessage sends a user message and waits for the assistant turn
// @Summary Send a message
// @Description Appends a user/assistant pair and returns it once the assistant reply is terminal
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param message body SendMessageRequest true "Message"
// @Success 200 {object} models.MessagePair
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/sessions/{id}/messages [post]
func (h *SessionHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}

	var reqBody SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		sendError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	pair, sent := session.SendMessage(r.Context(), reqBody.Text, reqBody.ProductIDs)
	if !sent {
		sendError(w, h.logger, http.StatusBadRequest, "Message text is required")
		return
	}

	sendJSON(w, h.logger, http.StatusOK, pair)
}

// SendPreset fires a preset prompt into the session
// @Summary Send a preset prompt
// @Description Sends a catalog FAQ prompt with the same contract as a typed message
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param preset body SendPresetRequest true "Preset"
// @Success 200 {object} models.MessagePair
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/sessions/{id}/preset [post]
func (h *SessionHandler) SendPreset(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}

	var reqBody SendPresetRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		sendError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	preset, found := h.presets.Get(reqBody.PresetID)
	if !found {
		sendError(w, h.logger, http.StatusBadRequest, "Unknown preset: "+reqBody.PresetID)
		return
	}

	pair, sent := session.SendPreset(r.Context(), preset.Prompt)
	if !sent {
		sendError(w, h.logger, http.StatusBadRequest, "Preset has no prompt text")
		return
	}

	sendJSON(w, h.logger, http.StatusOK, pair)
}

// AddProducts attaches products to the session context
// @Summary Attach products to the conversation
// @Description Loads the given products concurrently; unresolvable ids are skipped
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param products body ProductContextRequest true "Product ids"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/sessions/{id}/products [post]
func (h *SessionHandler) AddProducts(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}

	var reqBody ProductContextRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		sendError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	session.LoadProductContext(r.Context(), reqBody.ProductIDs)
	sendJSON(w, h.logger, http.StatusOK, h.sessionResponse(session))
}

// RemoveProduct detaches one product from the session context
// @Summary Detach a product from the conversation
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Param pid path string true "Product ID"
// @Success 200 {object} SessionResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/sessions/{id}/products/{pid} [delete]
func (h *SessionHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}

	session.RemoveProduct(mux.Vars(r)["pid"])
	sendJSON(w, h.logger, http.StatusOK, h.sessionResponse(session))
}

// ListPresets returns the preset catalog, ranked when a query is present
// @Summary List FAQ presets
// @Description Returns the catalog; with ?query= the entries are ranked by relevance to the draft
// @Tags presets
// @Produce json
// @Param query query string false "Draft query to rank against"
// @Success 200 {array} services.RankedPreset
// @Router /api/v1/presets [get]
func (h *SessionHandler) ListPresets(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	sendJSON(w, h.logger, http.StatusOK, h.presets.Rank(query))
}

func (h *SessionHandler) resolveSession(w http.ResponseWriter, r *http.Request) (*services.ChatSession, bool) {
	sessionID := mux.Vars(r)["id"]
	session, err := h.sessions.GetSession(sessionID)
	if err != nil {
		sendError(w, h.logger, http.StatusNotFound, err.Error())
		return nil, false
	}
	return session, true
}

func (h *SessionHandler) sessionResponse(session *services.ChatSession) SessionResponse {
	return SessionResponse{
		SessionID:      session.ID(),
		ConversationID: session.ConversationID(),
		Stream:         session.StreamMode(),
		Messages:       session.Messages(),
		Products:       session.SelectedProducts(),
	}
}
