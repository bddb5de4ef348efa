package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"shopping-assistant/internal/models"
)

// FallbackMessage is the fixed notice that replaces a pending assistant
// reply when the platform fails. One terminal message, no toast.
const FallbackMessage = "Sorry, the shopping assistant is unavailable right now. Please try again in a moment, or contact us if this keeps happening."

// PrefetchFunc enqueues product ids for background cache warming.
// Implementations must not block.
type PrefetchFunc func(productIDs []string)

// ChatSession owns one conversation: the ordered transcript, the attached
// product context and the exchange with the assistant platform. All state
// mutation happens under the session mutex; network I/O happens outside it.
type ChatSession struct {
	id             string
	conversationID string
	streamMode     bool

	mu               sync.Mutex
	messages         []models.Message
	selectedProducts []models.Product
	lastMessageID    int64
	createdAt        time.Time

	client   PlatformClientInterface
	products *ProductService
	ingester *StreamIngester
	prefetch PrefetchFunc
	logger   *log.Logger
}

// ID returns the registry key of the session
func (s *ChatSession) ID() string {
	return s.id
}

// ConversationID returns the id sent upstream with every message
func (s *ChatSession) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// StreamMode reports whether replies are requested as line-framed streams
func (s *ChatSession) StreamMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamMode
}

// SetStreamMode toggles how the next request is framed and accepted
func (s *ChatSession) SetStreamMode(stream bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streamMode = stream
}

// Messages returns a copy of the transcript in chat order
func (s *ChatSession) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// SelectedProducts returns a copy of the attached product context
func (s *ChatSession) SelectedProducts() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, len(s.selectedProducts))
	copy(out, s.selectedProducts)
	return out
}

// Clear starts a new chat: empty transcript, empty product context, fresh
// conversation id. A reply still in flight for an old message id lands as a
// no-op because the id no longer resolves.
func (s *ChatSession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.selectedProducts = nil
	s.conversationID = uuid.NewString()
}

// SendMessage appends a user/assistant message pair and drives the exchange
// with the platform until the assistant message is terminal. Empty text
// (after trimming) is a no-op and returns false. No error ever escapes:
// every failure path ends in the fixed fallback message.
func (s *ChatSession) SendMessage(ctx context.Context, text string, extraProductIDs []string) (*models.MessagePair, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, false
	}

	s.mu.Lock()
	included := make([]models.Product, len(s.selectedProducts))
	copy(included, s.selectedProducts)

	userMsg := models.Message{
		ID:               s.nextMessageIDLocked(),
		Text:             trimmed,
		Sender:           models.SenderUser,
		Timestamp:        time.Now(),
		IncludedProducts: included,
	}
	aiMsg := models.Message{
		ID:        s.nextMessageIDLocked(),
		Sender:    models.SenderAI,
		Timestamp: time.Now(),
		IsTyping:  true,
	}
	// Pair append is a single critical section: no observer ever sees the
	// user message without its assistant counterpart.
	s.messages = append(s.messages, userMsg, aiMsg)

	productIDs := dedupIDs(extraProductIDs, s.selectedProducts)
	conversationID := s.conversationID
	stream := s.streamMode
	s.mu.Unlock()

	req := &models.AssistantRequest{
		Query:          trimmed,
		ConversationID: conversationID,
		ProductIDs:     productIDs,
		Stream:         stream,
	}

	if stream {
		s.exchangeStreaming(ctx, req, aiMsg.ID)
	} else {
		s.exchangeSingle(ctx, req, aiMsg.ID)
	}

	return s.pairSnapshot(userMsg.ID, aiMsg.ID), true
}

// SendPreset sends a programmatically supplied prompt (FAQ click). Same
// pairing, streaming and fallback contract as SendMessage.
func (s *ChatSession) SendPreset(ctx context.Context, promptText string) (*models.MessagePair, bool) {
	return s.SendMessage(ctx, promptText, nil)
}

// LoadProductContext fetches the given products concurrently and attaches
// the ones that resolve. Ids already attached are skipped; per-id failures
// are logged and dropped. Partial success is the norm, so nothing is
// reported to the caller.
func (s *ChatSession) LoadProductContext(ctx context.Context, productIDs []string) {
	s.mu.Lock()
	var remaining []string
	for _, id := range productIDs {
		if id == "" || s.hasProductLocked(id) || containsID(remaining, id) {
			continue
		}
		remaining = append(remaining, id)
	}
	s.mu.Unlock()

	if len(remaining) == 0 {
		return
	}

	fetched := make([]*models.Product, len(remaining))
	var wg sync.WaitGroup
	for i, id := range remaining {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			product, err := s.products.GetProduct(ctx, id)
			if err != nil {
				s.logger.Printf("product context load failed for %s: %v", id, err)
				return
			}
			fetched[i] = product
		}(i, id)
	}
	wg.Wait()

	// Join once: a single state update regardless of fan-out size
	s.mu.Lock()
	for _, product := range fetched {
		if product == nil || s.hasProductLocked(product.ID) {
			continue
		}
		s.selectedProducts = append(s.selectedProducts, *product)
	}
	s.mu.Unlock()
}

// RemoveProduct detaches a product from the context. Unknown ids are a no-op.
func (s *ChatSession) RemoveProduct(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.selectedProducts {
		if s.selectedProducts[i].ID == productID {
			s.selectedProducts = append(s.selectedProducts[:i], s.selectedProducts[i+1:]...)
			return
		}
	}
}

// ============================================================================
// Exchange Paths
// ============================================================================

func (s *ChatSession) exchangeStreaming(ctx context.Context, req *models.AssistantRequest, targetID int64) {
	body, err := s.client.ChatStream(ctx, req)
	if err != nil {
		s.logger.Printf("chat stream failed: %v", err)
		s.applyFallback(targetID)
		return
	}
	defer body.Close()

	sink := &messageSink{session: s, targetID: targetID}
	if err := s.ingester.Ingest(body, sink); err != nil {
		s.logger.Printf("chat stream aborted: %v", err)
		s.applyFallback(targetID)
	}
}

func (s *ChatSession) exchangeSingle(ctx context.Context, req *models.AssistantRequest, targetID int64) {
	resp, err := s.client.Chat(ctx, req)
	if err != nil {
		s.logger.Printf("chat request failed: %v", err)
		s.applyFallback(targetID)
		return
	}

	products := make([]models.Product, 0, len(resp.Products))
	for i := range resp.Products {
		products = append(products, resp.Products[i].Normalize())
	}
	s.applyComplete(targetID, resp.Response, products, resp.SuggestedUserQueries)
}

// messageSink routes ingester events into one assistant message
type messageSink struct {
	session  *ChatSession
	targetID int64
}

func (ms *messageSink) OnContent(accumulated string) {
	ms.session.applyContent(ms.targetID, accumulated)
}

func (ms *messageSink) OnComplete(text string, products []models.Product, questions []string) {
	ms.session.applyComplete(ms.targetID, text, products, questions)
}

// ============================================================================
// Message State Transitions
// ============================================================================

// applyContent updates the running text of a still-typing assistant message.
// Missing ids and terminal messages are no-ops.
func (s *ChatSession) applyContent(targetID int64, accumulated string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg := s.findTypingLocked(targetID); msg != nil {
		msg.Text = accumulated
	}
}

// applyComplete moves an assistant message to its terminal state. The
// platform reuses the suggested product list as the included-product list of
// the reply, so both fields receive the same value.
func (s *ChatSession) applyComplete(targetID int64, text string, products []models.Product, questions []string) {
	s.mu.Lock()
	msg := s.findTypingLocked(targetID)
	if msg == nil {
		s.mu.Unlock()
		return
	}
	msg.Text = text
	msg.IsTyping = false
	msg.SuggestedProducts = products
	msg.SuggestedQuestions = questions
	msg.IncludedProducts = products
	s.mu.Unlock()

	if s.prefetch != nil && len(products) > 0 {
		ids := make([]string, 0, len(products))
		for i := range products {
			if products[i].ID != "" {
				ids = append(ids, products[i].ID)
			}
		}
		s.prefetch(ids)
	}
}

// applyFallback overwrites a still-typing assistant message with the fixed
// failure notice.
func (s *ChatSession) applyFallback(targetID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg := s.findTypingLocked(targetID); msg != nil {
		msg.Text = FallbackMessage
		msg.IsTyping = false
	}
}

// findTypingLocked resolves a message id to a mutable assistant message that
// has not yet reached terminal state. Returns nil for missing ids (the
// session may have been cleared underneath an in-flight reply) and for
// terminal messages (complete and errored are mutually exclusive).
func (s *ChatSession) findTypingLocked(targetID int64) *models.Message {
	for i := range s.messages {
		if s.messages[i].ID == targetID {
			if s.messages[i].Sender != models.SenderAI || !s.messages[i].IsTyping {
				return nil
			}
			return &s.messages[i]
		}
	}
	return nil
}

func (s *ChatSession) pairSnapshot(userID, aiID int64) *models.MessagePair {
	s.mu.Lock()
	defer s.mu.Unlock()
	pair := &models.MessagePair{}
	for i := range s.messages {
		switch s.messages[i].ID {
		case userID:
			pair.User = s.messages[i]
		case aiID:
			pair.Assistant = s.messages[i]
		}
	}
	return pair
}

// nextMessageIDLocked derives a wall-clock message id, bumped past the
// previous one so ids are strictly increasing within the session.
func (s *ChatSession) nextMessageIDLocked() int64 {
	id := time.Now().UnixMilli()
	if id <= s.lastMessageID {
		id = s.lastMessageID + 1
	}
	s.lastMessageID = id
	return id
}

func (s *ChatSession) hasProductLocked(productID string) bool {
	for i := range s.selectedProducts {
		if s.selectedProducts[i].ID == productID {
			return true
		}
	}
	return false
}

// ============================================================================
// Session Registry
// ============================================================================

// SessionService creates and tracks chat sessions for the HTTP surface
type SessionService struct {
	client   PlatformClientInterface
	products *ProductService
	ingester *StreamIngester
	prefetch PrefetchFunc
	logger   *log.Logger

	mu       sync.RWMutex
	sessions map[string]*ChatSession
}

// NewSessionService creates a session registry. prefetch may be nil.
func NewSessionService(client PlatformClientInterface, products *ProductService, prefetch PrefetchFunc, logger *log.Logger) *SessionService {
	return &SessionService{
		client:   client,
		products: products,
		ingester: NewStreamIngester(logger),
		prefetch: prefetch,
		logger:   logger,
		sessions: make(map[string]*ChatSession),
	}
}

// CreateSession starts a new conversation
func (ss *SessionService) CreateSession(streamMode bool) *ChatSession {
	session := &ChatSession{
		id:             uuid.NewString(),
		conversationID: uuid.NewString(),
		streamMode:     streamMode,
		createdAt:      time.Now(),
		client:         ss.client,
		products:       ss.products,
		ingester:       ss.ingester,
		prefetch:       ss.prefetch,
		logger:         ss.logger,
	}

	ss.mu.Lock()
	ss.sessions[session.id] = session
	ss.mu.Unlock()

	return session
}

// GetSession resolves a session id
func (ss *SessionService) GetSession(sessionID string) (*ChatSession, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	session, ok := ss.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	return session, nil
}

// DeleteSession removes a session from the registry
func (ss *SessionService) DeleteSession(sessionID string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if _, ok := ss.sessions[sessionID]; !ok {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	delete(ss.sessions, sessionID)
	return nil
}

// Count returns the number of live sessions
func (ss *SessionService) Count() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.sessions)
}

// ============================================================================
// Helpers
// ============================================================================

// dedupIDs merges explicit ids with the product-context ids, preserving
// first-seen order.
func dedupIDs(extra []string, selected []models.Product) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(extra)+len(selected))
	for _, id := range extra {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for i := range selected {
		id := selected[i].ID
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
