package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopping-assistant/internal/models"
	"shopping-assistant/internal/services"
)

// ============================================================================
// Test Helpers
// ============================================================================

// fakePlatform answers chat and product calls with canned data
type fakePlatform struct {
	chatErr error
}

func (f *fakePlatform) Chat(ctx context.Context, req *models.AssistantRequest) (*models.AssistantResponse, error) {
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	return &models.AssistantResponse{
		Response:             "Happy to help with that.",
		SuggestedUserQueries: []string{"Anything else?"},
	}, nil
}

func (f *fakePlatform) ChatStream(ctx context.Context, req *models.AssistantRequest) (io.ReadCloser, error) {
	return nil, errors.New("streaming not wired in tests")
}

func (f *fakePlatform) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	return &models.Product{ID: productID, Title: "Product " + productID}, nil
}

func (f *fakePlatform) Autocomplete(ctx context.Context, query string) (*models.AutocompleteResponse, error) {
	return &models.AutocompleteResponse{}, nil
}

func (f *fakePlatform) HealthCheck(ctx context.Context) (bool, error) {
	return true, nil
}

func setupSessionRouter(t *testing.T, platform *fakePlatform) (*mux.Router, *services.SessionService) {
	logger := log.New(os.Stdout, "[TEST] ", log.LstdFlags)
	products := services.NewProductService(platform, nil, logger)
	sessions := services.NewSessionService(platform, products, nil, logger)
	presets := services.NewPresetService(nil, logger)

	handler := NewSessionHandler(sessions, presets, logger)

	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/sessions", handler.CreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", handler.GetSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", handler.DeleteSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/clear", handler.ClearSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/messages", handler.SendMessage).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/preset", handler.SendPreset).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/products", handler.AddProducts).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/products/{pid}", handler.RemoveProduct).Methods(http.MethodDelete)
	api.HandleFunc("/presets", handler.ListPresets).Methods(http.MethodGet)

	return router, sessions
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func createSession(t *testing.T, router *mux.Router) SessionResponse {
	recorder := doJSON(t, router, http.MethodPost, "/api/v1/sessions", CreateSessionRequest{})
	require.Equal(t, http.StatusCreated, recorder.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp
}

// ============================================================================
// Session Lifecycle Tests
// ============================================================================

func TestCreateAndGetSession(t *testing.T) {
	router, _ := setupSessionRouter(t, &fakePlatform{})

	created := createSession(t, router)
	assert.NotEmpty(t, created.ConversationID)
	assert.Empty(t, created.Messages)

	recorder := doJSON(t, router, http.MethodGet, "/api/v1/sessions/"+created.SessionID, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	var fetched SessionResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &fetched))
	assert.Equal(t, created.SessionID, fetched.SessionID)
}

func TestGetSession_UnknownID(t *testing.T) {
	router, _ := setupSessionRouter(t, &fakePlatform{})

	recorder := doJSON(t, router, http.MethodGet, "/api/v1/sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestDeleteSession(t *testing.T) {
	router, sessions := setupSessionRouter(t, &fakePlatform{})
	created := createSession(t, router)

	recorder := doJSON(t, router, http.MethodDelete, "/api/v1/sessions/"+created.SessionID, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 0, sessions.Count())

	recorder = doJSON(t, router, http.MethodDelete, "/api/v1/sessions/"+created.SessionID, nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestClearSession_RotatesConversationID(t *testing.T) {
	router, _ := setupSessionRouter(t, &fakePlatform{})
	created := createSession(t, router)

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+created.SessionID+"/clear", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var cleared SessionResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &cleared))
	assert.NotEqual(t, created.ConversationID, cleared.ConversationID)
	assert.Empty(t, cleared.Messages)
}

// ============================================================================
// Message Tests
// ============================================================================

func TestSendMessage_ReturnsCompletedPair(t *testing.T) {
	router, _ := setupSessionRouter(t, &fakePlatform{})
	created := createSession(t, router)

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+created.SessionID+"/messages",
		SendMessageRequest{Text: "do you have winter boots?"})
	require.Equal(t, http.StatusOK, recorder.Code)

	var pair models.MessagePair
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &pair))

	assert.Equal(t, models.SenderUser, pair.User.Sender)
	assert.Equal(t, "do you have winter boots?", pair.User.Text)
	assert.Equal(t, models.SenderAI, pair.Assistant.Sender)
	assert.False(t, pair.Assistant.IsTyping)
	assert.Equal(t, "Happy to help with that.", pair.Assistant.Text)
}

func TestSendMessage_EmptyTextRejected(t *testing.T) {
	router, _ := setupSessionRouter(t, &fakePlatform{})
	created := createSession(t, router)

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+created.SessionID+"/messages",
		SendMessageRequest{Text: "   "})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestSendMessage_PlatformFailureStillCompletesTurn(t *testing.T) {
	router, _ := setupSessionRouter(t, &fakePlatform{chatErr: errors.New("platform down")})
	created := createSession(t, router)

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+created.SessionID+"/messages",
		SendMessageRequest{Text: "hello"})
	require.Equal(t, http.StatusOK, recorder.Code)

	var pair models.MessagePair
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &pair))
	assert.False(t, pair.Assistant.IsTyping)
	assert.Equal(t, services.FallbackMessage, pair.Assistant.Text)
}

func TestSendPreset(t *testing.T) {
	router, _ := setupSessionRouter(t, &fakePlatform{})
	created := createSession(t, router)

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+created.SessionID+"/preset",
		SendPresetRequest{PresetID: "returns"})
	require.Equal(t, http.StatusOK, recorder.Code)

	var pair models.MessagePair
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &pair))
	assert.Equal(t, "What is your return policy?", pair.User.Text)
}

func TestSendPreset_UnknownID(t *testing.T) {
	router, _ := setupSessionRouter(t, &fakePlatform{})
	created := createSession(t, router)

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+created.SessionID+"/preset",
		SendPresetRequest{PresetID: "nope"})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

// ============================================================================
// Product Context Tests
// ============================================================================

func TestAddAndRemoveProducts(t *testing.T) {
	router, _ := setupSessionRouter(t, &fakePlatform{})
	created := createSession(t, router)

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+created.SessionID+"/products",
		ProductContextRequest{ProductIDs: []string{"p1", "p2"}})
	require.Equal(t, http.StatusOK, recorder.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Len(t, resp.Products, 2)

	recorder = doJSON(t, router, http.MethodDelete, "/api/v1/sessions/"+created.SessionID+"/products/p1", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "p2", resp.Products[0].ID)
}

// ============================================================================
// Preset Catalog Tests
// ============================================================================

func TestListPresets_RankedWithQuery(t *testing.T) {
	router, _ := setupSessionRouter(t, &fakePlatform{})

	recorder := doJSON(t, router, http.MethodGet, "/api/v1/presets?query=shipping+delivery+time", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var ranked []services.RankedPreset
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &ranked))
	require.NotEmpty(t, ranked)
	assert.Equal(t, "shipping", ranked[0].ID)
}
