package services

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/mock"

	"shopping-assistant/internal/models"
)

// ============================================================================
// Test Helpers
// ============================================================================

func setupAutocomplete(client PlatformClientInterface) *AutocompleteService {
	service := NewAutocompleteService(client, log.New(os.Stdout, "[TEST] ", log.LstdFlags))
	service.SetDebounce(30 * time.Millisecond)
	return service
}

// deliveryRecorder collects debounced deliveries across goroutines
type deliveryRecorder struct {
	mu         sync.Mutex
	deliveries []delivery
	done       chan struct{}
}

type delivery struct {
	query   string
	results []models.AutocompleteResult
}

func newDeliveryRecorder() *deliveryRecorder {
	return &deliveryRecorder{done: make(chan struct{}, 8)}
}

func (r *deliveryRecorder) deliver(query string, results []models.AutocompleteResult) {
	r.mu.Lock()
	r.deliveries = append(r.deliveries, delivery{query: query, results: results})
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *deliveryRecorder) wait(t *testing.T) {
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for autocomplete delivery")
	}
}

func (r *deliveryRecorder) snapshot() []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]delivery(nil), r.deliveries...)
}

// ============================================================================
// Debounce Tests
// ============================================================================

func TestOnQueryChange_RapidEditsFetchOnceForFinalValue(t *testing.T) {
	client := new(MockPlatformClient)
	client.On("Autocomplete", mock.Anything, "running shoes").Return(&models.AutocompleteResponse{
		Results: []models.AutocompleteResult{{Score: 0.9}},
	}, nil).Once()

	service := setupAutocomplete(client)
	recorder := newDeliveryRecorder()

	// Five keystrokes well inside the debounce window
	ctx := context.Background()
	for _, draft := range []string{"ru", "run", "runn", "running s", "running shoes"} {
		service.OnQueryChange(ctx, draft, recorder.deliver)
		time.Sleep(2 * time.Millisecond)
	}

	recorder.wait(t)

	deliveries := recorder.snapshot()
	require.Len(t, deliveries, 1)
	assert.Equal(t, "running shoes", deliveries[0].query)
	assert.Len(t, deliveries[0].results, 1)
	client.AssertExpectations(t)
}

func TestOnQueryChange_ShortQueryClearsImmediately(t *testing.T) {
	client := new(MockPlatformClient)
	service := setupAutocomplete(client)
	recorder := newDeliveryRecorder()

	service.OnQueryChange(context.Background(), "r", recorder.deliver)

	recorder.wait(t)
	deliveries := recorder.snapshot()
	require.Len(t, deliveries, 1)
	assert.Equal(t, "r", deliveries[0].query)
	assert.Nil(t, deliveries[0].results)
	client.AssertNotCalled(t, "Autocomplete", mock.Anything, mock.Anything)
}

func TestOnQueryChange_ShortQueryCancelsPendingFetch(t *testing.T) {
	client := new(MockPlatformClient)
	service := setupAutocomplete(client)
	recorder := newDeliveryRecorder()

	ctx := context.Background()
	service.OnQueryChange(ctx, "running", recorder.deliver)
	service.OnQueryChange(ctx, "", recorder.deliver)

	recorder.wait(t)
	// Wait past the debounce window to catch a stray fetch
	time.Sleep(60 * time.Millisecond)

	deliveries := recorder.snapshot()
	require.Len(t, deliveries, 1)
	assert.Equal(t, "", deliveries[0].query)
	client.AssertNotCalled(t, "Autocomplete", mock.Anything, mock.Anything)
}

func TestOnQueryChange_FetchFailureDeliversNil(t *testing.T) {
	client := new(MockPlatformClient)
	client.On("Autocomplete", mock.Anything, "boots").Return(nil, errors.New("upstream down")).Once()

	service := setupAutocomplete(client)
	recorder := newDeliveryRecorder()

	service.OnQueryChange(context.Background(), "boots", recorder.deliver)

	recorder.wait(t)
	deliveries := recorder.snapshot()
	require.Len(t, deliveries, 1)
	assert.Nil(t, deliveries[0].results)
}

// ============================================================================
// Synchronous Suggest Tests
// ============================================================================

func TestSuggest_MinimumLength(t *testing.T) {
	client := new(MockPlatformClient)
	service := setupAutocomplete(client)

	results, err := service.Suggest(context.Background(), "a")
	require.NoError(t, err)
	assert.Nil(t, results)
	client.AssertNotCalled(t, "Autocomplete", mock.Anything, mock.Anything)
}

func TestSuggest_MinimumLengthCountsRunes(t *testing.T) {
	client := new(MockPlatformClient)
	client.On("Autocomplete", mock.Anything, "運動").Return(&models.AutocompleteResponse{
		Results: []models.AutocompleteResult{{Score: 0.7}},
	}, nil).Once()

	service := setupAutocomplete(client)

	// One rune, three bytes: below the minimum
	results, err := service.Suggest(context.Background(), "靴")
	require.NoError(t, err)
	assert.Nil(t, results)

	// Two runes: at the minimum
	results, err = service.Suggest(context.Background(), "運動")
	require.NoError(t, err)
	assert.Len(t, results, 1)
	client.AssertExpectations(t)
}

func TestOnQueryChange_SingleRuneClearsLikeShortQuery(t *testing.T) {
	client := new(MockPlatformClient)
	service := setupAutocomplete(client)
	recorder := newDeliveryRecorder()

	service.OnQueryChange(context.Background(), "靴", recorder.deliver)

	recorder.wait(t)
	deliveries := recorder.snapshot()
	require.Len(t, deliveries, 1)
	assert.Nil(t, deliveries[0].results)
	client.AssertNotCalled(t, "Autocomplete", mock.Anything, mock.Anything)
}

func TestSuggest_ReturnsResults(t *testing.T) {
	client := new(MockPlatformClient)
	client.On("Autocomplete", mock.Anything, "sn").Return(&models.AutocompleteResponse{
		Results: []models.AutocompleteResult{{Score: 0.5}, {Score: 0.4}},
	}, nil).Once()

	service := setupAutocomplete(client)

	results, err := service.Suggest(context.Background(), "sn")
	require.NoError(t, err)
	assert.Len(t, results, 2)
	client.AssertExpectations(t)
}
