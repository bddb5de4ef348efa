package services

import (
	"context"
	"log"
	"sync"
	"time"
	"unicode/utf8"

	"shopping-assistant/internal/models"
)

const (
	// DefaultDebounce is how long the draft must sit unchanged before a
	// fetch fires.
	DefaultDebounce = 300 * time.Millisecond

	// MinQueryLength is the minimum draft length, in runes, that triggers
	// a fetch.
	MinQueryLength = 2
)

// AutocompleteService debounces draft-query changes and fetches suggestions
// for the most recent query once the draft settles. Queries shorter than the
// minimum clear the results immediately.
type AutocompleteService struct {
	client   PlatformClientInterface
	logger   *log.Logger
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending string
}

// NewAutocompleteService creates an autocomplete service with the default
// debounce window.
func NewAutocompleteService(client PlatformClientInterface, logger *log.Logger) *AutocompleteService {
	return &AutocompleteService{
		client:   client,
		logger:   logger,
		debounce: DefaultDebounce,
	}
}

// SetDebounce overrides the debounce window (tests use a short one)
func (s *AutocompleteService) SetDebounce(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debounce = d
}

// OnQueryChange registers the latest draft value. After the debounce window
// passes with no further change, deliver is called once with suggestions for
// the final value. Short or empty drafts cancel any pending fetch and
// deliver nil immediately so the dropdown clears.
func (s *AutocompleteService) OnQueryChange(ctx context.Context, query string, deliver func(query string, results []models.AutocompleteResult)) {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	if utf8.RuneCountInString(query) < MinQueryLength {
		s.pending = ""
		s.mu.Unlock()
		deliver(query, nil)
		return
	}

	s.pending = query
	s.timer = time.AfterFunc(s.debounce, func() {
		s.fire(ctx, query, deliver)
	})
	s.mu.Unlock()
}

// fire fetches suggestions if the query is still the most recent one
func (s *AutocompleteService) fire(ctx context.Context, query string, deliver func(string, []models.AutocompleteResult)) {
	s.mu.Lock()
	if s.pending != query {
		// A newer draft superseded this fetch
		s.mu.Unlock()
		return
	}
	s.pending = ""
	s.mu.Unlock()

	resp, err := s.client.Autocomplete(ctx, query)
	if err != nil {
		s.logger.Printf("autocomplete fetch failed for %q: %v", query, err)
		deliver(query, nil)
		return
	}
	deliver(query, resp.Results)
}

// Suggest fetches suggestions synchronously, bypassing the debounce. The
// HTTP surface uses this; the debounced path serves programmatic callers
// that feed keystrokes.
func (s *AutocompleteService) Suggest(ctx context.Context, query string) ([]models.AutocompleteResult, error) {
	if utf8.RuneCountInString(query) < MinQueryLength {
		return nil, nil
	}
	resp, err := s.client.Autocomplete(ctx, query)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}
