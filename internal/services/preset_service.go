package services

import (
	"log"
	"sort"
	"strings"
)

// Preset is one entry of the FAQ catalog the widget can fire as a prompt
type Preset struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Prompt string `json:"prompt"`
}

// RankedPreset is a preset with its relevance to the current draft
type RankedPreset struct {
	Preset
	Relevance float64 `json:"relevance"`
}

// PresetService holds the FAQ catalog and ranks it against the user's draft
// so the widget can surface the closest questions while the user types.
type PresetService struct {
	presets   []Preset
	extractor *KeywordExtractor
	logger    *log.Logger

	// keyword sets per preset, computed once at construction
	keywords map[string]map[string]float64
}

// DefaultPresets is the built-in FAQ catalog
var DefaultPresets = []Preset{
	{ID: "shipping", Label: "Shipping times", Prompt: "How long does shipping usually take?"},
	{ID: "returns", Label: "Returns", Prompt: "What is your return policy?"},
	{ID: "sizing", Label: "Sizing help", Prompt: "How do I find the right size for me?"},
	{ID: "deals", Label: "Current deals", Prompt: "What are the best deals right now?"},
	{ID: "gift", Label: "Gift ideas", Prompt: "Can you suggest a good gift under 50 dollars?"},
}

// NewPresetService creates a preset service over the given catalog.
// An empty catalog falls back to DefaultPresets.
func NewPresetService(presets []Preset, logger *log.Logger) *PresetService {
	if len(presets) == 0 {
		presets = DefaultPresets
	}

	service := &PresetService{
		presets:   presets,
		extractor: NewKeywordExtractor(),
		logger:    logger,
		keywords:  make(map[string]map[string]float64),
	}

	for _, preset := range presets {
		kws, err := service.extractor.ExtractKeywords(preset.Label + " " + preset.Prompt)
		if err != nil {
			logger.Printf("keyword extraction failed for preset %s: %v", preset.ID, err)
			continue
		}
		set := make(map[string]float64, len(kws))
		for _, kw := range kws {
			set[kw.Word] = kw.Score
		}
		service.keywords[preset.ID] = set
	}

	return service
}

// List returns the catalog in definition order
func (s *PresetService) List() []Preset {
	out := make([]Preset, len(s.presets))
	copy(out, s.presets)
	return out
}

// Get resolves a preset by id
func (s *PresetService) Get(presetID string) (Preset, bool) {
	for _, preset := range s.presets {
		if preset.ID == presetID {
			return preset, true
		}
	}
	return Preset{}, false
}

// Rank orders the catalog by keyword overlap with the draft query. A blank
// query returns the catalog unranked with zero relevance.
func (s *PresetService) Rank(query string) []RankedPreset {
	ranked := make([]RankedPreset, 0, len(s.presets))

	query = strings.TrimSpace(query)
	if query == "" {
		for _, preset := range s.presets {
			ranked = append(ranked, RankedPreset{Preset: preset})
		}
		return ranked
	}

	queryKeywords, err := s.extractor.ExtractKeywords(query)
	if err != nil {
		s.logger.Printf("keyword extraction failed for query: %v", err)
		for _, preset := range s.presets {
			ranked = append(ranked, RankedPreset{Preset: preset})
		}
		return ranked
	}

	for _, preset := range s.presets {
		set := s.keywords[preset.ID]
		var relevance float64
		for _, kw := range queryKeywords {
			if weight, ok := set[kw.Word]; ok {
				relevance += kw.Score * weight
			}
		}
		ranked = append(ranked, RankedPreset{Preset: preset, Relevance: relevance})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Relevance > ranked[j].Relevance
	})

	return ranked
}
