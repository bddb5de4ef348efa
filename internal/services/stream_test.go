package services

import (
	"errors"
	"io"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopping-assistant/internal/models"
)

// ============================================================================
// Test Helpers
// ============================================================================

type recordingSink struct {
	contents  []string
	completed bool
	text      string
	products  []models.Product
	questions []string
}

func (s *recordingSink) OnContent(accumulated string) {
	s.contents = append(s.contents, accumulated)
}

func (s *recordingSink) OnComplete(text string, products []models.Product, questions []string) {
	s.completed = true
	s.text = text
	s.products = products
	s.questions = questions
}

func testIngester() *StreamIngester {
	return NewStreamIngester(log.New(os.Stdout, "[TEST] ", log.LstdFlags))
}

// chunkedReader yields the input in fixed-size chunks so lines arrive split
// across reads.
type chunkedReader struct {
	data  []byte
	size  int
	index int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.index >= len(r.data) {
		return 0, io.EOF
	}
	end := r.index + r.size
	if end > len(r.data) {
		end = len(r.data)
	}
	n := copy(p, r.data[r.index:end])
	r.index += n
	return n, nil
}

// failingReader returns some data and then a read error
type failingReader struct {
	data string
	read bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.read {
		r.read = true
		return copy(p, r.data), nil
	}
	return 0, errors.New("connection reset")
}

// ============================================================================
// Ingest Tests
// ============================================================================

func TestStreamIngester_AccumulatesContent(t *testing.T) {
	body := `{"type":"content","content":"Hello "}` + "\n" +
		`{"type":"content","content":"world"}` + "\n" +
		`{"type":"complete"}` + "\n"

	sink := &recordingSink{}
	err := testIngester().Ingest(strings.NewReader(body), sink)
	require.NoError(t, err)

	assert.Equal(t, []string{"Hello ", "Hello world"}, sink.contents)
	assert.True(t, sink.completed)
	assert.Equal(t, "Hello world", sink.text)
	assert.Empty(t, sink.products)
	assert.Empty(t, sink.questions)
}

func TestStreamIngester_BuffersSuggestionsUntilComplete(t *testing.T) {
	body := `{"type":"content","content":"Try these."}` + "\n" +
		`{"type":"questions","content":["Is it waterproof?","Does it ship fast?"]}` + "\n" +
		`{"type":"products","content":[{"id":"p1","title":"Trail Shoe"},{"id":"p2","product_name":"Road Shoe"}]}` + "\n" +
		`{"type":"complete"}` + "\n"

	sink := &recordingSink{}
	err := testIngester().Ingest(strings.NewReader(body), sink)
	require.NoError(t, err)

	require.True(t, sink.completed)
	assert.Equal(t, "Try these.", sink.text)
	assert.Equal(t, []string{"Is it waterproof?", "Does it ship fast?"}, sink.questions)
	require.Len(t, sink.products, 2)
	assert.Equal(t, "Trail Shoe", sink.products[0].Title)
	// product_name resolves through normalization
	assert.Equal(t, "Road Shoe", sink.products[1].Title)
}

func TestStreamIngester_LaterBufferReplacesEarlier(t *testing.T) {
	body := `{"type":"questions","content":["old question"]}` + "\n" +
		`{"type":"questions","content":["new question"]}` + "\n" +
		`{"type":"complete"}` + "\n"

	sink := &recordingSink{}
	require.NoError(t, testIngester().Ingest(strings.NewReader(body), sink))
	assert.Equal(t, []string{"new question"}, sink.questions)
}

func TestStreamIngester_SkipsMalformedLines(t *testing.T) {
	body := `{"type":"content","content":"A"}` + "\n" +
		"not json\n" +
		`{"type":"content","content":"B"}` + "\n" +
		`{"type":"complete"}` + "\n"

	sink := &recordingSink{}
	err := testIngester().Ingest(strings.NewReader(body), sink)
	require.NoError(t, err)

	assert.Equal(t, "AB", sink.text)
	assert.True(t, sink.completed)
}

func TestStreamIngester_IgnoresUnknownFrames(t *testing.T) {
	body := `{"type":"content","content":"A"}` + "\n" +
		`{"type":"telemetry","content":{"ms":12}}` + "\n" +
		`{"type":"complete"}` + "\n"

	sink := &recordingSink{}
	require.NoError(t, testIngester().Ingest(strings.NewReader(body), sink))
	assert.Equal(t, "A", sink.text)
}

func TestStreamIngester_CompleteStopsIngestion(t *testing.T) {
	body := `{"type":"content","content":"kept"}` + "\n" +
		`{"type":"complete"}` + "\n" +
		`{"type":"content","content":"ignored"}` + "\n"

	sink := &recordingSink{}
	require.NoError(t, testIngester().Ingest(strings.NewReader(body), sink))

	assert.Equal(t, "kept", sink.text)
	// Nothing after the terminal frame is applied
	assert.Equal(t, []string{"kept"}, sink.contents)
}

func TestStreamIngester_ReassemblesSplitLines(t *testing.T) {
	body := `{"type":"content","content":"Hello "}` + "\n" +
		`{"type":"content","content":"world"}` + "\n" +
		`{"type":"complete"}` + "\n"

	// 7-byte reads guarantee every frame is split across chunk boundaries
	sink := &recordingSink{}
	err := testIngester().Ingest(&chunkedReader{data: []byte(body), size: 7}, sink)
	require.NoError(t, err)

	assert.Equal(t, "Hello world", sink.text)
	assert.True(t, sink.completed)
}

func TestStreamIngester_SkipsBlankLines(t *testing.T) {
	body := "\n\n" + `{"type":"content","content":"A"}` + "\n\n" + `{"type":"complete"}` + "\n"

	sink := &recordingSink{}
	require.NoError(t, testIngester().Ingest(strings.NewReader(body), sink))
	assert.Equal(t, "A", sink.text)
}

func TestStreamIngester_ReadErrorBeforeComplete(t *testing.T) {
	reader := &failingReader{data: `{"type":"content","content":"partial"}` + "\n"}

	sink := &recordingSink{}
	err := testIngester().Ingest(reader, sink)
	require.Error(t, err)
	assert.False(t, sink.completed)
	// Content seen before the failure was still applied
	assert.Equal(t, []string{"partial"}, sink.contents)
}

func TestStreamIngester_TruncatedStream(t *testing.T) {
	body := `{"type":"content","content":"never finished"}` + "\n"

	sink := &recordingSink{}
	err := testIngester().Ingest(strings.NewReader(body), sink)
	require.ErrorIs(t, err, ErrStreamTruncated)
	assert.False(t, sink.completed)
}
