package services

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"

	"shopping-assistant/internal/models"
)

// maxFrameSize bounds a single stream line. Frames carry at most a few
// product records, so 1MB is generous.
const maxFrameSize = 1 << 20

// ErrStreamTruncated is returned when the stream ends before a complete frame
var ErrStreamTruncated = errors.New("stream ended before complete frame")

// StreamSink receives the effects of decoded frames, in arrival order.
type StreamSink interface {
	// OnContent is called once per content frame with the running
	// accumulated text.
	OnContent(accumulated string)

	// OnComplete is called exactly once, for the terminal frame, with the
	// final text and the buffered product/question suggestions.
	OnComplete(text string, products []models.Product, questions []string)
}

// StreamIngester assembles an assistant reply from newline-delimited JSON
// frames. Lines are reassembled across chunk boundaries, so a frame split by
// the transport still decodes; a genuinely malformed line is logged and
// skipped. Product and question frames replace pending buffers that are only
// applied to the sink at the terminal frame.
type StreamIngester struct {
	logger *log.Logger
}

// NewStreamIngester creates a stream ingester
func NewStreamIngester(logger *log.Logger) *StreamIngester {
	return &StreamIngester{logger: logger}
}

// Ingest consumes the stream until a complete frame or a read failure.
// Frames are processed strictly in arrival order. After the complete frame
// the rest of the stream is ignored. A read error, or end of stream without
// a complete frame, is returned to the caller; the sink sees no terminal
// event in that case.
func (si *StreamIngester) Ingest(body io.Reader, sink StreamSink) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), maxFrameSize)

	var accumulated strings.Builder
	var pendingProducts []models.Product
	var pendingQuestions []string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var frame models.StreamFrame
		if err := json.Unmarshal([]byte(line), &frame); err != nil {
			si.logger.Printf("skipping malformed stream line: %v", err)
			continue
		}

		switch frame.Type {
		case models.FrameContent:
			text, err := frame.Text()
			if err != nil {
				si.logger.Printf("skipping content frame with bad payload: %v", err)
				continue
			}
			accumulated.WriteString(text)
			sink.OnContent(accumulated.String())

		case models.FrameQuestions:
			questions, err := frame.Questions()
			if err != nil {
				si.logger.Printf("skipping questions frame with bad payload: %v", err)
				continue
			}
			pendingQuestions = questions

		case models.FrameProducts:
			raws, err := frame.Products()
			if err != nil {
				si.logger.Printf("skipping products frame with bad payload: %v", err)
				continue
			}
			products := make([]models.Product, 0, len(raws))
			for i := range raws {
				products = append(products, raws[i].Normalize())
			}
			pendingProducts = products

		case models.FrameComplete:
			sink.OnComplete(accumulated.String(), pendingProducts, pendingQuestions)
			return nil

		default:
			// Unknown frame types are ignored for forward compatibility
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}
	return ErrStreamTruncated
}
