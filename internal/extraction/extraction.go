// Package extraction turns uploaded document bytes into plain text for the
// risk engine and clause analyzer.
package extraction

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"
)

var (
	ErrExtraction  = errors.New("text extraction failed")
	ErrUnsupported = fmt.Errorf("%w: unsupported content type", ErrExtraction)
	ErrCorrupt     = fmt.Errorf("%w: malformed document", ErrExtraction)
	ErrTooLarge    = fmt.Errorf("%w: extracted text exceeds limit", ErrExtraction)
)

// Content types with a dedicated reader.
const (
	TypePDF  = "application/pdf"
	TypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	TypeJSON = "application/json"
	TypeZip  = "application/zip"
)

// Extractor dispatches on content type.
type Extractor struct {
	logger  *slog.Logger
	maxText int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxText sets the largest text, in bytes, Extract returns. Non-positive
// values keep DefaultMaxText.
func WithMaxText(n int64) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxText = int(n)
		}
	}
}

// New creates an Extractor.
func New(logger *slog.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		logger:  logger.With("system", "extraction"),
		maxText: DefaultMaxText,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the document text. An empty string means the document
// parsed but carried no text. Text longer than the configured limit fails
// with ErrTooLarge. Parameters on mimeType are ignored; an empty
// or octet-stream type is sniffed from the bytes.
func (e *Extractor) Extract(data []byte, mimeType string) (string, error) {
	mt := Normalize(mimeType, data)

	var (
		text string
		err  error
	)

	switch {
	case strings.HasPrefix(mt, "text/"), mt == TypeJSON:
		if len(data) > e.maxText {
			err = fmt.Errorf("%w: more than %d bytes", ErrTooLarge, e.maxText)
			break
		}
		text = strings.ToValidUTF8(string(data), "")
	case mt == TypeDOCX, mt == TypeZip:
		text, err = docxText(data, e.maxText)
	case mt == TypePDF:
		text, err = pdfText(data, e.maxText)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, mt)
	}
	if err != nil {
		e.logger.Warn("extraction failed", "content_type", mt, "size", len(data), "error", err)
		return "", err
	}

	e.logger.Debug("text extracted", "content_type", mt, "size", len(data), "chars", len(text))
	return text, nil
}

// Normalize strips parameters and lower-cases mimeType, sniffing data when
// the declared type is missing or generic.
func Normalize(mimeType string, data []byte) string {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil || mt == "" || mt == "application/octet-stream" {
		mt, _, _ = mime.ParseMediaType(http.DetectContentType(data))
	}
	return strings.ToLower(mt)
}
