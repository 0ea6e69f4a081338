// Package pdfdoc loads source PDFs into workspace documents using pdfcpu.
package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrEmptyDocument is returned for PDFs without any page.
var ErrEmptyDocument = errors.New("pdf has no pages")

// NewConfiguration returns the pdfcpu configuration used for reading
// user supplied files, with relaxed validation.
func NewConfiguration() *model.Configuration {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return cfg
}

// Document is a validated source PDF held in memory.
type Document struct {
	data     []byte
	numPages int
	closed   bool
}

// FromBytes validates data and counts its pages. The bytes are copied so
// the caller may reuse its buffer.
func FromBytes(data []byte) (*Document, error) {
	stored := bytes.Clone(data)
	numPages, err := api.PageCount(bytes.NewReader(stored), NewConfiguration())
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}
	if numPages == 0 {
		return nil, ErrEmptyDocument
	}
	slog.Debug("Loaded source document.", "size", len(stored), "pageCount", numPages)
	return &Document{data: stored, numPages: numPages}, nil
}

func (d *Document) NumPages() int { return d.numPages }

// Bytes returns the raw PDF, or nil once the document is closed.
func (d *Document) Bytes() []byte { return d.data }

// Close drops the PDF bytes. Closing twice is harmless.
func (d *Document) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.data = nil
	return nil
}

// Optimize rewrites data with duplicate resources and unused objects
// removed.
func Optimize(data []byte) ([]byte, error) {
	var out bytes.Buffer
	if err := api.Optimize(bytes.NewReader(data), &out, NewConfiguration()); err != nil {
		return nil, fmt.Errorf("failed to optimize pdf: %w", err)
	}
	return out.Bytes(), nil
}
