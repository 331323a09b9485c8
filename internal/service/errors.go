package service

import (
	"errors"
	"fmt"
)

var (
	ErrReaderNil            = errors.New("reader is nil")
	ErrFileRequired         = errors.New("no PDF file provided")
	ErrInvalidName          = errors.New("invalid file name")
	ErrNotFound             = errors.New("PDF file not found")
	ErrInvalidPDF           = errors.New("file is not a valid PDF")
	ErrInvalidPageSelection = errors.New("invalid page selection")
)

// Kind classifies a service error for callers that must map failures to a response.
type Kind int

const (
	// KindIO covers storage and index failures and anything unclassified.
	KindIO Kind = iota
	// KindClientInput is a request the caller must change before retrying.
	KindClientInput
	// KindNotFound means the named document is not in the store.
	KindNotFound
	// KindPDFProcessing means the stored bytes could not be processed as a PDF.
	KindPDFProcessing
)

func (k Kind) String() string {
	switch k {
	case KindClientInput:
		return "client_input"
	case KindNotFound:
		return "not_found"
	case KindPDFProcessing:
		return "pdf_processing"
	default:
		return "io"
	}
}

// KindOf returns the Kind of err. A nil error has no meaningful kind and reports KindIO.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrFileRequired),
		errors.Is(err, ErrInvalidName),
		errors.Is(err, ErrInvalidPageSelection):
		return KindClientInput
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidPDF):
		return KindPDFProcessing
	default:
		return KindIO
	}
}

// PageSelectionError describes why a page selection was rejected.
// It matches ErrInvalidPageSelection with errors.Is.
type PageSelectionError struct {
	// Position is the 0-based index of the offending entry, or -1 when the selection as a whole is rejected.
	Position  int
	Page      int
	PageCount int
	Reason    string
}

func (e *PageSelectionError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("%s: %s", ErrInvalidPageSelection, e.Reason)
	}
	return fmt.Sprintf("%s: page %d at position %d %s (document has %d pages)",
		ErrInvalidPageSelection, e.Page, e.Position, e.Reason, e.PageCount)
}

func (e *PageSelectionError) Unwrap() error {
	return ErrInvalidPageSelection
}
