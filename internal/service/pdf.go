package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pdfapi/internal/model"
	"pdfapi/internal/pdf"
	"pdfapi/internal/repository"
	"pdfapi/internal/storage"
)

// DefaultMaxSelectedPages bounds a page selection when Options leaves it unset.
const DefaultMaxSelectedPages = 1000

// PDFService defines the use cases behind the upload, retrieval and extraction endpoints.
type PDFService interface {
	// Upload stores the content verbatim under a new name and records it in the index.
	// The bytes are not checked to be a PDF. A size of 0 is rejected with ErrFileRequired.
	Upload(ctx context.Context, r io.Reader, size int64) (*model.Document, error)

	// Open resolves a bare filename and returns its content. The caller must close the reader.
	Open(ctx context.Context, filename string) (io.ReadCloser, storage.ObjectInfo, error)

	// ExtractPages builds a new stored PDF from the given 1-based pages of the document at filePath.
	// Pages are copied in the given order and may repeat.
	ExtractPages(ctx context.Context, filePath string, pages []int) (*model.Document, error)
}

// Options tunes a PDFService.
type Options struct {
	MaxSelectedPages int
}

// pdfService is a concrete implementation of PDFService.
type pdfService struct {
	store    storage.Storage
	repo     repository.DocumentRepository
	proc     pdf.Processor
	maxPages int
	tracer   trace.Tracer
	newID    func() string
}

// NewPDFService constructs a new PDFService.
func NewPDFService(store storage.Storage, repo repository.DocumentRepository, proc pdf.Processor, opts Options) PDFService {
	maxPages := opts.MaxSelectedPages
	if maxPages <= 0 {
		maxPages = DefaultMaxSelectedPages
	}
	return &pdfService{
		store:    store,
		repo:     repo,
		proc:     proc,
		maxPages: maxPages,
		tracer:   otel.Tracer("pdfapi/internal/service"),
		newID:    uuid.NewString,
	}
}

func (s *pdfService) Upload(ctx context.Context, r io.Reader, size int64) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	if size == 0 {
		return nil, ErrFileRequired
	}

	id := s.newID()
	return s.save(ctx, id, uploadName(id), r, size)
}

func (s *pdfService) Open(ctx context.Context, filename string) (io.ReadCloser, storage.ObjectInfo, error) {
	if err := validateName(filename); err != nil {
		return nil, storage.ObjectInfo{}, err
	}

	doc, err := s.resolve(ctx, filename)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}

	exists, err := s.store.Exists(ctx, doc.StoragePath)
	if err != nil {
		return nil, storage.ObjectInfo{}, fmt.Errorf("check storage: %w", err)
	}
	if !exists {
		return nil, storage.ObjectInfo{}, ErrNotFound
	}

	rc, info, err := s.store.Get(ctx, doc.StoragePath)
	if err != nil {
		// Removed between the existence check and the read.
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, storage.ObjectInfo{}, ErrNotFound
		}
		return nil, storage.ObjectInfo{}, fmt.Errorf("read storage: %w", err)
	}
	return rc, info, nil
}

func (s *pdfService) ExtractPages(ctx context.Context, filePath string, pages []int) (doc *model.Document, err error) {
	ctx, span := s.tracer.Start(ctx, "PDFService.ExtractPages", trace.WithAttributes(
		attribute.String("pdf.source_path", filePath),
		attribute.Int("pdf.selected_pages", len(pages)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, KindOf(err).String())
		}
		span.End()
	}()

	name, err := NameFromPath(filePath)
	if err != nil {
		return nil, err
	}
	if err := s.checkSelectionSize(pages); err != nil {
		return nil, err
	}

	src, err := s.load(ctx, name)
	if err != nil {
		return nil, err
	}

	pageCount, err := s.proc.PageCount(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPDF, err)
	}
	span.SetAttributes(attribute.Int("pdf.source_page_count", pageCount))

	if err := checkPageRange(pages, pageCount); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := s.proc.Collect(bytes.NewReader(src), &out, pages); err != nil {
		if errors.Is(err, pdf.ErrInvalidPDF) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPDF, err)
		}
		return nil, fmt.Errorf("collect pages: %w", err)
	}

	id := s.newID()
	doc, err = s.save(ctx, id, extractedName(id), &out, int64(out.Len()))
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("pdf.output", doc.Filename))
	return doc, nil
}

// save puts r into the store under name and records it in the index,
// deleting the object again if the index write fails.
func (s *pdfService) save(ctx context.Context, id, name string, r io.Reader, size int64) (*model.Document, error) {
	objInfo, err := s.store.Put(ctx, name, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: ContentTypePDF,
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	doc := &model.Document{
		ID:          id,
		Filename:    name,
		StoragePath: objInfo.Key,
		Size:        objInfo.Size,
		ContentType: ContentTypePDF,
		CreatedAt:   time.Now().UTC(),
	}

	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		if delErr := s.store.Delete(ctx, objInfo.Key); delErr != nil {
			return nil, fmt.Errorf("index save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("index save failed: %w", err)
	}
	return stored, nil
}

func (s *pdfService) resolve(ctx context.Context, filename string) (*model.Document, error) {
	doc, err := s.repo.FindByFilename(ctx, filename)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("resolve %s: %w", filename, err)
	}
	return doc, nil
}

// load reads a whole stored document into memory; the PDF toolkit needs random access.
func (s *pdfService) load(ctx context.Context, filename string) ([]byte, error) {
	doc, err := s.resolve(ctx, filename)
	if err != nil {
		return nil, err
	}

	rc, _, err := s.store.Get(ctx, doc.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read storage: %w", err)
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read storage: %w", err)
	}
	return b, nil
}

func (s *pdfService) checkSelectionSize(pages []int) error {
	if len(pages) == 0 {
		return &PageSelectionError{Position: -1, Reason: "no pages selected"}
	}
	if len(pages) > s.maxPages {
		return &PageSelectionError{
			Position: -1,
			Reason:   fmt.Sprintf("%d pages selected, at most %d allowed", len(pages), s.maxPages),
		}
	}
	return nil
}

// checkPageRange requires every page to lie in [1, pageCount]. Duplicates are allowed.
func checkPageRange(pages []int, pageCount int) error {
	for i, pg := range pages {
		if pg < 1 || pg > pageCount {
			return &PageSelectionError{
				Position:  i,
				Page:      pg,
				PageCount: pageCount,
				Reason:    "is out of range",
			}
		}
	}
	return nil
}
