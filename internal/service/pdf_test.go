package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"

	"pdfapi/internal/model"
	"pdfapi/internal/pdf"
	pdfMocks "pdfapi/internal/pdf/mocks"
	repoMocks "pdfapi/internal/repository/mocks"
	"pdfapi/internal/storage"
	storeMocks "pdfapi/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testDeps struct {
	store *storeMocks.MockStorage
	repo  *repoMocks.MockDocumentRepository
	proc  *pdfMocks.MockProcessor
}

func newTestService(opts Options) (PDFService, testDeps) {
	d := testDeps{
		store: new(storeMocks.MockStorage),
		repo:  new(repoMocks.MockDocumentRepository),
		proc:  new(pdfMocks.MockProcessor),
	}
	return NewPDFService(d.store, d.repo, d.proc, opts), d
}

func (d testDeps) assertExpectations(t *testing.T) {
	t.Helper()
	d.store.AssertExpectations(t)
	d.repo.AssertExpectations(t)
	d.proc.AssertExpectations(t)
}

func echoKey(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
	return storage.ObjectInfo{Key: key, Size: opt.Size}
}

func isUploadKey(key string) bool {
	return strings.HasSuffix(key, ".pdf") && !strings.HasPrefix(key, "newPDF_") && validateName(key) == nil
}

func isExtractedKey(key string) bool {
	return strings.HasPrefix(key, "newPDF_") && strings.HasSuffix(key, ".pdf") && validateName(key) == nil
}

func TestPDFService_Upload(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		size       int64
		setupMocks func(d testDeps) io.Reader
		wantErr    error
		wantErrMsg string
	}{
		{
			name: "happy path",
			size: 11,
			setupMocks: func(d testDeps) io.Reader {
				r := strings.NewReader("hello world")
				d.store.On("Put", ctx, mock.MatchedBy(isUploadKey), r, storage.PutObjectOptions{
					Size:        11,
					ContentType: ContentTypePDF,
				}).Return(echoKey, nil)
				d.repo.On("Create", ctx, mock.MatchedBy(func(doc *model.Document) bool {
					return doc.ID != "" &&
						doc.Filename == doc.ID+".pdf" &&
						doc.StoragePath == doc.Filename &&
						doc.Size == 11 &&
						doc.ContentType == ContentTypePDF
				})).Return(&model.Document{ID: "gen-id", Filename: "gen-id.pdf"}, nil)
				return r
			},
		},
		{
			name: "validation error - nil reader",
			setupMocks: func(d testDeps) io.Reader {
				return nil
			},
			wantErr: ErrReaderNil,
		},
		{
			name: "validation error - empty file",
			size: 0,
			setupMocks: func(d testDeps) io.Reader {
				return strings.NewReader("")
			},
			wantErr: ErrFileRequired,
		},
		{
			name: "storage error",
			size: 5,
			setupMocks: func(d testDeps) io.Reader {
				r := strings.NewReader("hello")
				d.store.On("Put", ctx, mock.Anything, r, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("disk full"))
				return r
			},
			wantErrMsg: "upload to storage: disk full",
		},
		{
			name: "index error with successful rollback",
			size: 5,
			setupMocks: func(d testDeps) io.Reader {
				r := strings.NewReader("hello")
				d.store.On("Put", ctx, mock.Anything, r, mock.Anything).Return(echoKey, nil)
				d.repo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				d.store.On("Delete", ctx, mock.MatchedBy(isUploadKey)).Return(nil)
				return r
			},
			wantErrMsg: "index save failed: db fail",
		},
		{
			name: "index error with failed rollback",
			size: 5,
			setupMocks: func(d testDeps) io.Reader {
				r := strings.NewReader("hello")
				d.store.On("Put", ctx, mock.Anything, r, mock.Anything).Return(echoKey, nil)
				d.repo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				d.store.On("Delete", ctx, mock.Anything).Return(errors.New("delete fail"))
				return r
			},
			wantErrMsg: "rollback delete failed: delete fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newTestService(Options{})
			r := tt.setupMocks(d)

			doc, err := svc.Upload(ctx, r, tt.size)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, doc)
			case tt.wantErrMsg != "":
				assert.ErrorContains(t, err, tt.wantErrMsg)
				assert.Equal(t, KindIO, KindOf(err))
				assert.Nil(t, doc)
			default:
				require.NoError(t, err)
				assert.Equal(t, "gen-id", doc.ID)
			}
			d.assertExpectations(t)
		})
	}
}

func TestPDFService_Upload_EmptyFileTouchesNothing(t *testing.T) {
	svc, d := newTestService(Options{})

	_, err := svc.Upload(context.Background(), strings.NewReader(""), 0)

	assert.ErrorIs(t, err, ErrFileRequired)
	assert.Equal(t, KindClientInput, KindOf(err))
	d.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	d.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPDFService_Open(t *testing.T) {
	ctx := context.Background()
	indexed := &model.Document{Filename: "a.pdf", StoragePath: "a.pdf"}

	tests := []struct {
		name       string
		filename   string
		setupMocks func(d testDeps)
		wantKind   Kind
		wantErr    error
		wantBody   string
	}{
		{
			name:     "found",
			filename: "a.pdf",
			setupMocks: func(d testDeps) {
				d.repo.On("FindByFilename", ctx, "a.pdf").Return(indexed, nil)
				d.store.On("Exists", ctx, "a.pdf").Return(true, nil)
				d.store.On("Get", ctx, "a.pdf").
					Return(io.NopCloser(strings.NewReader("%PDF-1.4")), storage.ObjectInfo{Key: "a.pdf", Size: 8}, nil)
			},
			wantBody: "%PDF-1.4",
		},
		{
			name:       "traversal rejected",
			filename:   "../secret.pdf",
			setupMocks: func(d testDeps) {},
			wantKind:   KindClientInput,
			wantErr:    ErrInvalidName,
		},
		{
			name:     "not in index",
			filename: "a.pdf",
			setupMocks: func(d testDeps) {
				d.repo.On("FindByFilename", ctx, "a.pdf").Return(nil, sql.ErrNoRows)
			},
			wantKind: KindNotFound,
			wantErr:  ErrNotFound,
		},
		{
			name:     "index error",
			filename: "a.pdf",
			setupMocks: func(d testDeps) {
				d.repo.On("FindByFilename", ctx, "a.pdf").Return(nil, errors.New("db down"))
			},
			wantKind: KindIO,
		},
		{
			name:     "not in store",
			filename: "a.pdf",
			setupMocks: func(d testDeps) {
				d.repo.On("FindByFilename", ctx, "a.pdf").Return(indexed, nil)
				d.store.On("Exists", ctx, "a.pdf").Return(false, nil)
			},
			wantKind: KindNotFound,
			wantErr:  ErrNotFound,
		},
		{
			name:     "removed after existence check",
			filename: "a.pdf",
			setupMocks: func(d testDeps) {
				d.repo.On("FindByFilename", ctx, "a.pdf").Return(indexed, nil)
				d.store.On("Exists", ctx, "a.pdf").Return(true, nil)
				d.store.On("Get", ctx, "a.pdf").Return(nil, storage.ObjectInfo{}, storage.ErrObjectNotFound)
			},
			wantKind: KindNotFound,
			wantErr:  ErrNotFound,
		},
		{
			name:     "storage error",
			filename: "a.pdf",
			setupMocks: func(d testDeps) {
				d.repo.On("FindByFilename", ctx, "a.pdf").Return(indexed, nil)
				d.store.On("Exists", ctx, "a.pdf").Return(false, errors.New("permission denied"))
			},
			wantKind: KindIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newTestService(Options{})
			tt.setupMocks(d)

			rc, info, err := svc.Open(ctx, tt.filename)

			if tt.wantBody != "" {
				require.NoError(t, err)
				defer rc.Close()
				b, _ := io.ReadAll(rc)
				assert.Equal(t, tt.wantBody, string(b))
				assert.Equal(t, int64(8), info.Size)
			} else {
				assert.Error(t, err)
				assert.Nil(t, rc)
				assert.Equal(t, tt.wantKind, KindOf(err))
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
			}
			d.assertExpectations(t)
		})
	}
}

func TestPDFService_ExtractPages(t *testing.T) {
	source := &model.Document{Filename: "src.pdf", StoragePath: "src.pdf"}
	srcBody := func() io.ReadCloser { return io.NopCloser(strings.NewReader("%PDF-source")) }

	tests := []struct {
		name       string
		filePath   string
		pages      []int
		opts       Options
		setupMocks func(d testDeps)
		wantDoc    bool
		wantKind   Kind
		wantErr    error
	}{
		{
			name:     "happy path with public path",
			filePath: "uploads/src.pdf",
			pages:    []int{3, 1},
			setupMocks: func(d testDeps) {
				d.repo.On("FindByFilename", mock.Anything, "src.pdf").Return(source, nil)
				d.store.On("Get", mock.Anything, "src.pdf").Return(srcBody(), storage.ObjectInfo{}, nil)
				d.proc.On("PageCount", mock.Anything).Return(3, nil)
				d.proc.On("Collect", mock.Anything, mock.Anything, []int{3, 1}).
					Return(func(rs io.ReadSeeker, w io.Writer, pages []int) error {
						_, err := io.WriteString(w, "%PDF-out")
						return err
					})
				d.store.On("Put", mock.Anything, mock.MatchedBy(isExtractedKey), mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
					return opt.Size == 8 && opt.ContentType == ContentTypePDF
				})).Return(echoKey, nil)
				d.repo.On("Create", mock.Anything, mock.MatchedBy(func(doc *model.Document) bool {
					return isExtractedKey(doc.Filename) && doc.Size == 8
				})).Return(&model.Document{ID: "new-id", Filename: "newPDF_new-id.pdf"}, nil)
			},
			wantDoc: true,
		},
		{
			name:     "bare filename with duplicates",
			filePath: "src.pdf",
			pages:    []int{2, 2},
			setupMocks: func(d testDeps) {
				d.repo.On("FindByFilename", mock.Anything, "src.pdf").Return(source, nil)
				d.store.On("Get", mock.Anything, "src.pdf").Return(srcBody(), storage.ObjectInfo{}, nil)
				d.proc.On("PageCount", mock.Anything).Return(2, nil)
				d.proc.On("Collect", mock.Anything, mock.Anything, []int{2, 2}).Return(nil)
				d.store.On("Put", mock.Anything, mock.MatchedBy(isExtractedKey), mock.Anything, mock.Anything).Return(echoKey, nil)
				d.repo.On("Create", mock.Anything, mock.Anything).Return(&model.Document{ID: "new-id", Filename: "newPDF_new-id.pdf"}, nil)
			},
			wantDoc: true,
		},
		{
			name:       "empty selection",
			filePath:   "uploads/src.pdf",
			pages:      []int{},
			setupMocks: func(d testDeps) {},
			wantKind:   KindClientInput,
			wantErr:    ErrInvalidPageSelection,
		},
		{
			name:       "selection too long",
			filePath:   "uploads/src.pdf",
			pages:      []int{1, 1, 1},
			opts:       Options{MaxSelectedPages: 2},
			setupMocks: func(d testDeps) {},
			wantKind:   KindClientInput,
			wantErr:    ErrInvalidPageSelection,
		},
		{
			name:       "path traversal",
			filePath:   "uploads/../../etc/passwd",
			pages:      []int{1},
			setupMocks: func(d testDeps) {},
			wantKind:   KindClientInput,
			wantErr:    ErrInvalidName,
		},
		{
			name:     "source missing",
			filePath: "uploads/src.pdf",
			pages:    []int{1},
			setupMocks: func(d testDeps) {
				d.repo.On("FindByFilename", mock.Anything, "src.pdf").Return(source, nil)
				d.store.On("Get", mock.Anything, "src.pdf").Return(nil, storage.ObjectInfo{}, storage.ErrObjectNotFound)
			},
			wantKind: KindNotFound,
			wantErr:  ErrNotFound,
		},
		{
			name:     "source not a pdf",
			filePath: "uploads/src.pdf",
			pages:    []int{1},
			setupMocks: func(d testDeps) {
				d.repo.On("FindByFilename", mock.Anything, "src.pdf").Return(source, nil)
				d.store.On("Get", mock.Anything, "src.pdf").Return(srcBody(), storage.ObjectInfo{}, nil)
				d.proc.On("PageCount", mock.Anything).Return(0, pdf.ErrInvalidPDF)
			},
			wantKind: KindPDFProcessing,
			wantErr:  ErrInvalidPDF,
		},
		{
			name:     "page zero",
			filePath: "uploads/src.pdf",
			pages:    []int{1, 0},
			setupMocks: func(d testDeps) {
				d.repo.On("FindByFilename", mock.Anything, "src.pdf").Return(source, nil)
				d.store.On("Get", mock.Anything, "src.pdf").Return(srcBody(), storage.ObjectInfo{}, nil)
				d.proc.On("PageCount", mock.Anything).Return(3, nil)
			},
			wantKind: KindClientInput,
			wantErr:  ErrInvalidPageSelection,
		},
		{
			name:     "page beyond count",
			filePath: "uploads/src.pdf",
			pages:    []int{4},
			setupMocks: func(d testDeps) {
				d.repo.On("FindByFilename", mock.Anything, "src.pdf").Return(source, nil)
				d.store.On("Get", mock.Anything, "src.pdf").Return(srcBody(), storage.ObjectInfo{}, nil)
				d.proc.On("PageCount", mock.Anything).Return(3, nil)
			},
			wantKind: KindClientInput,
			wantErr:  ErrInvalidPageSelection,
		},
		{
			name:     "collect fails on broken pdf",
			filePath: "uploads/src.pdf",
			pages:    []int{1},
			setupMocks: func(d testDeps) {
				d.repo.On("FindByFilename", mock.Anything, "src.pdf").Return(source, nil)
				d.store.On("Get", mock.Anything, "src.pdf").Return(srcBody(), storage.ObjectInfo{}, nil)
				d.proc.On("PageCount", mock.Anything).Return(1, nil)
				d.proc.On("Collect", mock.Anything, mock.Anything, []int{1}).Return(pdf.ErrInvalidPDF)
			},
			wantKind: KindPDFProcessing,
			wantErr:  ErrInvalidPDF,
		},
		{
			name:     "output write fails",
			filePath: "uploads/src.pdf",
			pages:    []int{1},
			setupMocks: func(d testDeps) {
				d.repo.On("FindByFilename", mock.Anything, "src.pdf").Return(source, nil)
				d.store.On("Get", mock.Anything, "src.pdf").Return(srcBody(), storage.ObjectInfo{}, nil)
				d.proc.On("PageCount", mock.Anything).Return(1, nil)
				d.proc.On("Collect", mock.Anything, mock.Anything, []int{1}).Return(nil)
				d.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("disk full"))
			},
			wantKind: KindIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newTestService(tt.opts)
			tt.setupMocks(d)

			doc, err := svc.ExtractPages(context.Background(), tt.filePath, tt.pages)

			if tt.wantDoc {
				require.NoError(t, err)
				require.NotNil(t, doc)
				assert.Equal(t, "new-id", doc.ID)
			} else {
				assert.Nil(t, doc)
				assert.Equal(t, tt.wantKind, KindOf(err))
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
			}
			d.assertExpectations(t)
		})
	}
}

func TestPageSelectionError(t *testing.T) {
	err := checkPageRange([]int{1, 2, 7}, 3)

	var pse *PageSelectionError
	require.ErrorAs(t, err, &pse)
	assert.Equal(t, 2, pse.Position)
	assert.Equal(t, 7, pse.Page)
	assert.Equal(t, 3, pse.PageCount)
	assert.EqualError(t, err, "invalid page selection: page 7 at position 2 is out of range (document has 3 pages)")

	assert.NoError(t, checkPageRange([]int{3, 1, 3}, 3))
}

func TestNameFromPath(t *testing.T) {
	name, err := NameFromPath("uploads/abc.pdf")
	require.NoError(t, err)
	assert.Equal(t, "abc.pdf", name)

	name, err = NameFromPath("abc.pdf")
	require.NoError(t, err)
	assert.Equal(t, "abc.pdf", name)

	for _, p := range []string{"", "uploads/", "uploads/a/b.pdf", "../abc.pdf", "/etc/passwd", "other/abc.pdf"} {
		_, err := NameFromPath(p)
		assert.ErrorIs(t, err, ErrInvalidName, p)
	}

	assert.Equal(t, "uploads/abc.pdf", PublicPath("abc.pdf"))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindClientInput, KindOf(ErrFileRequired))
	assert.Equal(t, KindClientInput, KindOf(&PageSelectionError{Position: -1, Reason: "no pages selected"}))
	assert.Equal(t, KindNotFound, KindOf(errors.Join(errors.New("ctx"), ErrNotFound)))
	assert.Equal(t, KindPDFProcessing, KindOf(ErrInvalidPDF))
	assert.Equal(t, KindIO, KindOf(errors.New("boom")))
	assert.Equal(t, KindIO, KindOf(ErrReaderNil))
	assert.Equal(t, "not_found", KindNotFound.String())
}
