package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"pdfapi/internal/model"
	"pdfapi/internal/storage"
)

type MockPDFService struct {
	mock.Mock
}

func (m *MockPDFService) Upload(ctx context.Context, r io.Reader, size int64) (*model.Document, error) {
	args := m.Called(ctx, r, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockPDFService) Open(ctx context.Context, filename string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, filename)
	if args.Get(0) == nil {
		return nil, storage.ObjectInfo{}, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockPDFService) ExtractPages(ctx context.Context, filePath string, pages []int) (*model.Document, error) {
	args := m.Called(ctx, filePath, pages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}
