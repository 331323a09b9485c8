package mocks

import (
	"io"

	"github.com/stretchr/testify/mock"
)

type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) PageCount(rs io.ReadSeeker) (int, error) {
	args := m.Called(rs)
	return args.Int(0), args.Error(1)
}

func (m *MockProcessor) Collect(rs io.ReadSeeker, w io.Writer, pages []int) error {
	args := m.Called(rs, w, pages)
	if f, ok := args.Get(0).(func(io.ReadSeeker, io.Writer, []int) error); ok {
		return f(rs, w, pages)
	}
	return args.Error(0)
}
