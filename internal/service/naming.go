package service

import (
	"strings"

	"pdfapi/internal/storage"
)

const (
	// PathPrefix is prepended to stored filenames in paths reported to callers.
	PathPrefix = "uploads/"
	// ContentTypePDF is the media type of every stored document.
	ContentTypePDF = "application/pdf"

	extractedPrefix = "newPDF_"
	pdfExt          = ".pdf"
)

func uploadName(id string) string {
	return id + pdfExt
}

func extractedName(id string) string {
	return extractedPrefix + id + pdfExt
}

// PublicPath returns the caller-facing path of a stored filename.
func PublicPath(filename string) string {
	return PathPrefix + filename
}

// NameFromPath accepts either a path previously returned by PublicPath or a bare filename
// and returns the validated filename.
func NameFromPath(p string) (string, error) {
	name := strings.TrimPrefix(p, PathPrefix)
	if err := validateName(name); err != nil {
		return "", err
	}
	return name, nil
}

func validateName(name string) error {
	if err := storage.ValidateKey(name); err != nil {
		return ErrInvalidName
	}
	return nil
}
