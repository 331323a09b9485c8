package handler

import (
	"mime"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"pdfapi/internal/service"
)

// UploadFormField is the multipart field carrying the PDF bytes.
const UploadFormField = "pdf"

type uploadResponse struct {
	Message  string `json:"message" example:"PDF file uploaded successfully"`
	FilePath string `json:"filePath" example:"uploads/0b9c2f8e-3f0a-4a36-9a43-1d5c7e0e2f11.pdf"`
}

type extractRequest struct {
	FilePath      string `json:"filePath" example:"uploads/0b9c2f8e-3f0a-4a36-9a43-1d5c7e0e2f11.pdf"`
	SelectedPages []int  `json:"selectedPages" example:"3,1"`
}

type extractResponse struct {
	Message     string `json:"message" example:"New PDF created successfully"`
	NewFilePath string `json:"newFilePath" example:"uploads/newPDF_5f1d7a4e-0c7b-4d8e-9a2f-3b6c1e8d9f00.pdf"`
}

// UploadPDF stores the uploaded file verbatim under a new name.
//
// @Summary     Upload a PDF
// @Tags        pdf
// @Accept      multipart/form-data
// @Produce     json
// @Param       pdf formData file true "PDF file"
// @Success     200 {object} uploadResponse
// @Failure     400 {object} errorPayload
// @Failure     413 {object} errorPayload
// @Failure     500 {object} errorPayload
// @Router      /upload [post]
func UploadPDF(svc service.PDFService, logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile(UploadFormField)
		if err != nil || fh.Size == 0 {
			return writeServiceError(c, logger, "upload", service.ErrFileRequired)
		}

		f, err := fh.Open()
		if err != nil {
			return writeServiceError(c, logger, "upload", err)
		}
		defer f.Close()

		doc, err := svc.Upload(c.UserContext(), f, fh.Size)
		if err != nil {
			return writeServiceError(c, logger, "upload", err)
		}

		return c.Status(fiber.StatusOK).JSON(uploadResponse{
			Message:  "PDF file uploaded successfully",
			FilePath: service.PublicPath(doc.Filename),
		})
	}
}

// GetPDF streams a stored PDF inline.
//
// @Summary     Retrieve a stored PDF
// @Tags        pdf
// @Produce     application/pdf
// @Param       filename path string true "Stored filename"
// @Success     200 {file} binary
// @Failure     400 {object} errorPayload
// @Failure     404 {object} errorPayload
// @Failure     500 {object} errorPayload
// @Router      /pdf/{filename} [get]
func GetPDF(svc service.PDFService, logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filename := c.Params("filename")

		rc, info, err := svc.Open(c.UserContext(), filename)
		if err != nil {
			return writeServiceError(c, logger, "retrieve", err)
		}

		size := -1
		if info.Size > 0 {
			size = int(info.Size)
		}

		c.Set(fiber.HeaderContentType, service.ContentTypePDF)
		c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType("inline", map[string]string{"filename": filename}))
		// fasthttp closes rc once the body has been written.
		return c.SendStream(rc, size)
	}
}

// ExtractPages builds a new stored PDF from selected pages of a stored PDF.
//
// @Summary     Extract pages into a new PDF
// @Tags        pdf
// @Accept      json
// @Produce     json
// @Param       request body extractRequest true "Source path and 1-based pages, in output order"
// @Success     200 {object} extractResponse
// @Failure     400 {object} errorPayload
// @Failure     404 {object} errorPayload
// @Failure     422 {object} errorPayload
// @Failure     500 {object} errorPayload
// @Router      /extract-pages [post]
func ExtractPages(svc service.PDFService, logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req extractRequest
		if err := c.BodyParser(&req); err != nil {
			logger.WithFields(logrus.Fields{
				"request_id": requestIDFromCtx(c),
				"op":         "extract",
			}).WithError(err).Warn("request rejected")
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		doc, err := svc.ExtractPages(c.UserContext(), req.FilePath, req.SelectedPages)
		if err != nil {
			return writeServiceError(c, logger, "extract", err)
		}

		return c.Status(fiber.StatusOK).JSON(extractResponse{
			Message:     "New PDF created successfully",
			NewFilePath: service.PublicPath(doc.Filename),
		})
	}
}
