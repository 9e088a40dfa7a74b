package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sefazor/proparse-backend/internal/models"
	"github.com/sefazor/proparse-backend/internal/service"
	"github.com/sefazor/proparse-backend/pkg/extraction"
	"github.com/sefazor/proparse-backend/pkg/utils"
)

type DocumentHandler struct {
	documentService *service.DocumentService
	exportService   *service.ExportService
	validator       *utils.Validator
}

func NewDocumentHandler(documentService *service.DocumentService, exportService *service.ExportService, validator *utils.Validator) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		exportService:   exportService,
		validator:       validator,
	}
}

func (h *DocumentHandler) Upload(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("No file provided"))
	}

	resp, err := h.documentService.Upload(userID, file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(resp, "File uploaded successfully"))
}

func (h *DocumentHandler) Classify(c *fiber.Ctx) error {
	var req struct {
		FileKey string `json:"file_key" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if req.FileKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("file_key is required"))
	}

	resp, err := h.documentService.Classify(c.Context(), req.FileKey)
	if err != nil {
		return h.providerError(c, err)
	}

	return c.JSON(models.SuccessResponse(resp, ""))
}

func (h *DocumentHandler) Extract(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	var req models.ExtractRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}

	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	resp, warnings, err := h.documentService.Extract(c.Context(), userID, req)
	if err != nil {
		// Kredi yetersizliği ayrı bir statü olarak sinyallenir
		var shortage *service.CreditShortageError
		if errors.As(err, &shortage) {
			return c.Status(fiber.StatusPaymentRequired).JSON(models.Response{
				Success: false,
				Error:   shortage.Validation.Message,
				Data:    shortage.Validation,
			})
		}
		if errors.Is(err, service.ErrAccountInactive) {
			return c.Status(fiber.StatusForbidden).JSON(models.ErrorResponse(err.Error()))
		}
		return h.providerError(c, err)
	}

	if len(warnings) > 0 {
		return c.JSON(models.SuccessResponseWithWarnings(resp, "Document processed", warnings))
	}
	return c.JSON(models.SuccessResponse(resp, "Document processed"))
}

func (h *DocumentHandler) GetDocuments(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 20)

	docs, total, err := h.documentService.GetDocuments(userID, offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(fiber.Map{
		"documents": docs,
		"total":     total,
	}, ""))
}

func (h *DocumentHandler) GetDocument(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	docID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid document ID"))
	}

	doc, err := h.documentService.GetDocument(uint(docID), userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(doc, ""))
}

func (h *DocumentHandler) DeleteDocument(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	docID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid document ID"))
	}

	if err := h.documentService.DeleteDocument(uint(docID), userID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(nil, "Document deleted successfully"))
}

// Export, çıkarılan veriyi Excel dosyası olarak indirir
func (h *DocumentHandler) Export(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	docID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid document ID"))
	}

	doc, err := h.documentService.GetDocument(uint(docID), userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse(err.Error()))
	}

	content, fileName, err := h.exportService.ExportDocument(doc)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	c.Set("Content-Type", service.ExcelContentType)
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	return c.Send(content)
}

// providerError, AI sağlayıcı hatalarını HTTP statülerine çevirir
func (h *DocumentHandler) providerError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, extraction.ErrTimeout):
		return c.Status(fiber.StatusGatewayTimeout).JSON(models.ErrorResponse(err.Error()))
	case errors.Is(err, extraction.ErrRateLimit):
		return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse(err.Error()))
	case errors.Is(err, extraction.ErrQuota):
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse(err.Error()))
	case errors.Is(err, extraction.ErrAuth):
		return c.Status(fiber.StatusBadGateway).JSON(models.ErrorResponse(err.Error()))
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}
}
