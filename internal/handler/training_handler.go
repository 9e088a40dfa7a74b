package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sefazor/proparse-backend/internal/models"
	"github.com/sefazor/proparse-backend/internal/service"
)

// TrainingHandler, fine-tuning veri kümesi yönetimi (sadece admin)
type TrainingHandler struct {
	trainingService *service.TrainingService
}

func NewTrainingHandler(trainingService *service.TrainingService) *TrainingHandler {
	return &TrainingHandler{
		trainingService: trainingService,
	}
}

func (h *TrainingHandler) UploadBatch(c *fiber.Ctx) error {
	docType := models.DocumentType(c.FormValue("document_type"))
	if !models.IsValidDocumentType(docType) {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid or missing document_type"))
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid multipart form"))
	}

	files := form.File["files"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("No files provided"))
	}

	resp, err := h.trainingService.UploadBatch(c.Context(), docType, files)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(resp, "Batch uploaded"))
}

func (h *TrainingHandler) GetBatch(c *fiber.Ctx) error {
	docs, err := h.trainingService.GetBatch(c.Params("batchId"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(docs, ""))
}

func (h *TrainingHandler) ListDocuments(c *fiber.Ctx) error {
	status := c.Query("status")
	docType := models.DocumentType(c.Query("document_type"))
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 20)

	docs, total, err := h.trainingService.ListDocuments(status, docType, offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(fiber.Map{
		"documents": docs,
		"total":     total,
	}, ""))
}

func (h *TrainingHandler) GetDocument(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid document ID"))
	}

	doc, err := h.trainingService.GetDocument(uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(doc, ""))
}

func (h *TrainingHandler) Verify(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid document ID"))
	}

	var req models.VerifyTrainingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if len(req.VerifiedData) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("verified_data is required"))
	}

	doc, err := h.trainingService.Verify(uint(id), adminID, []byte(req.VerifiedData))
	if err != nil {
		return c.Status(trainingErrorStatus(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(doc, "Document verified"))
}

func (h *TrainingHandler) Reject(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid document ID"))
	}

	var req models.RejectTrainingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}

	doc, err := h.trainingService.Reject(uint(id), adminID, req.Reason)
	if err != nil {
		return c.Status(trainingErrorStatus(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(doc, "Document rejected"))
}

func (h *TrainingHandler) ExportJSONL(c *fiber.Ctx) error {
	docType := models.DocumentType(c.Params("documentType"))
	if !models.IsValidDocumentType(docType) {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid document type"))
	}

	resp, err := h.trainingService.ExportJSONL(docType)
	if err != nil {
		if errors.Is(err, service.ErrNoVerifiedDocuments) {
			return c.Status(fiber.StatusConflict).JSON(models.ErrorResponse(err.Error()))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(resp, "Training data exported"))
}

func (h *TrainingHandler) ListFineTuneJobs(c *fiber.Ctx) error {
	jobs, err := h.trainingService.ListFineTuneJobs()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(jobs, ""))
}

func trainingErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrTrainingDocNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrTrainingDocNotReady):
		return fiber.StatusConflict
	default:
		return fiber.StatusBadRequest
	}
}
