package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sefazor/proparse-backend/internal/models"
	"github.com/sefazor/proparse-backend/internal/service"
	"github.com/sefazor/proparse-backend/pkg/utils"
)

type GroupHandler struct {
	groupService *service.GroupService
	userService  *service.UserService
	validator    *utils.Validator
}

func NewGroupHandler(groupService *service.GroupService, userService *service.UserService, validator *utils.Validator) *GroupHandler {
	return &GroupHandler{
		groupService: groupService,
		userService:  userService,
		validator:    validator,
	}
}

// GetMyGroup, kullanıcının üyesi olduğu grubu döner
func (h *GroupHandler) GetMyGroup(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	if user.GroupID == nil {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse("You are not a member of any group"))
	}

	group, err := h.groupService.GetGroup(*user.GroupID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(group, ""))
}

// Aşağıdaki işlemler admin route grubunun altında çalışır

func (h *GroupHandler) CreateGroup(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	var req models.CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}

	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	group, err := h.groupService.CreateGroup(adminID, req)
	if err != nil {
		return c.Status(groupErrorStatus(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(group, "Group created successfully"))
}

func (h *GroupHandler) GetGroup(c *fiber.Ctx) error {
	groupID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid group ID"))
	}

	group, err := h.groupService.GetGroup(uint(groupID))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(group, ""))
}

func (h *GroupHandler) ListGroups(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 20)

	groups, total, err := h.groupService.ListGroups(offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(fiber.Map{
		"groups": groups,
		"total":  total,
	}, ""))
}

func (h *GroupHandler) AddMember(c *fiber.Ctx) error {
	groupID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid group ID"))
	}

	var req models.AddGroupMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}

	if err := h.groupService.AddMember(uint(groupID), req); err != nil {
		return c.Status(groupErrorStatus(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(nil, "Member added successfully"))
}

func (h *GroupHandler) RemoveMember(c *fiber.Ctx) error {
	groupID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid group ID"))
	}

	userID, err := c.ParamsInt("userId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid user ID"))
	}

	if err := h.groupService.RemoveMember(uint(groupID), uint(userID)); err != nil {
		return c.Status(groupErrorStatus(err)).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(nil, "Member removed successfully"))
}

func (h *GroupHandler) TransferOwnership(c *fiber.Ctx) error {
	groupID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid group ID"))
	}

	var req models.TransferOwnershipRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}

	if err := h.groupService.TransferOwnership(uint(groupID), req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(nil, "Ownership transferred successfully"))
}

func (h *GroupHandler) DeleteGroup(c *fiber.Ctx) error {
	groupID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid group ID"))
	}

	if err := h.groupService.DeleteGroup(uint(groupID)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(nil, "Group deleted successfully"))
}

func (h *GroupHandler) SetActive(c *fiber.Ctx) error {
	groupID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid group ID"))
	}

	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}

	if err := h.groupService.SetActive(uint(groupID), req.IsActive); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(nil, "Group status updated"))
}

func (h *GroupHandler) AddCredits(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	groupID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid group ID"))
	}

	var req models.AddCreditsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}

	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(err.Error()))
	}

	if err := h.groupService.AddCredits(uint(groupID), req.Amount, &adminID, req.Description); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(nil, "Credits added to group pool"))
}

// groupErrorStatus, bilinen grup hatalarını uygun HTTP statüsüne çevirir
func groupErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrOwnerRemoval),
		errors.Is(err, service.ErrGroupFull),
		errors.Is(err, service.ErrAlreadyInGroup),
		errors.Is(err, service.ErrGroupInactive):
		return fiber.StatusConflict
	default:
		return fiber.StatusBadRequest
	}
}
