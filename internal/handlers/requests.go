package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/lendly/internal/middleware"
	"github.com/example/lendly/internal/models"
	"github.com/example/lendly/internal/services"
	"github.com/example/lendly/internal/utils"
)

const dateLayout = "2006-01-02"

// BorrowRequestHandler manages borrow-request endpoints.
type BorrowRequestHandler struct {
	db *gorm.DB
}

// NewBorrowRequestHandler constructs BorrowRequestHandler.
func NewBorrowRequestHandler(db *gorm.DB) *BorrowRequestHandler {
	return &BorrowRequestHandler{db: db}
}

type createBorrowRequest struct {
	ItemID    string `json:"item_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Notes     string `json:"notes"`
}

// CreateRequest files a borrow request against an item. The price is computed
// server-side from the item's daily price and the charged duration.
func (h *BorrowRequestHandler) CreateRequest(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createBorrowRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid item_id")
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid start_date")
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid end_date")
	}
	if !end.After(start) {
		return fiber.NewError(fiber.StatusBadRequest, "end_date must be after start_date")
	}

	var item models.Item
	if err := h.db.First(&item, "id = ?", itemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "item not found")
		}
		return err
	}

	if !item.IsAvailable {
		return fiber.NewError(fiber.StatusBadRequest, "item is not available")
	}
	if item.OwnerID == userID {
		return fiber.NewError(fiber.StatusBadRequest, "cannot borrow your own item")
	}

	days := services.DurationDays(start, end)
	request := models.BorrowRequest{
		ItemID:      item.ID,
		BorrowerID:  userID,
		LenderID:    item.OwnerID,
		StartDate:   start,
		EndDate:     end,
		TotalAmount: item.DailyPrice * float64(days),
		Currency:    item.Currency,
		Status:      models.RequestStatusPending,
		Notes:       req.Notes,
	}

	if err := h.db.Create(&request).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": request})
}

// ListRequests returns requests the user is party to. role=borrower (default)
// lists outgoing requests, role=lender lists incoming ones.
func (h *BorrowRequestHandler) ListRequests(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.BorrowRequest{})

	switch c.Query("role", "borrower") {
	case "lender":
		query = query.Where("lender_id = ?", userID)
	case "borrower":
		query = query.Where("borrower_id = ?", userID)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "invalid role")
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var requests []models.BorrowRequest
	if err := query.Preload("Item").Preload("Borrower").Preload("Lender").
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&requests).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    requests,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetRequest returns a single request visible to either party.
func (h *BorrowRequestHandler) GetRequest(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var request models.BorrowRequest
	if err := h.db.Preload("Item").Preload("Borrower").Preload("Lender").
		First(&request, "id = ? AND (borrower_id = ? OR lender_id = ?)", id, userID, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "request not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": request})
}

type updateRequestStatus struct {
	Status string `json:"status"`
}

// UpdateStatus lets the lender approve or decline a pending request.
func (h *BorrowRequestHandler) UpdateStatus(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateRequestStatus
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Status != models.RequestStatusApproved && req.Status != models.RequestStatusDeclined {
		return fiber.NewError(fiber.StatusBadRequest, "status must be approved or declined")
	}

	res := h.db.Model(&models.BorrowRequest{}).
		Where("id = ? AND lender_id = ? AND status = ?", id, userID, models.RequestStatusPending).
		Update("status", req.Status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "pending request not found")
	}

	return c.JSON(fiber.Map{"success": true, "message": "request " + req.Status})
}
