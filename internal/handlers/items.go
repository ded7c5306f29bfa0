package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/lendly/internal/middleware"
	"github.com/example/lendly/internal/models"
	"github.com/example/lendly/internal/utils"
)

// ItemHandler manages borrowable item listings.
type ItemHandler struct {
	db *gorm.DB
}

// NewItemHandler constructs ItemHandler.
func NewItemHandler(db *gorm.DB) *ItemHandler {
	return &ItemHandler{db: db}
}

// ListItems returns browsable items with optional filters.
func (h *ItemHandler) ListItems(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Item{})

	if category := strings.TrimSpace(c.Query("category")); category != "" {
		query = query.Where("category = ?", category)
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		query = query.Where("title ILIKE ?", "%"+q+"%")
	}
	if ownerID := strings.TrimSpace(c.Query("owner_id")); ownerID != "" {
		parsed, err := uuid.Parse(ownerID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid owner_id")
		}
		query = query.Where("owner_id = ?", parsed)
	}
	if c.Query("available") == "true" {
		query = query.Where("is_available = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var items []models.Item
	if err := query.Preload("Owner").
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&items).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    items,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetItem returns a single item.
func (h *ItemHandler) GetItem(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var item models.Item
	if err := h.db.Preload("Owner").First(&item, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "item not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": item})
}

type itemRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	DailyPrice  float64 `json:"daily_price"`
	Currency    string  `json:"currency"`
	ImageURL    string  `json:"image_url"`
	Location    string  `json:"location"`
	IsAvailable *bool   `json:"is_available"`
}

// CreateItem lists a new item owned by the authenticated user.
func (h *ItemHandler) CreateItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req itemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if strings.TrimSpace(req.Title) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "title is required")
	}
	if req.DailyPrice <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "daily_price must be positive")
	}

	item := models.Item{
		OwnerID:     userID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		DailyPrice:  req.DailyPrice,
		Currency:    req.Currency,
		ImageURL:    req.ImageURL,
		Location:    req.Location,
		IsAvailable: true,
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	if item.Currency == "" {
		item.Currency = "USD"
	}

	if err := h.db.Create(&item).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

// UpdateItem updates an item owned by the authenticated user.
func (h *ItemHandler) UpdateItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req itemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Category != "" {
		updates["category"] = req.Category
	}
	if req.DailyPrice > 0 {
		updates["daily_price"] = req.DailyPrice
	}
	if req.ImageURL != "" {
		updates["image_url"] = req.ImageURL
	}
	if req.Location != "" {
		updates["location"] = req.Location
	}
	if req.IsAvailable != nil {
		updates["is_available"] = *req.IsAvailable
	}
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	res := h.db.Model(&models.Item{}).
		Where("id = ? AND owner_id = ?", id, userID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "item not found")
	}

	return c.JSON(fiber.Map{"success": true, "message": "item updated"})
}

// DeleteItem removes an item owned by the authenticated user.
func (h *ItemHandler) DeleteItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	res := h.db.Where("id = ? AND owner_id = ?", id, userID).Delete(&models.Item{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "item not found")
	}

	return c.JSON(fiber.Map{"success": true, "message": "item deleted"})
}
