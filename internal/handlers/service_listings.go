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

// ServiceListingHandler manages bookable service listings.
type ServiceListingHandler struct {
	db *gorm.DB
}

// NewServiceListingHandler constructs ServiceListingHandler.
func NewServiceListingHandler(db *gorm.DB) *ServiceListingHandler {
	return &ServiceListingHandler{db: db}
}

// ListServices returns browsable services with optional filters.
func (h *ServiceListingHandler) ListServices(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Service{})

	if category := strings.TrimSpace(c.Query("category")); category != "" {
		query = query.Where("category = ?", category)
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		query = query.Where("title ILIKE ?", "%"+q+"%")
	}
	if providerID := strings.TrimSpace(c.Query("provider_id")); providerID != "" {
		parsed, err := uuid.Parse(providerID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid provider_id")
		}
		query = query.Where("provider_id = ?", parsed)
	}
	if c.Query("available") == "true" {
		query = query.Where("is_available = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var services []models.Service
	if err := query.Preload("Provider").
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&services).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    services,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetService returns a single service.
func (h *ServiceListingHandler) GetService(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var svc models.Service
	if err := h.db.Preload("Provider").First(&svc, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "service not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": svc})
}

type serviceRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	DailyPrice  float64 `json:"daily_price"`
	Currency    string  `json:"currency"`
	ImageURL    string  `json:"image_url"`
	Location    string  `json:"location"`
	IsAvailable *bool   `json:"is_available"`
}

// CreateService lists a new service provided by the authenticated user.
func (h *ServiceListingHandler) CreateService(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req serviceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if strings.TrimSpace(req.Title) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "title is required")
	}
	if req.DailyPrice <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "daily_price must be positive")
	}

	svc := models.Service{
		ProviderID:  userID,
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
		svc.IsAvailable = *req.IsAvailable
	}
	if svc.Currency == "" {
		svc.Currency = "USD"
	}

	if err := h.db.Create(&svc).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": svc})
}

// UpdateService updates a service provided by the authenticated user.
func (h *ServiceListingHandler) UpdateService(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req serviceRequest
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

	res := h.db.Model(&models.Service{}).
		Where("id = ? AND provider_id = ?", id, userID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "service not found")
	}

	return c.JSON(fiber.Map{"success": true, "message": "service updated"})
}

// DeleteService removes a service provided by the authenticated user.
func (h *ServiceListingHandler) DeleteService(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	res := h.db.Where("id = ? AND provider_id = ?", id, userID).Delete(&models.Service{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "service not found")
	}

	return c.JSON(fiber.Map{"success": true, "message": "service deleted"})
}
