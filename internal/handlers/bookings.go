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

// BookingHandler manages service-booking endpoints.
type BookingHandler struct {
	db *gorm.DB
}

// NewBookingHandler constructs BookingHandler.
func NewBookingHandler(db *gorm.DB) *BookingHandler {
	return &BookingHandler{db: db}
}

type createBookingRequest struct {
	ServiceID string `json:"service_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Notes     string `json:"notes"`
}

// CreateBooking books a service for a date range. The price is computed
// server-side from the service's daily price and the charged duration.
func (h *BookingHandler) CreateBooking(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid service_id")
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

	var svc models.Service
	if err := h.db.First(&svc, "id = ?", serviceID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "service not found")
		}
		return err
	}

	if !svc.IsAvailable {
		return fiber.NewError(fiber.StatusBadRequest, "service is not available")
	}
	if svc.ProviderID == userID {
		return fiber.NewError(fiber.StatusBadRequest, "cannot book your own service")
	}

	days := services.DurationDays(start, end)
	booking := models.ServiceBooking{
		ServiceID:   svc.ID,
		CustomerID:  userID,
		ProviderID:  svc.ProviderID,
		StartDate:   start,
		EndDate:     end,
		TotalAmount: svc.DailyPrice * float64(days),
		Currency:    svc.Currency,
		Status:      models.RequestStatusPending,
		Notes:       req.Notes,
	}

	if err := h.db.Create(&booking).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": booking})
}

// ListBookings returns bookings the user is party to. role=customer (default)
// lists outgoing bookings, role=provider lists incoming ones.
func (h *BookingHandler) ListBookings(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.ServiceBooking{})

	switch c.Query("role", "customer") {
	case "provider":
		query = query.Where("provider_id = ?", userID)
	case "customer":
		query = query.Where("customer_id = ?", userID)
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

	var bookings []models.ServiceBooking
	if err := query.Preload("Service").Preload("Customer").Preload("Provider").
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&bookings).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    bookings,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetBooking returns a single booking visible to either party.
func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var booking models.ServiceBooking
	if err := h.db.Preload("Service").Preload("Customer").Preload("Provider").
		First(&booking, "id = ? AND (customer_id = ? OR provider_id = ?)", id, userID, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "booking not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": booking})
}

// UpdateStatus lets the provider approve or decline a pending booking.
func (h *BookingHandler) UpdateStatus(c *fiber.Ctx) error {
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

	res := h.db.Model(&models.ServiceBooking{}).
		Where("id = ? AND provider_id = ? AND status = ?", id, userID, models.RequestStatusPending).
		Update("status", req.Status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "pending booking not found")
	}

	return c.JSON(fiber.Map{"success": true, "message": "booking " + req.Status})
}
