package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rentops_backend/internal/booking/service"
	"rentops_backend/internal/booking/transport"
	"rentops_backend/platform/httpkit"
	"rentops_backend/platform/validator"
)

// Handler handles HTTP requests for the booking workflow.
type Handler struct {
	svc  *service.Service
	orch *service.Orchestrator
	val  *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new booking handler.
func New(svc *service.Service, orch *service.Orchestrator, val *validator.Validator) *Handler {
	return &Handler{svc: svc, orch: orch, val: val}
}

// ListReservations returns reservations.
// GET /api/v1/reservations?propertyId=
func (h *Handler) ListReservations(c *gin.Context) {
	reservations, err := h.svc.ListReservations(c.Request.Context(), c.Query("propertyId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, reservations)
}

// CreateReservation records a guest inquiry.
// POST /api/v1/reservations
func (h *Handler) CreateReservation(c *gin.Context) {
	var req transport.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	reservation, err := h.svc.CreateReservation(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, reservation)
}

// CancelReservation marks a reservation cancelled.
// POST /api/v1/reservations/:id/cancel
func (h *Handler) CancelReservation(c *gin.Context) {
	reservation, err := h.svc.CancelReservation(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, reservation)
}

// DeleteReservation removes a reservation.
// DELETE /api/v1/reservations/:id
func (h *Handler) DeleteReservation(c *gin.Context) {
	if err := h.svc.DeleteReservation(c.Request.Context(), c.Param("id")); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// ListOffers returns offers.
// GET /api/v1/offers?propertyId=
func (h *Handler) ListOffers(c *gin.Context) {
	offers, err := h.svc.ListOffers(c.Request.Context(), c.Query("propertyId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, offers)
}

// CreateOffer drafts an offer from a reservation.
// POST /api/v1/offers
func (h *Handler) CreateOffer(c *gin.Context) {
	var req transport.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	offer, err := h.svc.CreateOffer(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, offer)
}

// SendOffer moves a draft offer to Sent.
// POST /api/v1/offers/:id/send
func (h *Handler) SendOffer(c *gin.Context) {
	offer, err := h.svc.SendOffer(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, offer)
}

// ListProformas returns all billing documents.
// GET /api/v1/proformas
func (h *Handler) ListProformas(c *gin.Context) {
	proformas, err := h.svc.ListProformas(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, proformas)
}

// CreateProforma invoices an offer.
// POST /api/v1/proformas
func (h *Handler) CreateProforma(c *gin.Context) {
	var req transport.CreateProformaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	proforma, err := h.svc.CreateProforma(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, proforma)
}

// CreateChildInvoice creates an invoice under a proforma.
// POST /api/v1/proformas/:id/invoices
func (h *Handler) CreateChildInvoice(c *gin.Context) {
	var req transport.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	invoice, err := h.svc.CreateChildInvoice(c.Request.Context(), c.Param("id"), req.AmountCents)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, invoice)
}

// ConfirmPayment runs the atomic payment confirmation.
// POST /api/v1/proformas/:id/confirm-payment
func (h *Handler) ConfirmPayment(c *gin.Context) {
	result, err := h.svc.ConfirmPayment(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// RevertPaid moves a paid proforma back to Unpaid without touching the
// booking or its tasks.
// POST /api/v1/proformas/:id/revert-paid
func (h *Handler) RevertPaid(c *gin.Context) {
	proforma, err := h.svc.RevertPaid(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, proforma)
}

// ListBookings returns all confirmed bookings.
// GET /api/v1/bookings
func (h *Handler) ListBookings(c *gin.Context) {
	bookings, err := h.svc.ListBookings(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, bookings)
}

// EnsureBookingTasks manually re-runs the idempotent task reconciliation.
// POST /api/v1/bookings/:id/ensure-tasks
func (h *Handler) EnsureBookingTasks(c *gin.Context) {
	tasks, err := h.orch.EnsureFacilityTasks(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, tasks)
}
