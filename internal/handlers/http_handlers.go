package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"github.com/Lyham67/Tombobach/internal/models"
	"github.com/Lyham67/Tombobach/internal/payments"
	"github.com/Lyham67/Tombobach/internal/pricing"
	"github.com/Lyham67/Tombobach/internal/services"
)

// Error message returned to the front-end on a password mismatch, kept
// verbatim from the deployed site.
const badPasswordMessage = "Mot de passe incorrect"

// HTTPHandler holds the dependencies for the HTTP handlers.
type HTTPHandler struct {
	sales    *services.SalesService
	content  *services.ContentService
	provider payments.Provider
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(sales *services.SalesService, content *services.ContentService, provider payments.Provider) *HTTPHandler {
	return &HTTPHandler{
		sales:    sales,
		content:  content,
		provider: provider,
	}
}

// RegisterRoutes registers all the application routes.
func (h *HTTPHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.Healthz)
	router.POST("/create-checkout-session", h.CreateCheckoutSession)
	router.POST("/save-payment", h.SavePayment)
	router.GET("/admin/payments", h.ListPayments)
	router.GET("/admin/stats", h.GetStats)
	router.POST("/admin/import", h.ImportPayments)
	router.POST("/admin/fix-vendeurs", h.FixSellers)
	router.GET("/api/price", h.GetPrice)
	router.GET("/api/content", h.GetContent)
	router.POST("/api/content", h.SaveContent)
}

// Healthz reports liveness.
func (h *HTTPHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type checkoutRequest struct {
	Tickets      int          `json:"tickets" binding:"required,min=1"`
	Amount       models.Cents `json:"amount" binding:"required"`
	CustomerInfo models.Buyer `json:"customerInfo" binding:"required"`
}

// CreateCheckoutSession validates the buyer form and asks the payment
// provider for a hosted checkout session to redirect to.
func (h *HTTPHandler) CreateCheckoutSession(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}

	id, url, err := h.provider.CreateSession(c.Request.Context(), req.Tickets, req.Amount, req.CustomerInfo)
	if err != nil {
		logger.Errorf("Checkout session creation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "url": url})
}

type savePaymentRequest struct {
	FirstName string       `json:"firstName" binding:"required"`
	LastName  string       `json:"lastName" binding:"required"`
	Email     string       `json:"email" binding:"required,email"`
	Phone     string       `json:"phone" binding:"required,len=10,number"`
	Tickets   int          `json:"tickets" binding:"required,min=1"`
	Amount    models.Cents `json:"amount" binding:"required"`
	Seller    string       `json:"vendeur"`
}

// SavePayment records a completed purchase: assigns ticket numbers,
// writes one ledger row per ticket, bumps the seller aggregate and
// triggers the confirmation email as a side effect.
func (h *HTTPHandler) SavePayment(c *gin.Context) {
	var req savePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Amount < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must not be negative"})
		return
	}

	buyer := models.Buyer{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Seller:    req.Seller,
	}
	numbers, err := h.sales.RecordPurchase(c.Request.Context(), buyer, req.Tickets, req.Amount)
	if err != nil {
		logger.Errorf("Saving payment failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "ticketNumbers": numbers})
}

// ListPayments returns the full ledger. The password travels in a
// header because GET has no body to carry it.
func (h *HTTPHandler) ListPayments(c *gin.Context) {
	records, err := h.sales.ListPayments(c.Request.Context(), c.GetHeader("X-Admin-Password"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetStats returns the seller aggregates and totals.
func (h *HTTPHandler) GetStats(c *gin.Context) {
	stats, err := h.sales.Stats(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type importRequest struct {
	Password string           `json:"password"`
	Payments []models.Payment `json:"payments"`
}

// ImportPayments replaces the whole ledger and recomputes the seller
// aggregates from the imported records.
func (h *HTTPHandler) ImportPayments(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.sales.ImportAll(c.Request.Context(), req.Password, req.Payments); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": formatCount(len(req.Payments), "paiements importés")})
}

type passwordRequest struct {
	Password string `json:"password"`
}

// FixSellers backfills missing seller and amount fields on historical
// rows.
func (h *HTTPHandler) FixSellers(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fixed, err := h.sales.BackfillDefaults(c.Request.Context(), req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": formatCount(int(fixed), "paiements corrigés")})
}

// GetPrice quotes a ticket count against the published price schedule,
// so the front-end can show the same numbers the order recap uses.
func (h *HTTPHandler) GetPrice(c *gin.Context) {
	tickets, err := strconv.Atoi(c.Query("tickets"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tickets must be an integer"})
		return
	}
	quote, err := pricing.Compute(tickets)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets, "total": quote.Total, "unitPrice": quote.Unit})
}

// GetContent serves the editable page content. Public.
func (h *HTTPHandler) GetContent(c *gin.Context) {
	content, err := h.content.Get(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, content)
}

type saveContentRequest struct {
	Password string             `json:"password"`
	Content  models.SiteContent `json:"content"`
}

// SaveContent replaces the page content document wholesale.
func (h *HTTPHandler) SaveContent(c *gin.Context) {
	var req saveContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.content.Replace(c.Request.Context(), req.Password, req.Content); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Contenu sauvegardé avec succès"})
}

func formatCount(n int, suffix string) string {
	return fmt.Sprintf("%d %s", n, suffix)
}

// writeError maps service errors onto the wire: password mismatches
// become 403 with the message the front-end expects, everything else a
// generic 500.
func (h *HTTPHandler) writeError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrUnauthorized) {
		c.JSON(http.StatusForbidden, gin.H{"error": badPasswordMessage})
		return
	}
	logger.Errorf("Request failed: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
