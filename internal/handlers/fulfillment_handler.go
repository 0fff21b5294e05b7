package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/primedraws/primedraws-backend/internal/apperrors"
	"github.com/primedraws/primedraws-backend/internal/models"
	"github.com/primedraws/primedraws-backend/internal/services"
)

// FulfillmentHandler handles prize fulfillment HTTP requests
type FulfillmentHandler struct {
	fulfillmentService services.FulfillmentService
}

// NewFulfillmentHandler creates a new FulfillmentHandler
func NewFulfillmentHandler(fulfillmentService services.FulfillmentService) *FulfillmentHandler {
	return &FulfillmentHandler{fulfillmentService: fulfillmentService}
}

// SubmitChoiceRequest is the payload for POST /fulfillments/:id/choice
type SubmitChoiceRequest struct {
	Choice string `json:"choice" binding:"required"` // PRIZE or CASH
}

// SubmitChoice handles POST /fulfillments/:id/choice
func (h *FulfillmentHandler) SubmitChoice(c *gin.Context) {
	fulfillmentID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req SubmitChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": apperrors.ErrCodeValidation, "message": err.Error()})
		return
	}

	fulfillment, err := h.fulfillmentService.SubmitChoice(c.Request.Context(), fulfillmentID, userID, models.FulfillmentChoice(req.Choice))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fulfillment)
}

// ClaimCash handles POST /fulfillments/:id/claim-cash
func (h *FulfillmentHandler) ClaimCash(c *gin.Context) {
	fulfillmentID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	result, err := h.fulfillmentService.ClaimCashAlternative(c.Request.Context(), fulfillmentID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListMine handles GET /fulfillments
func (h *FulfillmentHandler) ListMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	fulfillments, err := h.fulfillmentService.GetUserFulfillments(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fulfillments": fulfillments})
}

// WalletTransactions handles GET /wallet/transactions
func (h *FulfillmentHandler) WalletTransactions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	transactions, err := h.fulfillmentService.GetWalletTransactions(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

// MarkFulfilled handles POST /admin/fulfillments/:id/fulfilled
func (h *FulfillmentHandler) MarkFulfilled(c *gin.Context) {
	fulfillmentID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	fulfillment, err := h.fulfillmentService.MarkFulfilled(c.Request.Context(), fulfillmentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fulfillment)
}

// ExpireOverdue handles POST /admin/fulfillments/expire
func (h *FulfillmentHandler) ExpireOverdue(c *gin.Context) {
	expired, err := h.fulfillmentService.ExpireOverdue(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expired": expired})
}
