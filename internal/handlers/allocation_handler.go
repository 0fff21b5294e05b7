package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/primedraws/primedraws-backend/internal/apperrors"
	"github.com/primedraws/primedraws-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AllocationHandler handles ticket claim and reveal HTTP requests
type AllocationHandler struct {
	allocationService services.AllocationService
}

// NewAllocationHandler creates a new AllocationHandler
func NewAllocationHandler(allocationService services.AllocationService) *AllocationHandler {
	return &AllocationHandler{allocationService: allocationService}
}

// ClaimTicketsRequest is the payload for POST /orders/:id/claim
type ClaimTicketsRequest struct {
	CompetitionID string `json:"competition_id" binding:"required"`
	TicketCount   int    `json:"ticket_count" binding:"required,min=1"`
}

// ClaimTickets handles POST /orders/:id/claim
func (h *AllocationHandler) ClaimTickets(c *gin.Context) {
	orderID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req ClaimTicketsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": apperrors.ErrCodeValidation, "message": err.Error()})
		return
	}
	competitionID, err := primitive.ObjectIDFromHex(req.CompetitionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": apperrors.ErrCodeValidation, "message": "Invalid competition_id format"})
		return
	}

	tickets, err := h.allocationService.ClaimTickets(c.Request.Context(), competitionID, userID, orderID, req.TicketCount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

// RevealTicket handles POST /tickets/:id/reveal
func (h *AllocationHandler) RevealTicket(c *gin.Context) {
	ticketID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ticket, err := h.allocationService.RevealTicket(c.Request.Context(), ticketID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}
