package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/primedraws/primedraws-backend/internal/services"
)

// PoolHandler handles pool generation and stats HTTP requests
type PoolHandler struct {
	poolService  services.PoolService
	statsService services.StatsService
}

// NewPoolHandler creates a new PoolHandler
func NewPoolHandler(poolService services.PoolService, statsService services.StatsService) *PoolHandler {
	return &PoolHandler{
		poolService:  poolService,
		statsService: statsService,
	}
}

// GeneratePool handles POST /admin/competitions/:id/generate-pool
func (h *PoolHandler) GeneratePool(c *gin.Context) {
	competitionID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	result, err := h.poolService.GeneratePool(c.Request.Context(), competitionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetPoolStats handles GET /competitions/:id/pool-stats
func (h *PoolHandler) GetPoolStats(c *gin.Context) {
	competitionID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	stats, err := h.statsService.GetPoolStats(c.Request.Context(), competitionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
