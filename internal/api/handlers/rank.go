package handlers

import (
	"net/http"

	"lec-simulator/internal/analysis"
	"lec-simulator/internal/api/models"

	"github.com/gin-gonic/gin"
)

// RankBuildings handles GET /api/simulate/:id/rank
func (h *SimulationHandler) RankBuildings(c *gin.Context) {
	var req models.RankRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, invalidRequest(err))
		return
	}
	id, out, ok := h.lookup(c)
	if !ok {
		return
	}

	ind := out.Result.IndividualMetrics
	nodes := make([]string, len(out.Buildings))
	for i, b := range out.Buildings {
		nodes[i] = b.Node()
	}
	ranked := analysis.RankBySavings(nodes, ind.CostWithLEC, ind.CostWithoutLEC)

	// Apply limit
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > len(ranked) {
		limit = len(ranked)
	}

	rankings := make([]models.Ranking, limit)
	for i := 0; i < limit; i++ {
		r := ranked[i]
		rankings[i] = models.Ranking{
			Rank:           i + 1,
			Building:       r.Node,
			CostWithLEC:    r.CostWithLEC,
			CostWithoutLEC: r.CostWithoutLEC,
			Savings:        r.Savings,
		}
	}
	c.JSON(http.StatusOK, models.RankResponse{ID: id, Rankings: rankings})
}
