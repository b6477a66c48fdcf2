package handlers

import (
	"net/http"

	"lec-simulator/internal/api/models"
	"lec-simulator/internal/model"
	"lec-simulator/internal/simulation"

	"github.com/gin-gonic/gin"
)

// DatasetHandler reports on the household dataset behind the engine.
type DatasetHandler struct {
	engine *simulation.Engine
}

func NewDatasetHandler(engine *simulation.Engine) *DatasetHandler {
	return &DatasetHandler{engine: engine}
}

// Describe handles GET /api/dataset
func (h *DatasetHandler) Describe(c *gin.Context) {
	ds, err := h.engine.Dataset(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Detail: "Failed to load dataset",
			Code:   "DATASET_LOAD_ERROR",
			Errors: []string{err.Error()},
		})
		return
	}

	info := models.DatasetInfo{
		Households: len(ds.Households),
		Hours:      ds.Len(),
		Seasons:    map[string]int{},
		MaxSize:    min(len(ds.Households)/model.HouseholdsPerBuilding, model.MaxCommunitySize),
		Warnings:   ds.Warnings,
	}
	if info.Warnings == nil {
		info.Warnings = []string{}
	}
	if n := len(ds.Timestamps); n > 0 {
		info.Start = ds.Timestamps[0]
		info.End = ds.Timestamps[n-1]
	}
	for _, ts := range ds.Timestamps {
		for _, s := range model.Seasons {
			if s.Contains(ts) {
				info.Seasons[string(s)]++
			}
		}
	}
	c.JSON(http.StatusOK, info)
}
