package handlers

import (
	"net/http"

	"lec-simulator/internal/api/models"
	"lec-simulator/internal/grid"
	"lec-simulator/internal/market"
	"lec-simulator/internal/model"

	"github.com/gin-gonic/gin"
)

// ParametersHandler describes the inputs the simulator accepts.
type ParametersHandler struct {
	battery model.BatteryParams
	tariffs grid.Schedule
	pairing market.Pairing
	seed    uint64
}

func NewParametersHandler(battery model.BatteryParams, tariffs grid.Schedule, pairing market.Pairing, seed uint64) *ParametersHandler {
	return &ParametersHandler{battery: battery, tariffs: tariffs, pairing: pairing, seed: seed}
}

func intp(v int) *int { return &v }

// ListParameters handles GET /api/parameters
func (h *ParametersHandler) ListParameters(c *gin.Context) {
	params := []models.ParameterInfo{
		{
			Name:        "community_size",
			Type:        "int",
			Description: "Number of buildings, each aggregating six households",
			Min:         intp(model.MinCommunitySize),
			Max:         intp(model.MaxCommunitySize),
		},
		{
			Name:        "season",
			Type:        "string",
			Description: "Simulated horizon: sum, win, aut or spr",
		},
		{
			Name:        "pv_percentage",
			Type:        "int",
			Description: "Share of buildings with rooftop PV",
			Min:         intp(0),
			Max:         intp(100),
		},
		{
			Name:        "sd_percentage",
			Type:        "int",
			Description: "Share of buildings with smart devices that shift load into PV hours",
			Min:         intp(0),
			Max:         intp(100),
		},
		{
			Name:        "with_battery",
			Type:        "bool",
			Description: "Give every building a home battery",
			Default:     false,
		},
		{
			Name:        "seed",
			Type:        "int",
			Description: "Random seed; identical parameters and seed give identical results",
			Default:     h.seed,
		},
	}

	seasons := make([]models.SeasonInfo, len(model.Seasons))
	for i, s := range model.Seasons {
		months := s.Months()
		info := models.SeasonInfo{ID: string(s), Months: make([]int, len(months))}
		for j, m := range months {
			info.Months[j] = int(m)
		}
		seasons[i] = info
	}

	base := h.tariffs.Base
	c.JSON(http.StatusOK, models.ParametersResponse{
		Parameters: params,
		Seasons:    seasons,
		Battery: models.BatteryInfo{
			CapacityKWh:         h.battery.CapacityKWh,
			MaxChargeKW:         h.battery.MaxChargeKW,
			MaxDischargeKW:      h.battery.MaxDischargeKW,
			RoundTripEfficiency: h.battery.RoundTripEfficiency(),
			MinSOC:              h.battery.MinSOC,
			MaxSOC:              h.battery.MaxSOC,
		},
		Tariff: models.TariffInfo{
			PurchaseCt:      base.PurchaseCt,
			FeedInCt:        base.FeedInCt,
			ClearingPriceCt: base.ClearingPrice(),
		},
		Pairing:               string(h.pairing),
		HouseholdsPerBuilding: model.HouseholdsPerBuilding,
	})
}
