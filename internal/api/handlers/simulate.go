package handlers

import (
	"errors"
	"net/http"
	"time"

	"lec-simulator/internal/api/models"
	"lec-simulator/internal/data"
	"lec-simulator/internal/model"
	"lec-simulator/internal/simulation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultResultTTL is how long finished runs stay available for ledger and rank lookups.
const DefaultResultTTL = 30 * time.Minute

// SimulationHandler handles simulation-related requests
type SimulationHandler struct {
	engine       *simulation.Engine
	defaultSeed  uint64
	compareLimit int
	log          logrus.FieldLogger

	// results maps run id to outcome; runs maps a parameter key to the id of the
	// run that produced it, so repeated requests reuse a deterministic result.
	results *data.TTLCache[*simulation.Outcome]
	runs    *data.TTLCache[string]
}

// NewSimulationHandler creates a new simulation handler
func NewSimulationHandler(engine *simulation.Engine, defaultSeed uint64, log logrus.FieldLogger) *SimulationHandler {
	return &SimulationHandler{
		engine:       engine,
		defaultSeed:  defaultSeed,
		compareLimit: 4,
		log:          log,
		results:      data.NewTTLCache[*simulation.Outcome](DefaultResultTTL),
		runs:         data.NewTTLCache[string](DefaultResultTTL),
	}
}

// Close stops the result store's background cleanup.
func (h *SimulationHandler) Close() {
	h.results.Close()
	h.runs.Close()
}

// Simulate handles POST /api/simulate
func (h *SimulationHandler) Simulate(c *gin.Context) {
	var req models.SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, invalidRequest(err))
		return
	}

	id, out, err := h.run(c, req.ToParams(h.defaultSeed))
	if err != nil {
		h.renderRunError(c, err)
		return
	}

	resp := models.SimulateResponse{Result: out.Result}
	if req.IncludeLedger {
		resp.Ledger = convertLedger(out.Ledger)
	}
	c.Header("Location", "/api/simulate/"+id+"/ledger")
	c.JSON(http.StatusOK, resp)
}

// run executes p or returns the stored outcome of an identical earlier request.
func (h *SimulationHandler) run(c *gin.Context, p model.SimulationParameters) (string, *simulation.Outcome, error) {
	key := data.CacheKey(p.CommunitySize, p.Season, p.PVPercentage, p.SDPercentage, p.WithBattery, p.Seed)
	if id, ok := h.runs.Get(key); ok {
		if out, ok := h.results.Get(id); ok {
			h.log.WithField("id", id).Debug("serving stored simulation")
			return id, out, nil
		}
	}

	out, err := h.engine.Run(c.Request.Context(), p)
	if err != nil {
		return "", nil, err
	}
	return h.store(key, out), out, nil
}

func (h *SimulationHandler) store(key string, out *simulation.Outcome) string {
	id := uuid.NewString()
	res := *out.Result
	res.ID = id
	out.Result = &res
	h.results.Set(id, out)
	h.runs.Set(key, id)
	return id
}

// GetLedger handles GET /api/simulate/:id/ledger. ?format=csv streams the ledger as CSV.
func (h *SimulationHandler) GetLedger(c *gin.Context) {
	id, out, ok := h.lookup(c)
	if !ok {
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="ledger-`+id+`.csv"`)
		c.Status(http.StatusOK)
		if err := simulation.EncodeLedgerCSV(c.Writer, out.Ledger); err != nil {
			h.log.WithError(err).WithField("id", id).Error("write ledger csv")
		}
		return
	}
	c.JSON(http.StatusOK, models.LedgerResponse{ID: id, Ledger: convertLedger(out.Ledger)})
}

func (h *SimulationHandler) lookup(c *gin.Context) (string, *simulation.Outcome, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Detail: "id must be a UUID",
			Code:   "INVALID_ID",
			Errors: []string{err.Error()},
		})
		return "", nil, false
	}
	out, ok := h.results.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Detail: "No stored simulation with this id; results expire after " + DefaultResultTTL.String(),
			Code:   "NOT_FOUND",
			Errors: []string{},
		})
		return "", nil, false
	}
	return id, out, true
}

// Compare handles POST /api/simulate/compare
func (h *SimulationHandler) Compare(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, invalidRequest(err))
		return
	}

	base := req.Base.ToParams(h.defaultSeed)
	names := []string{"base"}
	params := []model.SimulationParameters{base}
	for _, v := range req.Variations {
		names = append(names, v.Name)
		params = append(params, v.Apply(base))
	}

	outs, err := h.engine.RunMany(c.Request.Context(), params, h.compareLimit)
	if err != nil {
		h.renderRunError(c, err)
		return
	}

	resp := models.CompareResponse{Comparison: make([]models.ComparisonResult, len(outs))}
	for i, out := range outs {
		p := out.Params
		id := h.store(data.CacheKey(p.CommunitySize, p.Season, p.PVPercentage, p.SDPercentage, p.WithBattery, p.Seed), out)
		resp.Comparison[i] = models.ComparisonResult{
			Name:          names[i],
			ID:            id,
			Parameters:    p,
			EnergyMetrics: out.Result.EnergyMetrics,
			CostMetrics:   out.Result.CostMetrics,
			MarketMetrics: out.Result.MarketMetrics,
			Warnings:      out.Result.Warnings,
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SimulationHandler) renderRunError(c *gin.Context, err error) {
	var verr *simulation.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Detail: verr.Error(),
			Code:   "INVALID_PARAMETERS",
			Errors: verr.Problems,
		})
		return
	}
	if ctxErr := c.Request.Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		// client went away; nothing useful to send
		c.Status(499)
		return
	}
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Detail: "Simulation failed",
		Code:   "SIMULATION_ERROR",
		Errors: []string{err.Error()},
	})
}

func invalidRequest(err error) models.ErrorResponse {
	return models.ErrorResponse{
		Detail: err.Error(),
		Code:   "INVALID_REQUEST",
		Errors: bindingErrors(err),
	}
}

func convertLedger(ledger []simulation.LedgerRow) []models.LedgerRow {
	result := make([]models.LedgerRow, len(ledger))
	for i, row := range ledger {
		result[i] = models.LedgerRow{
			Index:           row.Index,
			Start:           row.Start,
			End:             row.End,
			PurchaseCt:      row.PurchaseCt,
			FeedInCt:        row.FeedInCt,
			ClearingPrice:   row.ClearingPrice,
			Production:      row.Production,
			Consumption:     row.Consumption,
			SelfConsumption: row.SelfConsumption,
			Action:          string(row.Action),
			Charge:          row.Charge,
			Discharge:       row.Discharge,
			SOC:             row.SOC,
			Offered:         row.Offered,
			Requested:       row.Requested,
			Traded:          row.Traded,
			GridImport:      row.GridImport,
			GridExport:      row.GridExport,
			CumCost:         row.CumCost,
		}
	}
	return result
}
