package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lec-simulator/internal/api/handlers"
	"lec-simulator/internal/api/middleware"
	"lec-simulator/internal/api/models"
	"lec-simulator/internal/data"
	"lec-simulator/internal/grid"
	"lec-simulator/internal/market"
	"lec-simulator/internal/model"
	"lec-simulator/internal/simulation"
	"lec-simulator/internal/telemetry"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router    *gin.Engine
	telemetry *telemetry.Collector
}

func newTestServer(t *testing.T, limiter *middleware.RateLimiter) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := logtest.NewNullLogger()

	collector, err := telemetry.NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)

	engine, err := simulation.New(data.SyntheticProvider{Options: data.SyntheticOptions{
		Households: 60,
		Start:      time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC),
		Days:       2,
		Seed:       7,
	}}, simulation.Options{Logger: logger, Observer: collector})
	require.NoError(t, err)

	sims := handlers.NewSimulationHandler(engine, 42, logger)
	t.Cleanup(sims.Close)

	router := NewRouter(Deps{
		Simulations: sims,
		Parameters:  handlers.NewParametersHandler(model.DefaultBatteryParams(), grid.DefaultSchedule(), market.PairingProportional, 42),
		Datasets:    handlers.NewDatasetHandler(engine),
		Telemetry:   collector,
		Limiter:     limiter,
		Logger:      logger,
	})
	return testServer{router: router, telemetry: collector}
}

func (s testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

const validBody = `{"community_size":5,"season":"sum","pv_percentage":60,"sd_percentage":0,"with_battery":true}`

func TestSimulateReturnsResult(t *testing.T) {
	s := newTestServer(t, nil)

	rr := s.do(t, http.MethodPost, "/api/simulate", validBody)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	for _, key := range []string{"id", "energy_metrics", "cost_metrics", "market_metrics", "profiles",
		"trading_network", "individual_metrics", "warnings", "errors"} {
		assert.Contains(t, raw, key)
	}
	assert.NotContains(t, raw, "ledger")

	resp := decode[models.SimulateResponse](t, rr)
	assert.NotEmpty(t, resp.ID)
	assert.Len(t, resp.Profiles.LoadProfile, 24)
	assert.Len(t, resp.TradingNetwork.Nodes, 6)
	assert.Equal(t, "/api/simulate/"+resp.ID+"/ledger", rr.Header().Get("Location"))
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))

	again := decode[models.SimulateResponse](t, s.do(t, http.MethodPost, "/api/simulate", validBody))
	assert.Equal(t, resp.ID, again.ID, "identical parameters reuse the stored run")
	assert.Equal(t, 1.0, testutil.ToFloat64(s.telemetry.Runs.WithLabelValues("ok")))
}

func TestSimulateIncludesLedger(t *testing.T) {
	s := newTestServer(t, nil)
	body := `{"community_size":5,"season":"sum","pv_percentage":60,"sd_percentage":0,"include_ledger":true,"seed":3}`
	resp := decode[models.SimulateResponse](t, s.do(t, http.MethodPost, "/api/simulate", body))
	assert.Len(t, resp.Ledger, 48)
}

func TestSimulateRejectsInvalidInput(t *testing.T) {
	s := newTestServer(t, nil)
	cases := map[string]string{
		"too small":     `{"community_size":4,"season":"sum","pv_percentage":0,"sd_percentage":0}`,
		"too large":     `{"community_size":101,"season":"sum","pv_percentage":0,"sd_percentage":0}`,
		"bad season":    `{"community_size":5,"season":"monsoon","pv_percentage":0,"sd_percentage":0}`,
		"missing pv":    `{"community_size":5,"season":"sum","sd_percentage":0}`,
		"pv over 100":   `{"community_size":5,"season":"sum","pv_percentage":120,"sd_percentage":0}`,
		"malformed":     `{"community_size":`,
		"not enough hh": `{"community_size":11,"season":"sum","pv_percentage":0,"sd_percentage":0}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rr := s.do(t, http.MethodPost, "/api/simulate", body)
			require.Equal(t, http.StatusBadRequest, rr.Code)
			resp := decode[models.ErrorResponse](t, rr)
			assert.NotEmpty(t, resp.Detail)
			assert.NotEmpty(t, resp.Errors)
		})
	}

	resp := decode[models.ErrorResponse](t, s.do(t, http.MethodPost, "/api/simulate",
		`{"community_size":4,"season":"sum","pv_percentage":0,"sd_percentage":0}`))
	assert.Equal(t, "INVALID_REQUEST", resp.Code)
	assert.Contains(t, resp.Errors[0], "CommunitySize")

	resp = decode[models.ErrorResponse](t, s.do(t, http.MethodPost, "/api/simulate", cases["not enough hh"]))
	assert.Equal(t, "INVALID_PARAMETERS", resp.Code)
	assert.Contains(t, resp.Detail, "insufficient households")
}

func TestLedgerAndRankLookups(t *testing.T) {
	s := newTestServer(t, nil)
	resp := decode[models.SimulateResponse](t, s.do(t, http.MethodPost, "/api/simulate", validBody))

	ledger := decode[models.LedgerResponse](t, s.do(t, http.MethodGet, "/api/simulate/"+resp.ID+"/ledger", ""))
	assert.Equal(t, resp.ID, ledger.ID)
	require.Len(t, ledger.Ledger, 48)
	assert.Equal(t, resp.CostMetrics.CostWithLEC, ledger.Ledger[47].CumCost)

	rr := s.do(t, http.MethodGet, "/api/simulate/"+resp.ID+"/ledger?format=csv", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	assert.Len(t, lines, 49)

	rank := decode[models.RankResponse](t, s.do(t, http.MethodGet, "/api/simulate/"+resp.ID+"/rank?limit=3", ""))
	require.Len(t, rank.Rankings, 3)
	assert.Equal(t, 1, rank.Rankings[0].Rank)
	assert.GreaterOrEqual(t, rank.Rankings[0].Savings, rank.Rankings[1].Savings)
	assert.GreaterOrEqual(t, rank.Rankings[1].Savings, rank.Rankings[2].Savings)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/simulate/not-a-uuid/ledger", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/simulate/7f1b0c3e-5d0a-4b8e-9f43-0a6f2f6b1c11/ledger", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/simulate/"+resp.ID+"/rank?limit=0x", "").Code)
}

func TestCompareRunsVariations(t *testing.T) {
	s := newTestServer(t, nil)
	body := `{
		"base": {"community_size":5,"season":"sum","pv_percentage":60,"sd_percentage":0},
		"variations": [
			{"name":"battery","with_battery":true},
			{"name":"no pv","pv_percentage":0}
		]
	}`
	rr := s.do(t, http.MethodPost, "/api/simulate/compare", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	resp := decode[models.CompareResponse](t, rr)
	require.Len(t, resp.Comparison, 3)
	assert.Equal(t, []string{"base", "battery", "no pv"},
		[]string{resp.Comparison[0].Name, resp.Comparison[1].Name, resp.Comparison[2].Name})
	assert.True(t, resp.Comparison[1].Parameters.WithBattery)
	assert.Zero(t, resp.Comparison[2].EnergyMetrics.TradingVolume)
	assert.Equal(t, uint64(42), resp.Comparison[0].Parameters.Seed)

	bad := `{"base": {"community_size":5,"season":"sum","pv_percentage":60,"sd_percentage":0},
		"variations": [{"name":"huge","community_size":500}]}`
	rr = s.do(t, http.MethodPost, "/api/simulate/compare", bad)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/simulate/compare", `{"base": {"community_size":5,"season":"sum","pv_percentage":60,"sd_percentage":0}, "variations": []}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestParametersAndDataset(t *testing.T) {
	s := newTestServer(t, nil)

	params := decode[models.ParametersResponse](t, s.do(t, http.MethodGet, "/api/parameters", ""))
	assert.Equal(t, 6, params.HouseholdsPerBuilding)
	assert.InDelta(t, 12.86, params.Tariff.ClearingPriceCt, 1e-9)
	assert.Len(t, params.Seasons, 4)
	assert.Equal(t, []int{12, 1, 2}, params.Seasons[1].Months)

	ds := decode[models.DatasetInfo](t, s.do(t, http.MethodGet, "/api/dataset", ""))
	assert.Equal(t, 60, ds.Households)
	assert.Equal(t, 48, ds.Hours)
	assert.Equal(t, 10, ds.MaxSize)
	assert.Equal(t, map[string]int{"sum": 48}, ds.Seasons)
}

func TestHealthMetricsAndNotFound(t *testing.T) {
	s := newTestServer(t, nil)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", "").Code)

	s.do(t, http.MethodPost, "/api/simulate", validBody)
	rr := s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "lec_simulations_total")

	rr = s.do(t, http.MethodGet, "/api/nothing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "NOT_FOUND", decode[models.ErrorResponse](t, rr).Code)
}

func TestRateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(0.001, 1)
	t.Cleanup(limiter.Close)
	s := newTestServer(t, limiter)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/simulate", validBody).Code)

	rr := s.do(t, http.MethodPost, "/api/simulate", validBody)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	// lookups are not limited
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/parameters", "").Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/simulate", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestPanicsBecomeJSON(t *testing.T) {
	s := newTestServer(t, nil)
	s.router.GET("/boom", func(c *gin.Context) { panic("boom") })

	rr := s.do(t, http.MethodGet, "/boom", "")
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	resp := decode[models.ErrorResponse](t, rr)
	assert.Equal(t, "INTERNAL_ERROR", resp.Code)
	assert.Equal(t, []string{"boom"}, resp.Errors)
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", bytes.NewReader(nil))
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", rr.Header().Get(middleware.RequestIDHeader))
}
