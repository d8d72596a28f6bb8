package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/fenilmodi00/ipo-tracker/jobs"
	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/services"
	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	items   []models.IPOListItem
	detail  *models.IPODetail
	news    []models.IPONews
	err     error
	filters []models.IPOFilter
	limits  []int
}

func (f *fakeReader) ListIPOs(_ context.Context, filter models.IPOFilter) ([]models.IPOListItem, error) {
	f.filters = append(f.filters, filter)
	if _, err := services.NormalizeFilter(filter); err != nil {
		return nil, err
	}
	return f.items, f.err
}

func (f *fakeReader) GetIPODetail(_ context.Context, id uuid.UUID) (*models.IPODetail, error) {
	if f.detail == nil || f.detail.IPO.ID != id {
		return nil, f.err
	}
	return f.detail, nil
}

func (f *fakeReader) Dashboard(context.Context) (*models.Dashboard, error) {
	return &models.Dashboard{Upcoming: f.items, Counts: models.EntityCounts{IPOs: len(f.items)}}, f.err
}

func (f *fakeReader) ListNews(_ context.Context, limit int) ([]models.IPONews, error) {
	f.limits = append(f.limits, limit)
	return f.news, f.err
}

type fakeSync struct {
	result *models.SyncResult
	err    error
	opts   []services.SyncOptions
}

func (f *fakeSync) Sync(_ context.Context, opts services.SyncOptions) (*models.SyncResult, error) {
	f.opts = append(f.opts, opts)
	return f.result, f.err
}

type fakeStatus struct {
	report *models.SystemStatus
	err    error
}

func (f *fakeStatus) Status(context.Context) (*models.SystemStatus, error) {
	return f.report, f.err
}

type fakeGMPJob struct {
	stats services.GMPUpdateStats
	err   error
}

func (f *fakeGMPJob) Update(context.Context) (services.GMPUpdateStats, error) {
	return f.stats, f.err
}

type fakeNewsJob struct {
	stats services.NewsUpdateStats
	err   error
}

func (f *fakeNewsJob) Update(context.Context) (services.NewsUpdateStats, error) {
	return f.stats, f.err
}

type echoChat struct{ got []string }

func (e *echoChat) Respond(_ context.Context, message string) string {
	e.got = append(e.got, message)
	return "echo: " + message
}

type testServer struct {
	app    *fiber.App
	reader *fakeReader
	sync   *fakeSync
	status *fakeStatus
	gmp    *fakeGMPJob
	news   *fakeNewsJob
	chat   *echoChat
}

func newTestServer() *testServer {
	s := &testServer{
		reader: &fakeReader{},
		sync:   &fakeSync{},
		status: &fakeStatus{},
		gmp:    &fakeGMPJob{},
		news:   &fakeNewsJob{},
		chat:   &echoChat{},
	}
	s.app = NewApp(false)
	RegisterRoutes(s.app, Handlers{
		IPO:         NewIPOHandler(s.reader),
		Admin:       NewAdminHandler(s.sync, s.status, s.gmp, s.news),
		Chat:        NewChatHandler(s.chat),
		Performance: NewPerformanceHandler(nil, nil, services.NewUtilityService()),
		Health:      NewHealthHandler(nil),
	})
	return s
}

func (s *testServer) do(t *testing.T, req *http.Request) (int, map[string]interface{}) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded), string(body))
	return resp.StatusCode, decoded
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealth(t *testing.T) {
	s := newTestServer()
	code, body := s.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestHealthReportsDatabaseFailure(t *testing.T) {
	app := NewApp(false)
	RegisterRoutes(app, Handlers{Health: NewHealthHandler(func(context.Context) error {
		return errors.New("database ping failed")
	})})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestListIPOs(t *testing.T) {
	s := newTestServer()
	s.reader.items = []models.IPOListItem{{CompanyName: "Alpha Corp", CompanySymbol: "ABC"}}

	code, body := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/ipos?status=upcoming&exchange=NSE&search=alpha&limit=10&offset=5", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["count"])

	require.Len(t, s.reader.filters, 1)
	assert.Equal(t, models.IPOFilter{
		Status: models.IPOStatusUpcoming, Exchange: models.ExchangeNSE, Search: "alpha", Limit: 10, Offset: 5,
	}, s.reader.filters[0])
}

func TestListIPOsRejectsBadFilter(t *testing.T) {
	s := newTestServer()
	code, body := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/ipos?status=listed", nil))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])
}

func TestListIPOsEmptyIsArray(t *testing.T) {
	s := newTestServer()
	code, body := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/ipos", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{}, body["data"])
}

func TestGetIPOByID(t *testing.T) {
	s := newTestServer()
	id := uuid.New()
	s.reader.detail = &models.IPODetail{IPO: models.IPO{ID: id, Status: models.IPOStatusOngoing}}

	code, body := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/ipos/"+id.String(), nil))
	assert.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]interface{})
	ipo := data["ipo"].(map[string]interface{})
	assert.Equal(t, id.String(), ipo["id"])

	code, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/ipos/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, code)

	code, body = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/ipos/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid IPO ID format", body["error"])
}

func TestDashboardAndNews(t *testing.T) {
	s := newTestServer()
	s.reader.items = []models.IPOListItem{{CompanyName: "Alpha Corp"}}
	s.reader.news = []models.IPONews{{Title: "Alpha Corp IPO opens"}}

	code, body := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))
	assert.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]interface{})
	assert.Len(t, data["upcoming"], 1)

	code, body = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/news?limit=5", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, []int{5}, s.reader.limits)

	s.reader.err = errors.New("db down")
	code, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/news", nil))
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestSyncRequiresPost(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/sync-ipo-data", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, http.MethodPost, resp.Header.Get("Allow"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, map[string]string{"status": "error", "message": "Only POST method allowed"}, body)
	assert.Empty(t, s.sync.opts)
}

func TestSyncFromJSONBody(t *testing.T) {
	s := newTestServer()
	s.sync.result = &models.SyncResult{
		Mode:  models.SyncModeAPI,
		Stats: models.SyncStats{Fetched: 3, Processed: 3, Created: 2, Updated: 1},
		From:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		To:    time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
	}

	code, body := s.do(t, jsonRequest(http.MethodPost, "/api/sync-ipo-data", `{"from_date":"2025-06-01","to_date":"2025-06-30"}`))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "api", body["mode"])
	assert.Equal(t, "IPO data synced: 2 created, 1 updated, 0 errors", body["message"])
	assert.Equal(t, "2025-06-30", body["to_date"])

	require.Len(t, s.sync.opts, 1)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), s.sync.opts[0].From)
	assert.False(t, s.sync.opts[0].Force)
}

func TestSyncFromFormBodyWithForce(t *testing.T) {
	s := newTestServer()
	s.sync.result = &models.SyncResult{Mode: models.SyncModeSample, Stats: models.SyncStats{Created: 4}}

	form := url.Values{"force": {"true"}}
	req := httptest.NewRequest(http.MethodPost, "/api/sync-ipo-data/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	code, body := s.do(t, req)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "sample", body["mode"])
	assert.Contains(t, body["message"], "Sample IPO data created")
	require.Len(t, s.sync.opts, 1)
	assert.True(t, s.sync.opts[0].Force)
	assert.True(t, s.sync.opts[0].From.IsZero())
}

func TestSyncErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		body string
		code int
	}{
		{"in progress", services.ErrSyncInProgress, "", http.StatusConflict},
		{"not configured", services.ErrFinnhubNotConfigured, "", http.StatusBadRequest},
		{"inverted window", services.ErrInvalidSyncWindow, "", http.StatusBadRequest},
		{"sample failure", errors.New("insert failed"), "", http.StatusInternalServerError},
		{"bad date", nil, `{"from_date":"01/06/2025"}`, http.StatusBadRequest},
		{"bad body", nil, `{"force":`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer()
			s.sync.err = tc.err

			code, body := s.do(t, jsonRequest(http.MethodPost, "/api/v1/admin/sync", tc.body))
			assert.Equal(t, tc.code, code)
			assert.Equal(t, "error", body["status"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestStatus(t *testing.T) {
	s := newTestServer()
	s.status.report = &models.SystemStatus{
		Integrations: map[string]bool{"finnhub": false, "gemini": true},
		Counts:       models.EntityCounts{Companies: 4, IPOs: 4},
	}

	code, body := s.do(t, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, map[string]interface{}{"finnhub": false, "gemini": true}, body["integrations"])
	counts := body["counts"].(map[string]interface{})
	assert.Equal(t, float64(4), counts["ipos"])
	assert.Nil(t, body["last_sync"])

	s.status.err = errors.New("db down")
	code, body = s.do(t, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "error", body["status"])
}

func TestManualJobTriggers(t *testing.T) {
	s := newTestServer()
	s.gmp.stats = services.GMPUpdateStats{Rows: 4, Matched: 2, Updated: 2}

	code, body := s.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/admin/gmp/update", nil))
	assert.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["updated"])

	s.gmp.err = jobs.ErrJobBusy
	code, _ = s.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/admin/gmp/update", nil))
	assert.Equal(t, http.StatusConflict, code)

	s.news.err = shared.NewServiceError(shared.ErrorCategoryNetwork, "ALL_FEEDS_FAILED", "all news feeds failed", "News_Service", "UpdateNews", true, nil)
	code, body = s.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/admin/news/update", nil))
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, false, body["success"])
}

func TestChatGetResponse(t *testing.T) {
	s := newTestServer()

	code, body := s.do(t, httptest.NewRequest(http.MethodGet, "/get-response?message="+url.QueryEscape("Tell me about Alpha Corp"), nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "echo: Tell me about Alpha Corp", body["response"])

	code, body = s.do(t, jsonRequest(http.MethodPost, "/get-response", `{"message":"risk factors?"}`))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "echo: risk factors?", body["response"])

	form := url.Values{"message": {"from a form"}}
	req := httptest.NewRequest(http.MethodPost, "/get-response", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	_, body = s.do(t, req)
	assert.Equal(t, "echo: from a form", body["response"])
}

func TestPerformanceMetricsAndCache(t *testing.T) {
	s := newTestServer()

	code, body := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/admin/metrics", nil))
	assert.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]interface{})
	assert.Contains(t, data["services"], "Utility_Service")

	code, body = s.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/admin/cache", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["success"], "no cache wired in this server")
}

func TestPerformanceClearsCache(t *testing.T) {
	cache := services.NewCacheService(10)
	cache.Set(context.Background(), "ipos:dashboard", []byte("{}"), time.Hour)
	cached := services.NewCachedIPOService(services.NewIPOService(nil, nil, nil), cache, time.Minute)

	app := NewApp(false)
	RegisterRoutes(app, Handlers{Performance: NewPerformanceHandler(nil, cached)})

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/admin/cache", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, cache.Size())
}
