package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bivex/subscription-metrics/internal/application/dto"
	"github.com/bivex/subscription-metrics/internal/domain/service"

	domainErrors "github.com/bivex/subscription-metrics/internal/domain/errors"
)

type mockStatsQuery struct{ mock.Mock }

func (m *mockStatsQuery) Execute(ctx context.Context, start, end time.Time) (*dto.StatsResponse, error) {
	args := m.Called(ctx, start, end)
	resp, _ := args.Get(0).(*dto.StatsResponse)
	return resp, args.Error(1)
}

type mockTimeseriesQuery struct{ mock.Mock }

func (m *mockTimeseriesQuery) Execute(ctx context.Context, start, end time.Time, unit string) (*dto.TimeseriesResponse, error) {
	args := m.Called(ctx, start, end, unit)
	resp, _ := args.Get(0).(*dto.TimeseriesResponse)
	return resp, args.Error(1)
}

type mockCompareQuery struct{ mock.Mock }

func (m *mockCompareQuery) Execute(ctx context.Context, current, previous service.Period) (*dto.CompareResponse, error) {
	args := m.Called(ctx, current, previous)
	resp, _ := args.Get(0).(*dto.CompareResponse)
	return resp, args.Error(1)
}

type mockDailyQuery struct{ mock.Mock }

func (m *mockDailyQuery) Execute(ctx context.Context, start, end time.Time) (*dto.DailySnapshotsResponse, error) {
	args := m.Called(ctx, start, end)
	resp, _ := args.Get(0).(*dto.DailySnapshotsResponse)
	return resp, args.Error(1)
}

type statsHandlerFixture struct {
	stats      *mockStatsQuery
	timeseries *mockTimeseriesQuery
	compare    *mockCompareQuery
	daily      *mockDailyQuery
	router     *gin.Engine
}

func newStatsHandlerFixture(t *testing.T) *statsHandlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, RegisterValidators())

	f := &statsHandlerFixture{
		stats:      &mockStatsQuery{},
		timeseries: &mockTimeseriesQuery{},
		compare:    &mockCompareQuery{},
		daily:      &mockDailyQuery{},
	}
	h := NewSubscriptionStatsHandler(f.stats, f.timeseries, f.compare, f.daily)

	f.router = gin.New()
	h.RegisterRoutes(f.router.Group("/v1/admin"))
	return f
}

func (f *statsHandlerFixture) get(target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSubscriptionStatsHandler_GetStats(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	t.Run("date-only bounds are midnight", func(t *testing.T) {
		f := newStatsHandlerFixture(t)
		f.stats.On("Execute", mock.Anything, start, end).
			Return(&dto.StatsResponse{Period: dto.NewPeriodResponse(service.Period{Start: start, End: end})}, nil).
			Once()

		w := f.get("/v1/admin/subscriptions/stats?startDate=2024-01-01&endDate=2024-01-31")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"label":"2024-01-01 to 2024-01-31"`)
		f.stats.AssertExpectations(t)
	})

	t.Run("RFC 3339 bounds are used as given", func(t *testing.T) {
		f := newStatsHandlerFixture(t)
		end := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
		f.stats.On("Execute", mock.Anything, start, end).Return(&dto.StatsResponse{}, nil).Once()

		w := f.get("/v1/admin/subscriptions/stats?startDate=2024-01-01T00:00:00Z&endDate=2024-01-15T12:00:00Z")

		assert.Equal(t, http.StatusOK, w.Code)
		f.stats.AssertExpectations(t)
	})

	t.Run("missing parameter names the field", func(t *testing.T) {
		f := newStatsHandlerFixture(t)

		w := f.get("/v1/admin/subscriptions/stats?endDate=2024-01-31")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeError(t, w)
		assert.Equal(t, "VALIDATION_FAILED", body["error"])
		assert.Equal(t, "startDate", body["field"])
		f.stats.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("malformed date is rejected", func(t *testing.T) {
		f := newStatsHandlerFixture(t)

		w := f.get("/v1/admin/subscriptions/stats?startDate=2024-01-01&endDate=31/01/2024")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "endDate", decodeError(t, w)["field"])
	})

	t.Run("window validation error maps to 400", func(t *testing.T) {
		f := newStatsHandlerFixture(t)
		f.stats.On("Execute", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, domainErrors.WrapValidationError("startDate", "must be before endDate", domainErrors.ErrInvalidDateRange)).
			Once()

		w := f.get("/v1/admin/subscriptions/stats?startDate=2024-02-01&endDate=2024-01-01")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "startDate", decodeError(t, w)["field"])
	})

	t.Run("deadline maps to 504", func(t *testing.T) {
		f := newStatsHandlerFixture(t)
		f.stats.On("Execute", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, context.DeadlineExceeded).Once()

		w := f.get("/v1/admin/subscriptions/stats?startDate=2024-01-01&endDate=2024-01-31")

		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	})

	t.Run("unexpected error maps to 500", func(t *testing.T) {
		f := newStatsHandlerFixture(t)
		f.stats.On("Execute", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("connection reset")).Once()

		w := f.get("/v1/admin/subscriptions/stats?startDate=2024-01-01&endDate=2024-01-31")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "INTERNAL_ERROR", decodeError(t, w)["error"])
	})
}

func TestSubscriptionStatsHandler_GetTimeseries(t *testing.T) {
	t.Run("passes the grouping unit through", func(t *testing.T) {
		f := newStatsHandlerFixture(t)
		f.timeseries.On("Execute", mock.Anything, mock.Anything, mock.Anything, "week").
			Return(&dto.TimeseriesResponse{GroupBy: "week"}, nil).Once()

		w := f.get("/v1/admin/subscriptions/stats/timeseries?startDate=2024-01-01&endDate=2024-03-31&groupBy=week")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"groupBy":"week"`)
		f.timeseries.AssertExpectations(t)
	})

	t.Run("empty unit is left to the query default", func(t *testing.T) {
		f := newStatsHandlerFixture(t)
		f.timeseries.On("Execute", mock.Anything, mock.Anything, mock.Anything, "").
			Return(&dto.TimeseriesResponse{GroupBy: "month"}, nil).Once()

		w := f.get("/v1/admin/subscriptions/stats/timeseries?startDate=2024-01-01&endDate=2024-03-31")

		assert.Equal(t, http.StatusOK, w.Code)
		f.timeseries.AssertExpectations(t)
	})

	t.Run("unknown unit fails binding", func(t *testing.T) {
		f := newStatsHandlerFixture(t)

		w := f.get("/v1/admin/subscriptions/stats/timeseries?startDate=2024-01-01&endDate=2024-03-31&groupBy=year")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "groupBy", decodeError(t, w)["field"])
	})

	t.Run("unit too fine for the window", func(t *testing.T) {
		f := newStatsHandlerFixture(t)
		f.timeseries.On("Execute", mock.Anything, mock.Anything, mock.Anything, "day").
			Return(nil, domainErrors.WrapValidationError("groupBy", "day grouping allows at most 365 days", domainErrors.ErrGroupByTooFine)).
			Once()

		w := f.get("/v1/admin/subscriptions/stats/timeseries?startDate=2023-01-01&endDate=2024-06-30&groupBy=day")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "groupBy", decodeError(t, w)["field"])
	})
}

func TestSubscriptionStatsHandler_Compare(t *testing.T) {
	t.Run("parses both windows", func(t *testing.T) {
		f := newStatsHandlerFixture(t)
		current := service.Period{
			Start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		}
		previous := service.Period{
			Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		}
		f.compare.On("Execute", mock.Anything, current, previous).
			Return(&dto.CompareResponse{
				CurrentPeriod:  dto.NewPeriodResponse(current),
				PreviousPeriod: dto.NewPeriodResponse(previous),
			}, nil).Once()

		w := f.get("/v1/admin/subscriptions/stats/compare?currentStartDate=2024-02-01&currentEndDate=2024-02-29" +
			"&previousStartDate=2024-01-01&previousEndDate=2024-01-31")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"label":"2024-02-01 to 2024-02-29"`)
		f.compare.AssertExpectations(t)
	})

	t.Run("missing previous window", func(t *testing.T) {
		f := newStatsHandlerFixture(t)

		w := f.get("/v1/admin/subscriptions/stats/compare?currentStartDate=2024-02-01&currentEndDate=2024-02-29")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "previousStartDate", decodeError(t, w)["field"])
	})
}

func TestSubscriptionStatsHandler_ListDaily(t *testing.T) {
	f := newStatsHandlerFixture(t)
	f.daily.On("Execute", mock.Anything, mock.Anything, mock.Anything).
		Return(&dto.DailySnapshotsResponse{Count: 2, Snapshots: []dto.DailySnapshotResponse{{Date: "2024-01-01"}, {Date: "2024-01-02"}}}, nil).
		Once()

	w := f.get("/v1/admin/subscriptions/stats/daily?startDate=2024-01-01&endDate=2024-01-02")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":2`)
	f.daily.AssertExpectations(t)
}

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("all dependencies up", func(t *testing.T) {
		h := NewHealthHandler(map[string]HealthCheck{
			"database": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return nil },
		})
		r := gin.New()
		r.GET("/health", h.GetHealth)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok","database":"ok","redis":"ok"}`, w.Body.String())
	})

	t.Run("one dependency down", func(t *testing.T) {
		h := NewHealthHandler(map[string]HealthCheck{
			"database": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("dial tcp: refused") },
		})
		r := gin.New()
		r.GET("/health", h.GetHealth)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"status":"degraded","database":"ok","redis":"dial tcp: refused"}`, w.Body.String())
	})
}
