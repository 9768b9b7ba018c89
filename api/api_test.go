package api

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	persons "github.com/getpup/persons-api"
	"github.com/getpup/persons-api/forecast"
	"github.com/getpup/persons-api/logging"
	"github.com/getpup/persons-api/metrics"
	"github.com/getpup/persons-api/store"
	"github.com/getpup/persons-api/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, s store.PersonStore) *Server {
	t.Helper()

	srv, err := New(Config{
		Store: s,
		Forecast: forecast.NewGenerator(
			[]string{"Freezing", "Mild"},
			forecast.WithRand(rand.New(rand.NewPCG(1, 2))),
			forecast.WithClock(func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }),
		),
	})
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(Config{})

	assert.ErrorIs(t, err, ErrStoreRequired)
}

func TestCreatePerson(t *testing.T) {
	srv := newTestServer(t, memory.New())

	rec := do(t, srv, http.MethodPost, "/persons", `{"name":"Ada","age":36}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/persons/1", rec.Header().Get("Location"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	p := decode[persons.Person](t, rec)
	assert.Equal(t, persons.Person{ID: 1, Name: "Ada", Age: 36}, p)
}

func TestCreatePerson_IgnoresClientID(t *testing.T) {
	srv := newTestServer(t, memory.New())

	rec := do(t, srv, http.MethodPost, "/persons", `{"id":99,"name":"Ada","age":36}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(1), decode[persons.Person](t, rec).ID)
}

func TestCreatePerson_InvalidJSON(t *testing.T) {
	mock := store.NewMockPersonStore()
	srv := newTestServer(t, mock)

	for _, body := range []string{`{"name":`, `not json`, `{"age":"old"}`} {
		rec := do(t, srv, http.MethodPost, "/persons", body)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
	assert.Empty(t, mock.CreateCalls)
}

func TestCreatePerson_StoreError(t *testing.T) {
	mock := store.NewMockPersonStore()
	mock.CreateFunc = func(ctx context.Context, p *persons.Person) error {
		return errors.New("disk full")
	}
	recorder := logging.NewRecorder()

	srv, err := New(Config{Store: mock, Logger: recorder})
	require.NoError(t, err)

	rec := do(t, srv, http.MethodPost, "/persons", `{"name":"Ada","age":36}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk full")

	var failures []logging.Entry
	for _, e := range recorder.Level("error") {
		if e.Msg == "request failed" {
			failures = append(failures, e)
		}
	}
	require.Len(t, failures, 1)
	assert.Equal(t, "create", failures[0].Value("operation"))
}

func TestListPersons(t *testing.T) {
	srv := newTestServer(t, memory.New())

	rec := do(t, srv, http.MethodGet, "/persons", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	do(t, srv, http.MethodPost, "/persons", `{"name":"Ada","age":36}`)
	do(t, srv, http.MethodPost, "/persons", `{"name":"Grace","age":85}`)

	rec = do(t, srv, http.MethodGet, "/persons", "")
	require.Equal(t, http.StatusOK, rec.Code)

	list := decode[[]persons.Person](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, "Ada", list[0].Name)
	assert.Equal(t, "Grace", list[1].Name)
}

func TestListPersons_NilSliceEncodesAsEmptyArray(t *testing.T) {
	mock := store.NewMockPersonStore()
	mock.ListFunc = func(ctx context.Context) ([]persons.Person, error) {
		return nil, nil
	}
	srv := newTestServer(t, mock)

	rec := do(t, srv, http.MethodGet, "/persons", "")

	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetPerson(t *testing.T) {
	srv := newTestServer(t, memory.New())
	do(t, srv, http.MethodPost, "/persons", `{"name":"Ada","age":36}`)

	rec := do(t, srv, http.MethodGet, "/persons/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ada", decode[persons.Person](t, rec).Name)

	rec = do(t, srv, http.MethodGet, "/persons/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Person with ID 2 not found.", decode[string](t, rec))
}

func TestUpdatePerson(t *testing.T) {
	srv := newTestServer(t, memory.New())
	do(t, srv, http.MethodPost, "/persons", `{"name":"Ada","age":36}`)

	rec := do(t, srv, http.MethodPut, "/persons/1", `{"id":5,"name":"Ada Lovelace","age":37}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, persons.Person{ID: 1, Name: "Ada Lovelace", Age: 37}, decode[persons.Person](t, rec))

	rec = do(t, srv, http.MethodGet, "/persons/1", "")
	assert.Equal(t, "Ada Lovelace", decode[persons.Person](t, rec).Name)
}

func TestUpdatePerson_NotFound(t *testing.T) {
	srv := newTestServer(t, memory.New())

	rec := do(t, srv, http.MethodPut, "/persons/42", `{"name":"Nobody","age":1}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Person with ID 42 not found.", decode[string](t, rec))
}

func TestUpdatePerson_BadRequest(t *testing.T) {
	mock := store.NewMockPersonStore()
	srv := newTestServer(t, mock)

	rec := do(t, srv, http.MethodPut, "/persons/abc", `{"name":"Ada","age":36}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPut, "/persons/1", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, mock.UpdateCalls)
}

func TestDeletePerson(t *testing.T) {
	srv := newTestServer(t, memory.New())
	do(t, srv, http.MethodPost, "/persons", `{"name":"Ada","age":36}`)

	rec := do(t, srv, http.MethodDelete, "/persons/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Person with ID 1 deleted.", decode[string](t, rec))

	rec = do(t, srv, http.MethodDelete, "/persons/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Person with ID 1 not found.", decode[string](t, rec))

	rec = do(t, srv, http.MethodGet, "/persons", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestDeletePerson_StoreError(t *testing.T) {
	mock := store.NewMockPersonStore()
	mock.DeleteFunc = func(ctx context.Context, id int64) error {
		return errors.New("connection reset")
	}
	srv := newTestServer(t, mock)

	rec := do(t, srv, http.MethodDelete, "/persons/1", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Len(t, mock.DeleteCalls, 1)
	assert.Equal(t, int64(1), mock.DeleteCalls[0].ID)
}

func TestWeatherForecast(t *testing.T) {
	srv := newTestServer(t, memory.New())

	rec := do(t, srv, http.MethodGet, "/weatherforecast", "")
	require.Equal(t, http.StatusOK, rec.Code)

	forecasts := decode[[]persons.WeatherForecast](t, rec)
	require.Len(t, forecasts, forecast.DefaultDays)
	assert.Equal(t, "2024-01-02", forecasts[0].Date)
	assert.Equal(t, "2024-01-06", forecasts[4].Date)
	for _, f := range forecasts {
		assert.GreaterOrEqual(t, f.TemperatureC, -20)
		assert.Less(t, f.TemperatureC, 55)
		assert.Contains(t, []string{"Freezing", "Mild"}, f.Summary)
	}
}

func TestHealthz(t *testing.T) {
	mock := store.NewMockPersonStore()
	mock.PingFunc = func(ctx context.Context) error {
		return errors.New("down")
	}
	srv := newTestServer(t, mock)

	rec := do(t, srv, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, mock.PingCalls)
}

func TestReadyz(t *testing.T) {
	mock := store.NewMockPersonStore()
	recorder := logging.NewRecorder()

	srv, err := New(Config{Store: mock, Logger: recorder})
	require.NoError(t, err)

	rec := do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	mock.PingFunc = func(ctx context.Context) error {
		return errors.New("dial tcp 10.0.0.5:5432: connection refused")
	}

	rec = do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.Equal(t, 2, mock.PingCalls)

	var failures []logging.Entry
	for _, e := range recorder.Level("warn") {
		if e.Msg == "readiness check failed" {
			failures = append(failures, e)
		}
	}
	require.Len(t, failures, 1)
	assert.ErrorContains(t, failures[0].Value("error").(error), "connection refused")
}

func TestOpenAPI(t *testing.T) {
	srv := newTestServer(t, memory.New())

	rec := do(t, srv, http.MethodGet, "/openapi.json", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		OpenAPI    string                    `json:"openapi"`
		Paths      map[string]map[string]any `json:"paths"`
		Components struct {
			Schemas map[string]struct {
				Type       string                    `json:"type"`
				Properties map[string]map[string]any `json:"properties"`
			} `json:"schemas"`
		} `json:"components"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))

	assert.Equal(t, "3.1.0", doc.OpenAPI)
	assert.Contains(t, doc.Paths, "/persons")
	assert.Contains(t, doc.Paths, "/persons/{id}")
	assert.Contains(t, doc.Paths, "/weatherforecast")
	assert.Contains(t, doc.Paths["/persons/{id}"], "delete")

	person := doc.Components.Schemas["Person"]
	assert.Equal(t, "object", person.Type)
	assert.Contains(t, person.Properties, "name")
	assert.Contains(t, person.Properties, "age")
	assert.Equal(t, true, person.Properties["id"]["readOnly"])

	forecastSchema := doc.Components.Schemas["WeatherForecast"]
	assert.Contains(t, forecastSchema.Properties, "temperatureF")
	assert.Equal(t, "date", forecastSchema.Properties["date"]["format"])
}

func TestCORS(t *testing.T) {
	srv, err := New(Config{
		Store:          memory.New(),
		AllowedOrigins: []string{"https://app.example.com"},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodOptions, "/persons", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/persons", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLogging(t *testing.T) {
	recorder := logging.NewRecorder()
	srv, err := New(Config{Store: memory.New(), Logger: recorder})
	require.NoError(t, err)

	do(t, srv, http.MethodGet, "/persons", "")
	do(t, srv, http.MethodGet, "/persons/9", "")

	infos := recorder.Level("info")
	require.Len(t, infos, 1)
	assert.Equal(t, "/persons", infos[0].Value("path"))
	assert.Equal(t, http.StatusOK, infos[0].Value("status"))
	assert.NotEmpty(t, infos[0].Value("request_id"))

	warns := recorder.Level("warn")
	require.Len(t, warns, 1)
	assert.Equal(t, http.StatusNotFound, warns[0].Value("status"))
}

func TestRecoversFromPanics(t *testing.T) {
	mock := store.NewMockPersonStore()
	mock.ListFunc = func(ctx context.Context) ([]persons.Person, error) {
		panic("boom")
	}
	srv := newTestServer(t, mock)

	rec := do(t, srv, http.MethodGet, "/persons", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, err := New(Config{
		Store:          memory.New(),
		InstrumentHTTP: true,
		MetricsHandler: metrics.Handler(),
	})
	require.NoError(t, err)

	do(t, srv, http.MethodGet, "/weatherforecast", "")

	rec := do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `persons_api_http_requests_total{method="GET",route="/weatherforecast",status="200"}`)
}

func TestMetricsEndpoint_DisabledByDefault(t *testing.T) {
	srv := newTestServer(t, memory.New())

	rec := do(t, srv, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
