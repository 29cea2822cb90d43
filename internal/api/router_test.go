package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"route-planner-service/internal/adapters/realtime"
	"route-planner-service/internal/api/dto"
	"route-planner-service/internal/optimizer"
	"route-planner-service/internal/services"
	"route-planner-service/internal/testutil"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	handler http.Handler
	poly    *testutil.MockPolylineProvider
	store   *testutil.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := testutil.NewStore(t)
	poly := testutil.NewMockPolylineProvider()
	hub := realtime.NewHub()
	hq := testutil.HQ

	routes := &services.RouteService{
		Routes:    store.Routes,
		Orders:    store.Orders,
		Polylines: poly,
		Planner:   optimizer.Planner{Depot: &hq, ReturnToDepot: true},
	}
	tracking := &services.TrackingService{
		Tracking:  store.Tracking,
		Routes:    store.Routes,
		Publisher: hub,
	}

	return &testEnv{
		handler: NewRouter(Dependencies{DB: store.DB, Routes: routes, Tracking: tracking, Subscriber: hub}),
		poly:    poly,
		store:   store,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), "body: %s", rec.Body.String())
	return v
}

func (e *testEnv) createRoute(t *testing.T, body string) dto.RouteDetailResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/routes", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[dto.RouteDetailResponse](t, rec)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = env.do(t, http.MethodPost, "/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestIDIsPropagated(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestCreateRoute(t *testing.T) {
	env := newTestEnv(t)

	res := env.createRoute(t, `{"driver_name":"Ana","created_by":"dispatch","order_ids":[3,1,2]}`)

	assert.NotZero(t, res.ID)
	assert.Equal(t, "Ana", res.DriverName)
	assert.Equal(t, 60.0, res.TotalPrice)
	assert.Equal(t, "polyline:5", res.Polyline)
	require.Len(t, res.Stops, 3)
	assert.Equal(t, int64(3), res.Stops[0].OrderID)
	assert.Equal(t, 1, res.Stops[0].StopIndex)
	require.NotNil(t, res.Stops[0].Lat)
	assert.Equal(t, 46.53, *res.Stops[0].Lat)
}

func TestCreateRouteErrors(t *testing.T) {
	env := newTestEnv(t)
	env.createRoute(t, `{"order_ids":[1,2]}`)

	cases := []struct {
		name string
		body string
		code int
	}{
		{"invalid json", `{"order_ids":`, http.StatusBadRequest},
		{"unknown field", `{"orders":[1,2]}`, http.StatusBadRequest},
		{"too few orders", `{"order_ids":[3]}`, http.StatusBadRequest},
		{"duplicate orders", `{"order_ids":[3,3]}`, http.StatusBadRequest},
		{"unknown order", `{"order_ids":[3,999]}`, http.StatusNotFound},
		{"already routed", `{"order_ids":[3,2,1]}`, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/routes", tc.body)
			assert.Equal(t, tc.code, rec.Code, rec.Body.String())
		})
	}

	rec := env.do(t, http.MethodPost, "/routes", `{"order_ids":[3,2,1]}`)
	var conflict struct {
		Error    string  `json:"error"`
		OrderIDs []int64 `json:"order_ids"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&conflict))
	assert.Equal(t, []int64{1, 2}, conflict.OrderIDs)
}

func TestGetRoute(t *testing.T) {
	env := newTestEnv(t)
	created := env.createRoute(t, `{"order_ids":[1,2]}`)

	rec := env.do(t, http.MethodGet, "/routes/"+itoa(created.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[dto.RouteDetailResponse](t, rec)
	assert.Equal(t, created.ID, res.ID)
	assert.Equal(t, "polyline:4", res.Polyline)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/routes/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/routes/999", "").Code)
}

func TestPolylineFailureIsReportedNotFatal(t *testing.T) {
	env := newTestEnv(t)
	env.poly.SetErr(errors.New("quota exceeded"))

	res := env.createRoute(t, `{"order_ids":[1,2]}`)
	assert.Empty(t, res.Polyline)
	assert.Contains(t, res.PolylineError, "upstream failure")

	rec := env.do(t, http.MethodGet, "/routes", "")
	list := decode[dto.ListRoutesResponse](t, rec)
	assert.Len(t, list.Routes, 1)
}

func TestRouteLifecycle(t *testing.T) {
	env := newTestEnv(t)
	created := env.createRoute(t, `{"order_ids":[2,3,1,4]}`)
	base := "/routes/" + itoa(created.ID)

	rec := env.do(t, http.MethodPost, base+"/optimize", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	optimized := decode[dto.RouteDetailResponse](t, rec)
	got := make([]int64, 0, len(optimized.Stops))
	for _, s := range optimized.Stops {
		got = append(got, s.OrderID)
	}
	assert.Equal(t, []int64{1, 4, 3, 2}, got)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodPatch, base+"/stops/4/complete", "").Code)
	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPatch, base+"/stops/4/complete", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPatch, base+"/stops/7/complete", "").Code)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, base+"/start", "").Code)
	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, base+"/start", "").Code)
	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, base+"/optimize", "").Code)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, base, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, base, "").Code)
}

func TestAutoRouteAndPreview(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/orders/eligible?date=2024-05-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[dto.ListEligibleResponse](t, rec).Orders, 4)

	rec = env.do(t, http.MethodGet, "/routes/preview?date=2024-05-01", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	preview := decode[dto.PreviewResponse](t, rec)
	assert.Len(t, preview.Orders, 4)
	assert.Equal(t, 100.0, preview.TotalPrice)
	assert.Greater(t, preview.DistanceMeters, 0.0)
	assert.Equal(t, "polyline:6", preview.Polyline)

	rec = env.do(t, http.MethodPost, "/routes/auto", `{"driver_name":"Ana","date":"2024-05-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, decode[dto.RouteDetailResponse](t, rec).Stops, 4)

	rec = env.do(t, http.MethodPost, "/routes/auto", `{"date":"2024-05-01"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/orders/eligible?date=tomorrow", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTrackingEndpoints(t *testing.T) {
	env := newTestEnv(t)
	created := env.createRoute(t, `{"order_ids":[1,2]}`)
	id := itoa(created.ID)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodGet, "/tracking/"+id+"/latest", "").Code)

	rec := env.do(t, http.MethodPost, "/tracking/report", `{"route_id":`+id+`,"lat":10,"lng":20}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = env.do(t, http.MethodPost, "/tracking/report", `{"route_id":`+id+`,"lat":11,"lng":21}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/tracking/"+id+"/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)
	latest := decode[dto.PositionResponse](t, rec)
	assert.Equal(t, 11.0, latest.Lat)
	assert.Equal(t, 21.0, latest.Lng)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/tracking/report", `{"route_id":999,"lat":1,"lng":1}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/tracking/report", `{"route_id":`+id+`,"lat":1}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/tracking/report", `{"route_id":`+id+`,"lat":91,"lng":1}`).Code)
}

func TestTrackingStream(t *testing.T) {
	env := newTestEnv(t)
	created := env.createRoute(t, `{"order_ids":[1,2]}`)
	id := itoa(created.ID)

	srv := httptest.NewServer(env.handler)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/tracking/" + id + "/stream"

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/tracking/999/stream", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	body := bytes.NewBufferString(`{"route_id":` + id + `,"lat":46.5,"lng":24.5}`)
	post, err := http.Post(srv.URL+"/tracking/report", "application/json", body)
	require.NoError(t, err)
	post.Body.Close()
	require.Equal(t, http.StatusCreated, post.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var frame dto.PositionResponse
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, created.ID, frame.RouteID)
	assert.Equal(t, 46.5, frame.Lat)
	assert.Equal(t, 24.5, frame.Lng)
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
