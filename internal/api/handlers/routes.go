package handlers

import (
	"net/http"
	"route-planner-service/internal/api/dto"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/services"
)

// RouteHandler exposes route lifecycle endpoints.
type RouteHandler struct {
	Service *services.RouteService
}

func (h *RouteHandler) List(w http.ResponseWriter, r *http.Request) {
	routes, err := h.Service.ListRoutes(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.ListRoutesResponse{Routes: make([]dto.RouteResponse, 0, len(routes))}
	for _, route := range routes {
		res.Routes = append(res.Routes, toRouteResponse(*route))
	}
	writeJSON(w, r, http.StatusOK, res)
}

// Create persists a route from an explicit order list.
func (h *RouteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRouteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := h.Service.CreateManual(r.Context(), services.CreateManualRequest{
		DriverName: req.DriverName,
		CreatedBy:  req.CreatedBy,
		OrderIDs:   req.OrderIDs,
		Optimize:   req.Optimize,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toRouteDetailResponse(detail))
}

// Auto builds an optimized route from every eligible order.
func (h *RouteHandler) Auto(w http.ResponseWriter, r *http.Request) {
	var req dto.AutoRouteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := h.Service.CreateOptimized(r.Context(), services.CreateOptimizedRequest{
		DriverName:  req.DriverName,
		CreatedBy:   req.CreatedBy,
		Date:        req.Date,
		ServiceType: req.ServiceType,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toRouteDetailResponse(detail))
}

func (h *RouteHandler) Preview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := h.Service.Preview(r.Context(), q.Get("date"), q.Get("service_type"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.PreviewResponse{
		Orders:         make([]dto.StopResponse, 0, len(p.Plan.Stops)),
		TotalPrice:     p.Plan.TotalPrice(),
		DistanceMeters: p.Plan.DistanceMeters,
		Converged:      p.Plan.Converged,
		Polyline:       p.Polyline,
	}
	for _, s := range p.Plan.Stops {
		res.Orders = append(res.Orders, toStopResponse(s))
	}
	if p.PolylineErr != nil {
		res.PolylineError = p.PolylineErr.Error()
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *RouteHandler) Eligible(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	stops, err := h.Service.ListEligible(r.Context(), q.Get("date"), q.Get("service_type"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.ListEligibleResponse{Orders: make([]dto.StopResponse, 0, len(stops))}
	for _, s := range stops {
		res.Orders = append(res.Orders, toStopResponse(s))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *RouteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := h.Service.GetRouteDetail(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRouteDetailResponse(detail))
}

func (h *RouteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.DeleteRoute(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RouteHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.StartRoute(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RouteHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := h.Service.OptimizeRoute(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRouteDetailResponse(detail))
}

func (h *RouteHandler) CompleteStop(w http.ResponseWriter, r *http.Request) {
	routeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	orderID, err := pathID(r, "orderId")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.MarkStopCompleted(r.Context(), routeID, orderID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toStopResponse(s domain.Stop) dto.StopResponse {
	res := dto.StopResponse{
		OrderID:    s.OrderID,
		CustomerID: s.CustomerID,
		Address:    s.Address,
		Phone:      s.Phone,
		PriceTotal: s.PriceTotal,
	}
	if s.Location != nil {
		lat, lng := s.Location.Lat, s.Location.Lng
		res.Lat, res.Lng = &lat, &lng
	}
	return res
}

func toRouteResponse(route domain.Route) dto.RouteResponse {
	res := dto.RouteResponse{
		ID:         route.ID,
		CreatedAt:  route.CreatedAt,
		CreatedBy:  route.CreatedBy,
		DriverName: route.DriverName,
		IsStarted:  route.IsStarted,
		Stops:      make([]dto.RouteStopResponse, 0, len(route.Stops)),
	}
	for _, rs := range route.Stops {
		res.TotalPrice += rs.Stop.PriceTotal
		res.Stops = append(res.Stops, dto.RouteStopResponse{
			StopIndex:    rs.StopIndex,
			IsCompleted:  rs.IsCompleted,
			StopResponse: toStopResponse(rs.Stop),
		})
	}
	return res
}

func toRouteDetailResponse(d *domain.RouteDetail) dto.RouteDetailResponse {
	res := dto.RouteDetailResponse{
		RouteResponse: toRouteResponse(d.Route),
		Polyline:      d.Polyline,
	}
	if d.PolylineErr != nil {
		res.PolylineError = d.PolylineErr.Error()
	}
	return res
}
