package handlers

import (
	"log"
	"net/http"
	"route-planner-service/internal/api/dto"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/ports"
	"route-planner-service/internal/services"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second
	// Send pings to the peer with this period; must be less than pongWait.
	pingPeriod = pongWait * 9 / 10
	writeWait  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// TrackingHandler ingests vehicle positions and streams them to listeners.
type TrackingHandler struct {
	Service    *services.TrackingService
	Subscriber ports.PositionSubscriber
}

func (h *TrackingHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req dto.ReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.RouteID <= 0 {
		writeError(w, r, http.StatusBadRequest, "route_id must be a positive integer")
		return
	}
	if req.Lat == nil || req.Lng == nil {
		writeError(w, r, http.StatusBadRequest, "lat and lng are required")
		return
	}

	report, err := h.Service.Report(r.Context(), req.RouteID, *req.Lat, *req.Lng)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toPositionResponse(report))
}

// Latest returns the newest position, or 204 when the route has none.
func (h *TrackingHandler) Latest(w http.ResponseWriter, r *http.Request) {
	routeID, err := pathID(r, "routeId")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	report, found, err := h.Service.Latest(r.Context(), routeID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !found {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, r, http.StatusOK, toPositionResponse(report))
}

// Stream upgrades to a WebSocket and pushes every new position of the route
// as a JSON text frame. The latest known position, if any, is sent first.
func (h *TrackingHandler) Stream(w http.ResponseWriter, r *http.Request) {
	routeID, err := pathID(r, "routeId")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ok, err := h.Service.RouteExists(r.Context(), routeID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, http.StatusNotFound, "route not found")
		return
	}

	// Subscribe before the handshake completes so no report published after
	// the client is connected can be missed.
	reports, cancel := h.Subscriber.Subscribe(routeID)
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: route_id=%d err=%v", routeID, err)
		return
	}
	defer conn.Close()

	if latest, found, err := h.Service.Latest(r.Context(), routeID); err == nil && found {
		if err := writeFrame(conn, latest); err != nil {
			return
		}
	}

	// The read loop only services control frames and detects disconnects.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("websocket closed: route_id=%d err=%v", routeID, err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case report, ok := <-reports:
			if !ok {
				return
			}
			if err := writeFrame(conn, report); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, report domain.PositionReport) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(toPositionResponse(report))
}

func toPositionResponse(p domain.PositionReport) dto.PositionResponse {
	return dto.PositionResponse{
		ID:         p.ID,
		RouteID:    p.RouteID,
		Lat:        p.Lat,
		Lng:        p.Lng,
		RecordedAt: p.RecordedAt,
	}
}
