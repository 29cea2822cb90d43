package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/obs"
	"route-planner-service/internal/ports"
	"strconv"
)

// CachingPolylineProvider serves polylines from Cache and falls back to
// Next on a miss. Cache failures are logged and never fail the call.
type CachingPolylineProvider struct {
	Next  ports.PolylineProvider
	Cache ports.PolylineCache
}

func NewCachingPolylineProvider(next ports.PolylineProvider, cache ports.PolylineCache) *CachingPolylineProvider {
	return &CachingPolylineProvider{Next: next, Cache: cache}
}

func (p *CachingPolylineProvider) Compute(ctx context.Context, waypoints []domain.Coordinates) (string, error) {
	key := WaypointKey(waypoints)

	if pl, ok, err := p.Cache.Get(ctx, key); err != nil {
		log.Printf("req_id=%s op=polyline.cache.Get key=%s err=%v", obs.RequestID(ctx), key, err)
	} else if ok {
		return pl, nil
	}

	pl, err := p.Next.Compute(ctx, waypoints)
	if err != nil {
		return "", err
	}

	if err := p.Cache.Put(ctx, key, pl); err != nil {
		log.Printf("req_id=%s op=polyline.cache.Put key=%s err=%v", obs.RequestID(ctx), key, err)
	}
	return pl, nil
}

// WaypointKey hashes the waypoint sequence at 1e-6 degree resolution.
func WaypointKey(waypoints []domain.Coordinates) string {
	h := sha256.New()
	buf := make([]byte, 0, 32)
	for _, c := range waypoints {
		buf = strconv.AppendFloat(buf[:0], c.Lat, 'f', 6, 64)
		buf = append(buf, ',')
		buf = strconv.AppendFloat(buf, c.Lng, 'f', 6, 64)
		buf = append(buf, ';')
		h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))
}
