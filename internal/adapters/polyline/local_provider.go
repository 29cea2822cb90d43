package polyline

import (
	"context"
	"fmt"
	"math"
	"route-planner-service/internal/domain"
	"strings"
)

// LocalProvider encodes the straight-line path through the waypoints
// without calling any service. It backs POLYLINE_PROVIDER=none and tests;
// Err, when set, is returned instead.
type LocalProvider struct {
	Err error
}

func NewLocalProvider() *LocalProvider { return &LocalProvider{} }

func (p *LocalProvider) Compute(ctx context.Context, waypoints []domain.Coordinates) (string, error) {
	if p.Err != nil {
		return "", p.Err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(waypoints) == 0 {
		return "", fmt.Errorf("local polyline: no waypoints")
	}
	return Encode(waypoints), nil
}

// Encode implements the encoded polyline algorithm format at precision 5.
func Encode(points []domain.Coordinates) string {
	var b strings.Builder
	var prevLat, prevLng int64
	for _, p := range points {
		lat := int64(math.Round(p.Lat * 1e5))
		lng := int64(math.Round(p.Lng * 1e5))
		encodeValue(&b, lat-prevLat)
		encodeValue(&b, lng-prevLng)
		prevLat, prevLng = lat, lng
	}
	return b.String()
}

func encodeValue(b *strings.Builder, v int64) {
	u := v << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		b.WriteByte(byte((0x20 | (u & 0x1f)) + 63))
		u >>= 5
	}
	b.WriteByte(byte(u + 63))
}
