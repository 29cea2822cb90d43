package optimizer

import (
	"fmt"
	"math"
	"route-planner-service/internal/domain"
)

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

// Matrix holds pairwise distances in meters, indexed by coordinate position.
type Matrix [][]float64

// Haversine returns the great-circle distance between a and b in meters.
func Haversine(a, b domain.Coordinates) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	dPhi := (b.Lat - a.Lat) * math.Pi / 180
	dLambda := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)

	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// BuildMatrix computes the symmetric N×N haversine matrix for points.
// Only the upper triangle is computed; the lower one is mirrored so the
// result is exactly symmetric with a zero diagonal.
func BuildMatrix(points []domain.Coordinates) (Matrix, error) {
	n := len(points)
	if n == 0 {
		return nil, fmt.Errorf("build distance matrix: at least one coordinate is required: %w", domain.ErrValidation)
	}

	for i, p := range points {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("build distance matrix: coordinate #%d: %w", i, err)
		}
	}

	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := Haversine(points[i], points[j])
			m[i][j] = d
			m[j][i] = d
		}
	}

	return m, nil
}

// Size returns the number of points covered by the matrix.
func (m Matrix) Size() int { return len(m) }

// TourLength sums consecutive legs of tour.
func (m Matrix) TourLength(tour []int) float64 {
	total := 0.0
	for i := 0; i+1 < len(tour); i++ {
		total += m[tour[i]][tour[i+1]]
	}
	return total
}
