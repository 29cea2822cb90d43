package optimizer

import (
	"errors"
	"fmt"
	"math"
	"route-planner-service/internal/domain"
)

// NearestNeighbor builds an initial tour with a greedy nearest-neighbor walk.
//
// The walk starts at index 0 and repeatedly moves to the closest unvisited
// index. Equal distances resolve to the lowest index so the result is
// deterministic for a given matrix. When fixedEnd is set, index N-1 is held
// back and appended last; it is the end anchor of the tour.
func NearestNeighbor(m Matrix, fixedEnd bool) ([]int, error) {
	n := m.Size()
	if n == 0 {
		return nil, fmt.Errorf("nearest neighbor: empty matrix: %w", domain.ErrValidation)
	}
	if fixedEnd && n < 2 {
		return nil, fmt.Errorf("nearest neighbor: a fixed end needs at least 2 points: %w", domain.ErrValidation)
	}

	last := n
	if fixedEnd {
		last = n - 1
	}

	visited := make([]bool, n)
	tour := make([]int, 0, n)
	tour = append(tour, 0)
	visited[0] = true

	for len(tour) < last {
		current := tour[len(tour)-1]
		next := -1
		best := math.Inf(1)

		// Strict comparison keeps the lowest index on ties.
		for i := 0; i < last; i++ {
			if visited[i] {
				continue
			}
			if d := m[current][i]; d < best {
				best = d
				next = i
			}
		}

		if next < 0 {
			return nil, errors.New("nearest neighbor: failed to select next stop")
		}

		visited[next] = true
		tour = append(tour, next)
	}

	if fixedEnd {
		tour = append(tour, n-1)
	}

	return tour, nil
}
