package optimizer

import (
	"errors"
	"math/rand"
	"route-planner-service/internal/domain"
	"testing"
)

func assertPermutation(t *testing.T, tour []int, n int) {
	t.Helper()
	if len(tour) != n {
		t.Fatalf("tour length = %d, want %d", len(tour), n)
	}
	seen := make(map[int]bool, n)
	for _, idx := range tour {
		if idx < 0 || idx >= n {
			t.Fatalf("index %d out of range [0,%d)", idx, n)
		}
		if seen[idx] {
			t.Fatalf("index %d visited twice in %v", idx, tour)
		}
		seen[idx] = true
	}
}

func TestNearestNeighborIsBijection(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for _, n := range []int{1, 2, 3, 10, 33} {
		m, err := BuildMatrix(randomPoints(r, n))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		tour, err := NearestNeighbor(m, false)
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		assertPermutation(t, tour, n)
		if tour[0] != 0 {
			t.Fatalf("n=%d: tour must start at 0, got %v", n, tour)
		}
	}
}

func TestNearestNeighborPicksClosest(t *testing.T) {
	m := Matrix{
		{0, 5, 1, 9},
		{5, 0, 2, 3},
		{1, 2, 0, 4},
		{9, 3, 4, 0},
	}

	tour, err := NearestNeighbor(m, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int{0, 2, 1, 3}
	for i := range want {
		if tour[i] != want[i] {
			t.Fatalf("tour = %v, want %v", tour, want)
		}
	}
}

func TestNearestNeighborTieBreaksOnLowestIndex(t *testing.T) {
	m := Matrix{
		{0, 2, 2, 2},
		{2, 0, 2, 2},
		{2, 2, 0, 2},
		{2, 2, 2, 0},
	}

	tour, err := NearestNeighbor(m, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, idx := range tour {
		if idx != i {
			t.Fatalf("tour = %v, want identity order", tour)
		}
	}
}

func TestNearestNeighborFixedEnd(t *testing.T) {
	// Index 3 is the end anchor and sits on top of the start; it must not be
	// picked early even though it is the closest point.
	m := Matrix{
		{0, 4, 6, 0},
		{4, 0, 1, 4},
		{6, 1, 0, 6},
		{0, 4, 6, 0},
	}

	tour, err := NearestNeighbor(m, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int{0, 1, 2, 3}
	for i := range want {
		if tour[i] != want[i] {
			t.Fatalf("tour = %v, want %v", tour, want)
		}
	}
}

func TestNearestNeighborEmptyMatrix(t *testing.T) {
	if _, err := NearestNeighbor(Matrix{}, false); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}
