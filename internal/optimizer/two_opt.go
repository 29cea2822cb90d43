package optimizer

import (
	"context"
	"fmt"
	"route-planner-service/internal/domain"
	"time"
)

// improvementEpsilon ignores gains below float noise so passes terminate.
const improvementEpsilon = 1e-9

// Budget bounds the 2-opt search. Zero values mean unbounded.
type Budget struct {
	MaxPasses   int
	MaxDuration time.Duration
}

// TwoOptResult is the outcome of a 2-opt run.
// Converged is false when the budget or the context stopped the search
// before a pass without improvements was observed.
type TwoOptResult struct {
	Tour      []int
	Passes    int
	Converged bool
}

// TwoOpt refines tour with first-improvement 2-opt moves.
//
// The first and last positions are never moved. A segment [i..j] with
// 1 <= i < j <= N-2 is reversed whenever that shortens the two edges around
// it. Full passes repeat until one makes no reversal (a local optimum), the
// budget is exhausted or ctx is done; in the latter cases the best tour so
// far is returned. The input slice is not modified.
func TwoOpt(ctx context.Context, m Matrix, tour []int, budget Budget) (TwoOptResult, error) {
	if err := validateTour(m, tour); err != nil {
		return TwoOptResult{}, fmt.Errorf("two-opt: %w", err)
	}

	t := append([]int(nil), tour...)
	n := len(t)

	var deadline time.Time
	if budget.MaxDuration > 0 {
		deadline = time.Now().Add(budget.MaxDuration)
	}

	passes := 0
	for {
		if budget.MaxPasses > 0 && passes >= budget.MaxPasses {
			return TwoOptResult{Tour: t, Passes: passes, Converged: false}, nil
		}
		if ctx.Err() != nil || (!deadline.IsZero() && time.Now().After(deadline)) {
			return TwoOptResult{Tour: t, Passes: passes, Converged: false}, nil
		}

		passes++
		improved := false

		for i := 1; i < n-2; i++ {
			for j := i + 1; j < n-1; j++ {
				before := m[t[i-1]][t[i]] + m[t[j]][t[j+1]]
				after := m[t[i-1]][t[j]] + m[t[i]][t[j+1]]

				if before-after > improvementEpsilon {
					reverse(t, i, j)
					improved = true
				}
			}
		}

		if !improved {
			return TwoOptResult{Tour: t, Passes: passes, Converged: true}, nil
		}
	}
}

func reverse(t []int, i, j int) {
	for i < j {
		t[i], t[j] = t[j], t[i]
		i++
		j--
	}
}

// validateTour checks that tour is a permutation of the matrix indexes.
func validateTour(m Matrix, tour []int) error {
	if len(tour) != m.Size() {
		return fmt.Errorf("tour has %d entries for a %d-point matrix: %w", len(tour), m.Size(), domain.ErrValidation)
	}

	seen := make([]bool, len(tour))
	for _, idx := range tour {
		if idx < 0 || idx >= len(tour) || seen[idx] {
			return fmt.Errorf("tour is not a permutation (index %d): %w", idx, domain.ErrValidation)
		}
		seen[idx] = true
	}

	return nil
}
