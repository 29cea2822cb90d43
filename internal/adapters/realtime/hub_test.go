package realtime

import (
	"context"
	"sync"
	"testing"

	"route-planner-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDeliversToRouteSubscribersOnly(t *testing.T) {
	h := NewHub()
	a, cancelA := h.Subscribe(1)
	defer cancelA()
	b, cancelB := h.Subscribe(2)
	defer cancelB()

	h.Publish(context.Background(), domain.PositionReport{RouteID: 1, Lat: 10})

	select {
	case r := <-a:
		assert.Equal(t, 10.0, r.Lat)
	default:
		t.Fatalf("subscriber of route 1 got nothing")
	}

	select {
	case r := <-b:
		t.Fatalf("subscriber of route 2 got %v", r)
	default:
	}
}

func TestHubCancelClosesChannel(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe(7)
	require.Equal(t, 1, h.Subscribers(7))

	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, h.Subscribers(7))

	// publishing after cancel must not panic
	h.Publish(context.Background(), domain.PositionReport{RouteID: 7})
}

func TestHubPublishNeverBlocks(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe(3)
	defer cancel()

	for i := 0; i < subscriberBuffer*3; i++ {
		h.Publish(context.Background(), domain.PositionReport{RouteID: 3, ID: int64(i)})
	}

	assert.Len(t, ch, subscriberBuffer)
	first := <-ch
	assert.Equal(t, int64(0), first.ID, "oldest buffered frames are kept")
}

func TestHubConcurrentUse(t *testing.T) {
	h := NewHub()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, cancel := h.Subscribe(1)
			cancel()
		}()
		go func() {
			defer wg.Done()
			h.Publish(context.Background(), domain.PositionReport{RouteID: 1})
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, h.Subscribers(1))
}
