package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func req(msg string) *request {
	return &request{Request: Request{Message: msg}, reply: make(chan reply, 1)}
}

func TestRequestQueue_FIFO(t *testing.T) {
	q := newRequestQueue()
	for _, m := range []string{"A", "B", "C"} {
		require.True(t, q.Enqueue(req(m)))
	}
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"A", "B", "C"} {
		r, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, r.Message)
	}
	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestRequestQueue_WaitSignals(t *testing.T) {
	q := newRequestQueue()

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Enqueue(req("late"))
	}()

	select {
	case <-q.Wait():
		r, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, "late", r.Message)
	case <-time.After(time.Second):
		t.Fatal("Wait did not fire after Enqueue")
	}
}

func TestRequestQueue_Close(t *testing.T) {
	q := newRequestQueue()
	q.Enqueue(req("pending"))
	q.Close()
	q.Close() // idempotent

	assert.False(t, q.Enqueue(req("after")), "enqueue after close should return false")
	assert.False(t, q.Finished(), "closed but not yet drained")

	select {
	case <-q.Wait():
	default:
		t.Fatal("Wait should fire once closed")
	}

	drained := q.Drain()
	require.Len(t, drained, 1)
	assert.Equal(t, "pending", drained[0].Message)
	assert.True(t, q.Finished())
}

func TestRequestQueue_ConcurrentProducers(t *testing.T) {
	q := newRequestQueue()
	const producers, each = 10, 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				q.Enqueue(req("x"))
			}
		}()
	}
	wg.Wait()

	n := 0
	for {
		if _, ok := q.TryDequeue(); !ok {
			break
		}
		n++
	}
	assert.Equal(t, producers*each, n)
}
