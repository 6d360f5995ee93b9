package workerpool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vnykmshr/taskpool/internal/testutil"
	tperrors "github.com/vnykmshr/taskpool/pkg/common/errors"
)

func testCell(v int) *cell[int] {
	return newCell(context.Background(), func(context.Context) (int, error) { return v, nil })
}

func TestWorkQueueFIFO(t *testing.T) {
	q := newWorkQueue()
	for i := 0; i < 200; i++ {
		testutil.AssertNoError(t, q.enqueue(testCell(i)))
	}
	testutil.AssertEqual(t, q.len(), 200)

	for i := 0; i < 200; i++ {
		item, ok := q.dequeue()
		if !ok {
			t.Fatalf("dequeue %d reported closed", i)
		}
		_, err := item.run(context.Background())
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, item.(*cell[int]).value, i)
	}
	testutil.AssertEqual(t, q.len(), 0)
}

func TestWorkQueueInterleavedCompaction(t *testing.T) {
	q := newWorkQueue()
	next, want := 0, 0

	for round := 0; round < 50; round++ {
		for i := 0; i < 5; i++ {
			testutil.AssertNoError(t, q.enqueue(testCell(next)))
			next++
		}
		for i := 0; i < 3; i++ {
			item, ok := q.dequeue()
			testutil.AssertEqual(t, ok, true)
			item.run(context.Background())
			testutil.AssertEqual(t, item.(*cell[int]).value, want)
			want++
		}
	}
	testutil.AssertEqual(t, q.len(), next-want)
}

func TestWorkQueueRejectsNil(t *testing.T) {
	q := newWorkQueue()
	testutil.AssertErrorIs(t, q.enqueue(nil), tperrors.ErrNilTask)
}

func TestWorkQueueClose(t *testing.T) {
	q := newWorkQueue()
	testutil.AssertNoError(t, q.enqueue(testCell(1)))

	testutil.AssertEqual(t, q.close(), true)
	testutil.AssertEqual(t, q.close(), false)
	testutil.AssertEqual(t, q.isClosed(), true)
	testutil.AssertErrorIs(t, q.enqueue(testCell(2)), tperrors.ErrQueueClosed)

	// Items queued before close are still handed out.
	_, ok := q.dequeue()
	testutil.AssertEqual(t, ok, true)
	_, ok = q.dequeue()
	testutil.AssertEqual(t, ok, false)
}

func TestWorkQueueCloseWakesBlockedConsumers(t *testing.T) {
	q := newWorkQueue()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := q.dequeue(); ok {
				t.Error("dequeue on an empty closed queue must report false")
			}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	q.close()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(testutil.TestTimeout):
		t.Fatal("blocked consumers were not woken by close")
	}
}

func TestWorkQueueDrain(t *testing.T) {
	q := newWorkQueue()
	for i := 0; i < 3; i++ {
		testutil.AssertNoError(t, q.enqueue(testCell(i)))
	}
	q.dequeue()

	pending := q.drain()
	testutil.AssertEqual(t, len(pending), 2)
	for i, item := range pending {
		item.run(context.Background())
		testutil.AssertEqual(t, item.(*cell[int]).value, i+1)
	}
	testutil.AssertEqual(t, q.len(), 0)
}
