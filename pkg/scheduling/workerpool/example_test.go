package workerpool_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tperrors "github.com/vnykmshr/taskpool/pkg/common/errors"
	"github.com/vnykmshr/taskpool/pkg/scheduling/workerpool"
)

// Example demonstrates basic usage of the worker pool
func Example() {
	pool, err := workerpool.New(4)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	future, err := workerpool.Submit(pool, func() (int, error) {
		return 42, nil
	})
	if err != nil {
		log.Fatal(err)
	}

	value, err := future.Get()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(value)

	// Output: 42
}

// Example_fanOut submits independent tasks and collects results in
// submission order.
func Example_fanOut() {
	pool, err := workerpool.New(2)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	words := []string{"alpha", "beta", "gamma"}
	futures := make([]*workerpool.Future[string], len(words))
	for i, w := range words {
		futures[i], err = workerpool.SubmitValue(pool, func() string {
			return strings.ToUpper(w)
		})
		if err != nil {
			log.Fatal(err)
		}
	}

	for _, f := range futures {
		s, _ := f.Get()
		fmt.Println(s)
	}

	// Output:
	// ALPHA
	// BETA
	// GAMMA
}

// Example_errorHandling shows how task errors and panics reach the caller.
func Example_errorHandling() {
	pool, err := workerpool.New(1)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	errNotFound := errors.New("not found")
	failing, _ := workerpool.Submit(pool, func() (string, error) {
		return "", errNotFound
	})
	panicking, _ := workerpool.Submit(pool, func() (string, error) {
		panic("unexpected input")
	})

	_, err = failing.Get()
	fmt.Println(errors.Is(err, errNotFound))

	_, err = panicking.Get()
	var taskErr *tperrors.TaskError
	if errors.As(err, &taskErr) {
		fmt.Println("recovered:", taskErr.Panic)
	}

	// Output:
	// true
	// recovered: unexpected input
}

// Example_gracefulShutdown shows that queued work finishes before Shutdown returns.
func Example_gracefulShutdown() {
	pool, err := workerpool.New(2)
	if err != nil {
		log.Fatal(err)
	}

	futures := make([]*workerpool.Future[int], 5)
	for i := range futures {
		futures[i], _ = workerpool.SubmitValue(pool, func() int {
			time.Sleep(5 * time.Millisecond)
			return i
		})
	}

	if err := pool.Shutdown(workerpool.Graceful); err != nil {
		log.Fatal(err)
	}

	sum := 0
	for _, f := range futures {
		v, _ := f.Get()
		sum += v
	}
	fmt.Println("sum:", sum)

	_, err = workerpool.SubmitValue(pool, func() int { return 0 })
	fmt.Println(errors.Is(err, tperrors.ErrPoolShuttingDown))

	// Output:
	// sum: 10
	// true
}

// Example_withContext bounds each task with a timeout.
func Example_withContext() {
	pool, err := workerpool.NewWithConfig(workerpool.Config{
		WorkerCount: 1,
		TaskTimeout: 10 * time.Millisecond,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	future, _ := workerpool.SubmitWithContext(context.Background(), pool, func(ctx context.Context) (string, error) {
		select {
		case <-time.After(time.Second):
			return "done", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})

	_, err = future.Get()
	fmt.Println(errors.Is(err, context.DeadlineExceeded))

	// Output: true
}
