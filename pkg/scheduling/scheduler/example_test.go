package scheduler_test

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/vnykmshr/taskpool/pkg/scheduling/scheduler"
	"github.com/vnykmshr/taskpool/pkg/scheduling/workerpool"
)

// Example shows recurring jobs feeding a shared pool.
func Example() {
	pool, err := workerpool.New(2)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	var s *scheduler.Scheduler
	var once sync.Once
	done := make(chan struct{})
	s, err = scheduler.New(scheduler.Config{
		Pool: pool,
		OnComplete: func(id string, err error) {
			once.Do(func() {
				s.Cancel(id)
				close(done)
			})
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	err = s.ScheduleRepeating("report", 50*time.Millisecond, workerpool.TaskFunc(func(ctx context.Context) error {
		fmt.Println("report generated")
		return nil
	}))
	if err != nil {
		log.Fatal(err)
	}

	s.Start()
	<-done
	<-s.Stop()

	// Output: report generated
}
