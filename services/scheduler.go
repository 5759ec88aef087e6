// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartAttemptSweeper runs the stale-claim sweep every minute.
func (s *ClaimService) StartAttemptSweeper() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			if err := s.SweepStaleAttempts(); err != nil {
				log.Printf("[Sweeper] DB error: %v", err)
			}
		}),
	)
}
