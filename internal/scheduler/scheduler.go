// Package scheduler runs the periodic remote re-sync of the chat log.
// A failed upload during a session is healed at the next tick; the
// flush pipeline's dedup keeps repeated syncs idempotent.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

type Scheduler struct {
	cron     *cron.Cron
	ctx      context.Context
	cancel   context.CancelFunc
	spec     string
	syncFunc func(ctx context.Context) error
}

func New(spec string) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
		spec:   spec,
	}
}

// SetSyncFunction sets the function invoked at every tick.
func (s *Scheduler) SetSyncFunction(f func(ctx context.Context) error) {
	s.syncFunc = f
}

func (s *Scheduler) Start() error {
	if s.syncFunc == nil {
		log.Println("sync function not set, scheduler will not run")
		return nil
	}
	_, err := s.cron.AddFunc(s.spec, func() {
		if err := s.syncFunc(s.ctx); err != nil {
			log.Printf("scheduled chat log sync failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("scheduler started, chat log sync on %q (UTC)", s.spec)
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	log.Println("scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
