package storage

import (
	"log"

	"github.com/robfig/cron/v3"
)

// ───────────────────────────────────────────────────────────────────────────
// Maintenance scheduler
// ───────────────────────────────────────────────────────────────────────────
//
// FlushScheduler periodically writes the buffer pool's dirty pages back on
// a CRON schedule (with a seconds field, e.g. "*/30 * * * * *"). It is
// opt-in: the engine itself has no background writer, and the
// single-threaded contract still holds — the application must not run
// other operations concurrently with a scheduled flush, either by keeping
// the database idle between operations or by serializing around it.

// FlushScheduler drives periodic FlushAll calls.
type FlushScheduler struct {
	db   *Database
	cron *cron.Cron
}

// NewFlushScheduler creates a scheduler that flushes db on the given CRON
// spec.
func NewFlushScheduler(db *Database, spec string) (*FlushScheduler, error) {
	s := &FlushScheduler{
		db:   db,
		cron: cron.New(cron.WithSeconds()),
	}
	if _, err := s.cron.AddFunc(spec, s.flush); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FlushScheduler) flush() {
	if err := s.db.FlushAll(); err != nil {
		log.Printf("scheduled flush: %v", err)
	}
}

// Start begins running scheduled flushes.
func (s *FlushScheduler) Start() { s.cron.Start() }

// Stop halts the scheduler and waits for a running flush to finish.
func (s *FlushScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
