/*
sweeper.go - Periodic reminder sweep

PURPOSE:
  Periodically runs the lifecycle controller's reminder sweep so that
  every bill with reminders enabled and no outstanding trigger gets one
  (re)registered with the dispatcher.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Skips bills that already hold a live trigger (idempotence lives in
    the controller, not here)
  - Also drains the dispatcher's snooze/log-payment actions back into
    the controller

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 1 hour)
  - Enabled: Whether the sweeper is active (default: true)

USAGE:
  sweeper := NewSweeper(controller, actions)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - handlers.go: TriggerSweep endpoint (manual sweep)
  - bill/lifecycle.go: Sweep and HandleAction
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/kdb/bill-engine/bill"
)

// Sweeper drives the periodic reminder sweep and routes inbound
// reminder actions to the controller.
type Sweeper struct {
	Controller    *bill.Controller
	Actions       <-chan bill.ReminderAction
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSweeper creates a new sweeper. Actions may be nil when no
// dispatcher feedback channel exists (tests, CLI tools).
func NewSweeper(controller *bill.Controller, actions <-chan bill.ReminderAction) *Sweeper {
	return &Sweeper{
		Controller:    controller,
		Actions:       actions,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the sweeper.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		log.Println("[Sweeper] Disabled, not starting")
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.wg.Add(1)

	go s.run()

	log.Printf("[Sweeper] Started with check interval: %v", s.CheckInterval)
}

// Stop stops the sweeper.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		log.Println("[Sweeper] Stopped")
	}
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	// Run immediately on start (session activation sweep)
	s.sweep()

	for {
		select {
		case <-s.ticker.C:
			s.sweep()
		case a, ok := <-s.actions():
			if !ok {
				return
			}
			s.handleAction(a)
		case <-s.stop:
			return
		}
	}
}

func (s *Sweeper) actions() <-chan bill.ReminderAction {
	if s.Actions != nil {
		return s.Actions
	}
	// A nil channel blocks forever, which is exactly what we want when
	// no dispatcher feedback is wired.
	return nil
}

func (s *Sweeper) sweep() {
	ctx := context.Background()

	result, err := s.Controller.Sweep(ctx)
	if err != nil {
		log.Printf("[Sweeper] Error running sweep: %v", err)
		return
	}
	if result.Checked > 0 {
		log.Printf("[Sweeper] Completed: %d checked, %d scheduled, %d lapsed, %d failed",
			result.Checked, result.Scheduled, result.Lapsed, result.Failed)
	}
}

func (s *Sweeper) handleAction(a bill.ReminderAction) {
	ctx := context.Background()

	if err := s.Controller.HandleAction(ctx, a); err != nil {
		log.Printf("[Sweeper] Error handling %s action for bill %s: %v", a.Kind, a.BillID, err)
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (s *Sweeper) RunNow() {
	s.sweep()
}

// GetNextRunTime returns when the next scheduled sweep will occur.
func (s *Sweeper) GetNextRunTime() time.Time {
	return time.Now().Add(s.CheckInterval)
}
