package registration

import (
	"context"
	"fmt"
	"time"
)

// SubmissionsCounter is the storage read the gate performs per decision.
type SubmissionsCounter interface {
	Count(ctx context.Context) (int, error)
}

// Gate decides whether new registrations are accepted. The decision is
// evaluated fresh on every attempt: the count is fetched at decision time and
// never cached, so the answer always reflects the current moment.
//
// The two checks are independent: maxEntries 0 disables the ceiling,
// closingHour 0 disables the daily cutoff. The forceOpen override bypasses
// only the time cutoff, the ceiling is unconditionally enforced.
type Gate struct {
	counter     SubmissionsCounter
	maxEntries  int
	closingHour int
	forceOpen   bool
	// injectable for unit and dev testing
	NowFunc func() time.Time
}

func NewGate(counter SubmissionsCounter, maxEntries, closingHour int, forceOpen bool) *Gate {
	return &Gate{
		counter:     counter,
		maxEntries:  maxEntries,
		closingHour: closingHour,
		forceOpen:   forceOpen,
		NowFunc:     time.Now,
	}
}

func (g *Gate) IsOpen(ctx context.Context) (bool, error) {
	if !g.forceOpen && g.closedByTime() {
		return false, nil
	}

	if g.maxEntries <= 0 {
		return true, nil
	}

	currentCount, err := g.counter.Count(ctx)
	if err != nil {
		// fail closed on a storage error
		return false, fmt.Errorf("count submissions: %w", err)
	}

	return currentCount < g.maxEntries, nil
}

// Status returns the numbers shown on the public capacity endpoint.
func (g *Gate) Status(ctx context.Context) (currentCount, maxEntries int, open bool, err error) {
	currentCount, err = g.counter.Count(ctx)
	if err != nil {
		return 0, g.maxEntries, false, fmt.Errorf("count submissions: %w", err)
	}

	open = !g.closedByTime() || g.forceOpen
	if g.maxEntries > 0 && currentCount >= g.maxEntries {
		open = false
	}

	return currentCount, g.maxEntries, open, nil
}

// closedByTime: the form closes for the day once the local wall clock reaches
// the closing hour. A hard cutoff, not a sliding window.
func (g *Gate) closedByTime() bool {
	if g.closingHour <= 0 {
		return false
	}

	now := g.NowFunc()
	closureTime := time.Date(now.Year(), now.Month(), now.Day(), g.closingHour, 0, 0, 0, now.Location())
	return !now.Before(closureTime)
}
