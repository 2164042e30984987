package registration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(hour int) func() time.Time {
	return func() time.Time {
		return time.Date(2026, time.June, 12, hour, 30, 0, 0, time.Local)
	}
}

func gateWithEntries(t *testing.T, entries, maxEntries, closingHour int, forceOpen bool) *Gate {
	t.Helper()

	repo := NewMockSubmissionsRepo()
	for i := 0; i < entries; i++ {
		_, err := repo.Add(context.Background(), &Submission{
			FirstName: "First",
			LastName:  "Last",
			Email:     "first.last@test.events",
		})
		require.NoError(t, err)
	}

	return NewGate(repo, maxEntries, closingHour, forceOpen)
}

func TestGate_IsOpen_capacity(t *testing.T) {
	ctx := context.Background()

	g := gateWithEntries(t, 49, 50, 0, false)
	open, err := g.IsOpen(ctx)
	require.NoError(t, err)
	assert.True(t, open)

	g = gateWithEntries(t, 50, 50, 0, false)
	open, err = g.IsOpen(ctx)
	require.NoError(t, err)
	assert.False(t, open)

	g = gateWithEntries(t, 51, 50, 0, false)
	open, err = g.IsOpen(ctx)
	require.NoError(t, err)
	assert.False(t, open)
}

func TestGate_IsOpen_capacityDisabled(t *testing.T) {
	g := gateWithEntries(t, 500, 0, 0, false)
	open, err := g.IsOpen(context.Background())
	require.NoError(t, err)
	assert.True(t, open)
}

func TestGate_IsOpen_timeCutoff(t *testing.T) {
	ctx := context.Background()

	g := gateWithEntries(t, 0, 50, 17, false)
	g.NowFunc = fixedClock(16)
	open, err := g.IsOpen(ctx)
	require.NoError(t, err)
	assert.True(t, open)

	g.NowFunc = fixedClock(17)
	open, err = g.IsOpen(ctx)
	require.NoError(t, err)
	assert.False(t, open)

	g.NowFunc = fixedClock(20)
	open, err = g.IsOpen(ctx)
	require.NoError(t, err)
	assert.False(t, open)

	// exactly at the hour, minute zero, counts as closed
	g.NowFunc = func() time.Time {
		return time.Date(2026, time.June, 12, 17, 0, 0, 0, time.Local)
	}
	open, err = g.IsOpen(ctx)
	require.NoError(t, err)
	assert.False(t, open)
}

func TestGate_IsOpen_timeCutoffDisabled(t *testing.T) {
	g := gateWithEntries(t, 0, 50, 0, false)
	g.NowFunc = fixedClock(23)
	open, err := g.IsOpen(context.Background())
	require.NoError(t, err)
	assert.True(t, open)
}

func TestGate_IsOpen_forceOpenBypassesTimeOnly(t *testing.T) {
	ctx := context.Background()

	// past the cutoff but forced open, capacity still available
	g := gateWithEntries(t, 10, 50, 17, true)
	g.NowFunc = fixedClock(20)
	open, err := g.IsOpen(ctx)
	require.NoError(t, err)
	assert.True(t, open)

	// forced open does not lift the capacity ceiling
	g = gateWithEntries(t, 50, 50, 17, true)
	g.NowFunc = fixedClock(20)
	open, err = g.IsOpen(ctx)
	require.NoError(t, err)
	assert.False(t, open)
}

func TestGate_IsOpen_countErrorFailsClosed(t *testing.T) {
	repo := NewMockSubmissionsRepo()
	repo.CountErr = errors.New("connection refused")

	g := NewGate(repo, 50, 0, false)
	open, err := g.IsOpen(context.Background())
	require.Error(t, err)
	assert.False(t, open)
}

func TestGate_IsOpen_freshCountPerDecision(t *testing.T) {
	ctx := context.Background()
	repo := NewMockSubmissionsRepo()
	g := NewGate(repo, 2, 0, false)

	open, err := g.IsOpen(ctx)
	require.NoError(t, err)
	assert.True(t, open)

	_, err = repo.Add(ctx, &Submission{FirstName: "A", LastName: "B", Email: "a@b.c"})
	require.NoError(t, err)
	_, err = repo.Add(ctx, &Submission{FirstName: "C", LastName: "D", Email: "c@d.e"})
	require.NoError(t, err)

	// no caching, the new entries are visible immediately
	open, err = g.IsOpen(ctx)
	require.NoError(t, err)
	assert.False(t, open)
}

func TestGate_Status(t *testing.T) {
	ctx := context.Background()

	g := gateWithEntries(t, 3, 50, 0, false)
	currentCount, maxEntries, open, err := g.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, currentCount)
	assert.Equal(t, 50, maxEntries)
	assert.True(t, open)

	g = gateWithEntries(t, 50, 50, 0, false)
	currentCount, maxEntries, open, err = g.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, currentCount)
	assert.Equal(t, 50, maxEntries)
	assert.False(t, open)

	repo := NewMockSubmissionsRepo()
	repo.CountErr = errors.New("boom")
	g = NewGate(repo, 50, 0, false)
	_, _, _, err = g.Status(ctx)
	require.Error(t, err)
}
