package render_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"

	"github.com/MalcolmParry/mwengine/render"
)

type flakySurface struct {
	staleCalls int
	calls      int
	rebuilds   int
}

func (s *flakySurface) acquire() (uint32, error) {
	s.calls++
	if s.calls <= s.staleCalls {
		return render.NoImage, render.ErrSurfaceStale
	}
	return 2, nil
}

func (s *flakySurface) rebuild() error {
	s.rebuilds++
	return nil
}

func TestAcquireRecoversFromStaleSurface(t *testing.T) {
	c := qt.New(t)

	surface := &flakySurface{staleCalls: 2}
	index, err := render.AcquireWithRetry(3, surface.acquire, surface.rebuild)
	c.Assert(err, qt.IsNil)
	c.Assert(index, qt.Equals, uint32(2))
	c.Assert(surface.calls, qt.Equals, 3)
	c.Assert(surface.rebuilds, qt.Equals, 2)
}

func TestAcquireGivesUpOnBrokenSurface(t *testing.T) {
	c := qt.New(t)

	surface := &flakySurface{staleCalls: 100}
	index, err := render.AcquireWithRetry(3, surface.acquire, surface.rebuild)
	c.Assert(err, qt.ErrorIs, render.ErrSurfaceStale)
	c.Assert(index, qt.Equals, render.NoImage)
	c.Assert(surface.calls, qt.Equals, 3)
	c.Assert(surface.rebuilds, qt.Equals, 2)
}

func TestAcquirePassesThroughOtherFailures(t *testing.T) {
	c := qt.New(t)

	deviceLost := errors.New("device lost")
	rebuilt := false
	_, err := render.AcquireWithRetry(3,
		func() (uint32, error) { return render.NoImage, deviceLost },
		func() error { rebuilt = true; return nil },
	)
	c.Assert(err, qt.ErrorIs, deviceLost)
	c.Assert(rebuilt, qt.IsFalse)
}

func TestAcquireStopsWhenRebuildFails(t *testing.T) {
	c := qt.New(t)

	surface := &flakySurface{staleCalls: 1}
	_, err := render.AcquireWithRetry(3, surface.acquire, func() error { return errors.New("no surface") })
	c.Assert(err, qt.ErrorMatches, "rebuild stale surface: no surface")
	c.Assert(surface.calls, qt.Equals, 1)
}
