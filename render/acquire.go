package render

import "github.com/cockroachdb/errors"

// ErrSurfaceStale reports that the presentation surface no longer matches the
// swapchain and must be rebuilt before another image can be acquired.
var ErrSurfaceStale = errors.New("render: presentation surface is out of date")

// AcquireWithRetry calls acquire until it yields an image, rebuilding between
// stale attempts. Any other failure is returned immediately.
func AcquireWithRetry(attempts int, acquire func() (uint32, error), rebuild func() error) (uint32, error) {
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		index, err := acquire()
		if err == nil {
			return index, nil
		}
		if !errors.Is(err, ErrSurfaceStale) {
			return NoImage, err
		}
		if attempt == attempts {
			break
		}

		if err := rebuild(); err != nil {
			return NoImage, errors.Wrap(err, "rebuild stale surface")
		}
	}

	return NoImage, errors.Wrapf(ErrSurfaceStale, "no image after %d attempts", attempts)
}
