package domain

import "time"

// Capture is one open microphone stream.
// Calibrate samples ambient noise; Listen waits up to timeout for speech and
// returns at most phraseLimit of it encoded as WAV.
type Capture interface {
	Calibrate(d time.Duration) error
	Listen(timeout, phraseLimit time.Duration) ([]byte, error)
	Close() error
}
