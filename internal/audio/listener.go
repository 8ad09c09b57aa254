package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/kailas-cloud/askdoc/internal/domain"
)

const (
	frameDuration = 30 * time.Millisecond
	preRollFrames = 10
)

// ListenerConfig tunes the energy-based speech detector.
type ListenerConfig struct {
	SampleRate  int
	EnergyRatio float64       // threshold = ambient RMS * ratio
	MinEnergy   float64       // floor for the threshold
	Pause       time.Duration // trailing silence that ends a phrase
}

// Listener detects a spoken phrase in a stream of 16-bit little-endian mono PCM.
// Durations are measured in audio time, so a real-time recorder bounds them in wall time too.
type Listener struct {
	cfg       ListenerConfig
	frameSize int // bytes per frame
	threshold float64
}

// NewListener creates a listener whose threshold starts at MinEnergy until calibrated.
func NewListener(cfg ListenerConfig) *Listener {
	samples := cfg.SampleRate * int(frameDuration/time.Millisecond) / 1000
	if samples < 1 {
		samples = 1
	}
	return &Listener{cfg: cfg, frameSize: samples * 2, threshold: cfg.MinEnergy}
}

// Threshold returns the current speech energy threshold.
func (l *Listener) Threshold() float64 {
	return l.threshold
}

// Calibrate reads d of ambient audio and derives the speech threshold from its energy.
func (l *Listener) Calibrate(r io.Reader, d time.Duration) error {
	frames := framesIn(d)
	frame := make([]byte, l.frameSize)

	var sum float64
	for i := 0; i < frames; i++ {
		if _, err := io.ReadFull(r, frame); err != nil {
			return fmt.Errorf("calibrate: %v: %w", err, domain.ErrSpeechService)
		}
		sum += rms(frame)
	}

	l.threshold = math.Max(l.cfg.MinEnergy, sum/float64(frames)*l.cfg.EnergyRatio)
	return nil
}

// Listen waits up to timeout for a frame above the threshold, then records until a pause
// or phraseLimit of audio. The phrase is returned as WAV.
func (l *Listener) Listen(r io.Reader, timeout, phraseLimit time.Duration) ([]byte, error) {
	var (
		preRoll [][]byte
		waited  time.Duration
		first   []byte
	)

	for first == nil {
		frame := make([]byte, l.frameSize)
		if _, err := io.ReadFull(r, frame); err != nil {
			return nil, fmt.Errorf("listen: %v: %w", err, domain.ErrSpeechService)
		}
		if rms(frame) >= l.threshold {
			first = frame
			break
		}
		waited += frameDuration
		if waited >= timeout {
			return nil, fmt.Errorf("waited %s: %w", timeout, domain.ErrNoSpeech)
		}
		preRoll = append(preRoll, frame)
		if len(preRoll) > preRollFrames {
			preRoll = preRoll[1:]
		}
	}

	pcm := make([]byte, 0, l.frameSize*(len(preRoll)+framesIn(phraseLimit)))
	for _, f := range preRoll {
		pcm = append(pcm, f...)
	}
	pcm = append(pcm, first...)

	spoken := frameDuration
	var silent time.Duration
	frame := make([]byte, l.frameSize)
	for spoken < phraseLimit {
		if _, err := io.ReadFull(r, frame); err != nil {
			// Recorder ended mid-phrase: keep what was heard.
			break
		}
		pcm = append(pcm, frame...)
		spoken += frameDuration

		if rms(frame) < l.threshold {
			silent += frameDuration
			if silent >= l.cfg.Pause {
				break
			}
		} else {
			silent = 0
		}
	}

	return EncodeWAV(pcm, l.cfg.SampleRate), nil
}

func framesIn(d time.Duration) int {
	n := int((d + frameDuration - 1) / frameDuration)
	if n < 1 {
		return 1
	}
	return n
}

// rms is the root mean square amplitude of a frame of int16 samples.
func rms(frame []byte) float64 {
	n := len(frame) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := float64(int16(binary.LittleEndian.Uint16(frame[2*i:]))) //nolint:gosec // PCM sample reinterpretation
		sum += s * s
	}
	return math.Sqrt(sum / float64(n))
}
