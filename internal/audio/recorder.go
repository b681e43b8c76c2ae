package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/gen2brain/malgo"
	"github.com/hashicorp/go-multierror"
)

// RecordOptions configures a microphone capture
type RecordOptions struct {
	Duration   time.Duration
	SampleRate int // Hz (default: 16000)

	// OnLevel, if not nil, is called about every 100 ms with the elapsed capture
	// time and the RMS level of the most recent device period in dBFS
	OnLevel func(elapsed time.Duration, levelDB float64)
}

// pcmAccumulator collects little-endian S16 mono frames from the device callback
type pcmAccumulator struct {
	mu      sync.Mutex
	samples []int16
	limit   int
	level   float64
	done    chan struct{}
	closed  bool
}

func newPCMAccumulator(limit int) *pcmAccumulator {
	return &pcmAccumulator{
		samples: make([]int16, 0, limit),
		limit:   limit,
		level:   -60,
		done:    make(chan struct{}),
	}
}

// write appends raw device bytes, dropping anything past the limit
func (a *pcmAccumulator) write(p []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}

	var sumSquares float64
	n := len(p) / 2
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(p[2*i:]))
		v := float64(s) / 32768.0
		sumSquares += v * v
		if len(a.samples) < a.limit {
			a.samples = append(a.samples, s)
		}
	}
	if n > 0 {
		a.level = levelDB(math.Sqrt(sumSquares / float64(n)))
	}

	if len(a.samples) >= a.limit {
		a.closed = true
		close(a.done)
	}
}

func (a *pcmAccumulator) snapshot() (count int, level float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.samples), a.level
}

func (a *pcmAccumulator) result() []int16 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]int16, len(a.samples))
	copy(out, a.samples)
	return out
}

// levelDB converts a linear RMS value to dBFS for the VU meter, floored at -60 dB
func levelDB(rms float64) float64 {
	if rms < 0.001 {
		return -60.0
	}
	return math.Max(-60, math.Min(0, 20*math.Log10(rms)))
}

// Record captures mono 16-bit audio from the default input device until
// opts.Duration has been collected or ctx is cancelled. A cancelled capture
// returns what was recorded so far together with ctx.Err().
func Record(ctx context.Context, opts RecordOptions) (_ []int16, err error) {
	if opts.SampleRate == 0 {
		opts.SampleRate = 16000
	}
	if opts.Duration <= 0 {
		return nil, fmt.Errorf("record duration must be positive, got %v", opts.Duration)
	}
	limit := max(1, int(opts.Duration.Seconds()*float64(opts.SampleRate)))

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}
	defer func() {
		if uerr := mctx.Uninit(); uerr != nil {
			err = multierror.Append(err, fmt.Errorf("failed to release audio context: %w", uerr)).ErrorOrNil()
		}
		mctx.Free()
	}()

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(opts.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	acc := newPCMAccumulator(limit)
	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			acc.write(input)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize capture device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return nil, fmt.Errorf("failed to start capture device: %w", err)
	}
	logger.Debugf(ctx, "capturing %v at %d Hz", opts.Duration, opts.SampleRate)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var cause error
loop:
	for {
		select {
		case <-acc.done:
			break loop
		case <-ctx.Done():
			cause = ctx.Err()
			break loop
		case <-ticker.C:
			if opts.OnLevel != nil {
				n, level := acc.snapshot()
				opts.OnLevel(time.Duration(float64(n)/float64(opts.SampleRate)*float64(time.Second)), level)
			}
		}
	}

	if serr := device.Stop(); serr != nil {
		cause = multierror.Append(cause, fmt.Errorf("failed to stop capture device: %w", serr)).ErrorOrNil()
	}

	samples := acc.result()
	logger.Debugf(ctx, "captured %d samples", len(samples))
	return samples, cause
}
