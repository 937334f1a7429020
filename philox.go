// Package philox provides a pure-Go Philox4x32-10 counter-based random
// number engine for bulk generation in numerical simulation.
//
// An Engine owns a fixed array of lanes. Each lane carries its own
// independent stream (its lane id is the stream's sequence number), and
// every generate call spreads the output over the lanes with a fixed
// strided mapping, so the values depend only on the seed, offset, lane
// count and request length, never on how many goroutines run the lanes.
// Lane state persists between calls, so consecutive calls continue the
// streams instead of restarting them. Each call starts its strided mapping
// at lane 0, so two calls of n1 and n2 values equal one call of n1+n2
// values only when the engine has a single lane or n1 is a multiple of
// Width()*Lanes(). Other splits yield different, equally independent values.
//
// Example usage:
//
//	eng, err := philox.New(philox.Config{Seed: 42})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	buf := make([]float32, 1<<20)
//	if err := eng.GenerateUniform(ctx, buf).Wait(); err != nil {
//	    log.Fatal(err)
//	}
//
// The permutation is chosen for statistical quality and speed. It is not
// a cryptographically secure generator.
package philox

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
)

const (
	// DefaultLanes is the lane capacity used when Config.Lanes is zero.
	// It matches the launch geometry of the reference GPU engine, so the
	// default output is comparable with it.
	DefaultLanes = 1024 * 256

	// MaxLanes is the largest lane capacity an engine will reserve.
	MaxLanes = 1 << 24
)

var (
	// ErrAllocation is returned by New when lane storage cannot be reserved.
	ErrAllocation = errors.New("philox: lane state allocation failed")

	// ErrDispatch marks a generate call that was rejected or faulted.
	ErrDispatch = errors.New("philox: dispatch failed")

	// ErrClosed is reported by dispatches submitted after Close.
	ErrClosed = errors.New("philox: engine closed")

	// ErrPending is returned by Dispatch.Err while the dispatch runs.
	ErrPending = errors.New("philox: dispatch pending")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("philox: invalid config")
)

// Config specifies the configuration of an Engine.
type Config struct {
	// Seed selects the key shared by every lane.
	Seed uint64

	// Offset is the number of blocks every lane skips before its first
	// output.
	Offset uint64

	// Lanes is the lane capacity. Zero means DefaultLanes. Changing it
	// changes the output.
	Lanes int

	// Workers is the number of goroutines executing lanes. Zero means
	// runtime.NumCPU(). It never changes the output.
	Workers int

	// Queue is the execution queue dispatches are submitted to. Nil
	// gives the engine a private queue that Close shuts down.
	Queue *Queue

	// Logger receives engine events. Nil uses the package default,
	// which is silent unless PHILOX_DEBUG=1.
	Logger *zerolog.Logger
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Lanes < 0 {
		return fmt.Errorf("%w: negative lane count %d", ErrInvalidConfig, c.Lanes)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: negative worker count %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

// Engine generates Philox4x32-10 output in parallel lanes.
//
// The generate methods and the mutators must not be called concurrently
// with each other from different goroutines; dispatches submitted from one
// goroutine run in submission order on the engine's queue. The output
// buffer of a dispatch must not be touched until the dispatch is done.
//
// Every call resumes each lane where the previous call left it, but row i
// of a call always goes to lane i mod Lanes(). Splitting a request is
// therefore output-preserving only on block-row boundaries of the whole
// lane array; see the package documentation.
type Engine struct {
	log       zerolog.Logger
	queue     *Queue
	ownsQueue bool
	workers   int

	mu          sync.Mutex
	seed        uint64
	offset      uint64
	initialized bool
	closed      bool
	states      []laneState
	inflight    sync.WaitGroup
}

// New creates an engine with the specified configuration.
// The returned engine should be closed with Close to release its lanes.
func New(config Config) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	lanes := config.Lanes
	if lanes == 0 {
		lanes = DefaultLanes
	}
	workers := config.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	states, err := allocateStates(lanes)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		log:     loggerOrDefault(config.Logger),
		queue:   config.Queue,
		workers: workers,
		seed:    config.Seed,
		offset:  config.Offset,
		states:  states,
	}
	if e.queue == nil {
		e.queue = NewQueue(defaultQueueDepth)
		e.ownsQueue = true
	}

	e.log.Info().
		Uint64("seed", e.seed).
		Uint64("offset", e.offset).
		Int("lanes", lanes).
		Int("workers", workers).
		Msg("philox engine created")

	return e, nil
}

// Seed returns the current seed.
func (e *Engine) Seed() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seed
}

// Offset returns the current offset.
func (e *Engine) Offset() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.offset
}

// Lanes returns the lane capacity.
func (e *Engine) Lanes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.states)
}

// SetSeed changes the seed. The next dispatch reinitializes every lane.
func (e *Engine) SetSeed(seed uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seed = seed
	e.initialized = false
}

// SetOffset changes the offset. The next dispatch reinitializes every lane.
func (e *Engine) SetOffset(offset uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.offset = offset
	e.initialized = false
}

// Reset makes the next dispatch restart every lane from the seed and offset.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initialized = false
}

// Close waits for the engine's outstanding dispatches, stops a private
// queue and releases the lane storage. After Close, dispatches fail with
// ErrClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.inflight.Wait()
	if e.ownsQueue {
		e.queue.Close()
	}

	e.mu.Lock()
	releaseStates(e.states)
	e.states = nil
	e.initialized = false
	e.mu.Unlock()

	e.log.Debug().Msg("philox engine closed")
	return nil
}

// submit captures the launch parameters and queues run. The initialized
// flag is set only once the queue has accepted the dispatch, so a
// rejected call never marks lane state as valid. An accepted dispatch
// initializes every lane even when it fails, but a fault while running
// may leave some lanes advanced and others not.
func (e *Engine) submit(ctx context.Context, kind string, count int, run func(states []laneState, l launch) error) *Dispatch {
	if ctx == nil {
		ctx = context.Background()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return failedDispatch(fmt.Errorf("%w: %s: %w", ErrDispatch, kind, ErrClosed))
	}

	l := launch{
		seed:    e.seed,
		offset:  e.offset,
		init:    !e.initialized,
		workers: e.workers,
	}
	states := e.states

	log := e.log.With().Str("dist", kind).Int("count", count).Logger()
	e.inflight.Add(1)
	after := func(err error) {
		if err != nil {
			log.Warn().Err(err).Msg("dispatch failed")
		} else {
			log.Debug().Msg("dispatch finished")
		}
		e.inflight.Done()
	}

	d, err := e.queue.submit(ctx, func() error {
		if l.init {
			log.Debug().Int("lanes", len(states)).Msg("initializing lane state")
		}
		return run(states, l)
	}, after)
	if err != nil {
		return d
	}

	log.Debug().Bool("init", l.init).Msg("dispatch submitted")
	e.initialized = true
	return d
}

// Generate fills dst with values of distribution d.
func Generate[T any](ctx context.Context, e *Engine, dst []T, d Distribution[T]) *Dispatch {
	return e.submit(ctx, fmt.Sprintf("%T", d), len(dst), func(states []laneState, l launch) error {
		return runBlocks(states, l, dst, d)
	})
}

// GenerateUint32 fills dst with raw 32-bit words.
func (e *Engine) GenerateUint32(ctx context.Context, dst []uint32) *Dispatch {
	return Generate[uint32](ctx, e, dst, Raw{})
}

// GenerateUniform fills dst with float32 values in (0, 1].
func (e *Engine) GenerateUniform(ctx context.Context, dst []float32) *Dispatch {
	return Generate[float32](ctx, e, dst, Uniform{})
}

// GenerateUniformDouble fills dst with float64 values in (0, 1).
func (e *Engine) GenerateUniformDouble(ctx context.Context, dst []float64) *Dispatch {
	return Generate[float64](ctx, e, dst, UniformDouble{})
}

// GenerateNormal fills dst with normal deviates.
func (e *Engine) GenerateNormal(ctx context.Context, dst []float32, mean, stddev float32) *Dispatch {
	return Generate[float32](ctx, e, dst, Normal{Mean: mean, Stddev: stddev})
}

// GenerateNormalDouble fills dst with float64 normal deviates.
func (e *Engine) GenerateNormalDouble(ctx context.Context, dst []float64, mean, stddev float64) *Dispatch {
	return Generate[float64](ctx, e, dst, NormalDouble{Mean: mean, Stddev: stddev})
}

// GenerateLogNormal fills dst with log-normal deviates whose logarithm has
// the given mean and standard deviation.
func (e *Engine) GenerateLogNormal(ctx context.Context, dst []float32, mean, stddev float32) *Dispatch {
	return Generate[float32](ctx, e, dst, LogNormal{Mean: mean, Stddev: stddev})
}

// GenerateLogNormalDouble is the float64 form of GenerateLogNormal.
func (e *Engine) GenerateLogNormalDouble(ctx context.Context, dst []float64, mean, stddev float64) *Dispatch {
	return Generate[float64](ctx, e, dst, LogNormalDouble{Mean: mean, Stddev: stddev})
}

// GeneratePoisson fills dst with Poisson variates of mean lambda. An
// invalid lambda is reported through the dispatch.
func (e *Engine) GeneratePoisson(ctx context.Context, dst []uint32, lambda float64) *Dispatch {
	return e.submit(ctx, "poisson", len(dst), func(states []laneState, l launch) error {
		s, err := newPoissonSampler(lambda)
		if err != nil {
			if ierr := l.initOnly(states); ierr != nil {
				return ierr
			}
			return fmt.Errorf("%w: %v", ErrDispatch, err)
		}
		return runPoisson(states, l, dst, s)
	})
}
