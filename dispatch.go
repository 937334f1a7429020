package philox

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// launch is everything a dispatch captures at submission time.
type launch struct {
	seed    uint64
	offset  uint64
	init    bool
	workers int
}

// forEachLane runs fn for every lane that has work, spreading contiguous
// lane ranges over the workers. Each lane works on a private copy of its
// state which is written back to its own slot when it is done, so no two
// goroutines ever touch the same slot. When the launch initializes state,
// every lane is initialized and stored, busy or not, even if fn fails on
// some of them.
func (l launch) forEachLane(states []laneState, busy func(lane int) bool, fn func(lane int, st *laneState)) error {
	lanes := len(states)
	workers := l.workers
	if workers > lanes {
		workers = lanes
	}
	if workers < 1 {
		workers = 1
	}
	perWorker := (lanes + workers - 1) / workers

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		start := w * perWorker
		end := start + perWorker
		if end > lanes {
			end = lanes
		}
		if start >= end {
			break
		}
		g.Go(func() error {
			var first error
			for lane := start; lane < end; lane++ {
				if !l.init && !busy(lane) {
					continue
				}
				st := states[lane]
				if l.init {
					st.initState(l.offset, uint64(lane), l.seed)
				}
				if err := runLane(lane, &st, fn); err != nil && first == nil {
					first = err
				}
				states[lane] = st
			}
			return first
		})
	}
	return g.Wait()
}

// runLane calls fn, turning a panic into a dispatch error.
func runLane(lane int, st *laneState, fn func(lane int, st *laneState)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: lane %d: panic: %v", ErrDispatch, lane, r)
		}
	}()
	fn(lane, st)
	return nil
}

// initOnly initializes and stores every lane without producing output.
func (l launch) initOnly(states []laneState) error {
	if !l.init {
		return nil
	}
	return l.forEachLane(states, func(int) bool { return false }, func(int, *laneState) {})
}

// runBlocks fills dst with the strided block partition: output row i
// (Width values) comes from lane i mod L. When len(dst) is not a multiple
// of the width, the lane owning the next row peeks that row, writes the
// values that fit and advances by exactly the words they consumed.
func runBlocks[T any](states []laneState, l launch, dst []T, d Distribution[T]) error {
	w := d.Width()
	if w != 1 && w != 2 && w != 4 {
		if err := l.initOnly(states); err != nil {
			return err
		}
		return fmt.Errorf("%w: distribution width %d", ErrDispatch, w)
	}
	lanes := len(states)
	n := len(dst)
	rows := n / w
	tail := n % w
	tailLane := -1
	if tail > 0 {
		tailLane = rows % lanes
	}

	busy := func(lane int) bool {
		return lane < rows || lane == tailLane
	}
	return l.forEachLane(states, busy, func(lane int, st *laneState) {
		// The phase is constant across rows, so an aligned lane can skip
		// the stitch.
		next := st.next4
		if st.phase == 0 {
			next = st.next4Unsafe
		}
		for row := lane; row < rows; row += lanes {
			d.Apply(next(), dst[row*w:row*w+w])
		}
		if lane == tailLane {
			var buf [4]T
			d.Apply(st.peek4(), buf[:w])
			copy(dst[n-tail:], buf[:tail])
			st.skip(uint64(tail) * wordsPerValue(w))
		}
	})
}

// runPoisson fills dst one value at a time: index i belongs to lane
// i mod L, which feeds the sampler from its scalar stream.
func runPoisson(states []laneState, l launch, dst []uint32, s *poissonSampler) error {
	lanes := len(states)
	n := len(dst)
	busy := func(lane int) bool {
		return lane < n
	}
	return l.forEachLane(states, busy, func(lane int, st *laneState) {
		for i := lane; i < n; i += lanes {
			dst[i] = s.sample(st)
		}
	})
}
