package philox

import (
	"bytes"
	"fmt"
	"sync"
	"unsafe"
)

// laneStateSize is the in-memory footprint of one lane.
const laneStateSize = int(unsafe.Sizeof(laneState{}))

// Buffer pool for snapshot encoding
var bufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// allocateStates reserves zeroed storage for lanes lane states.
// A request the runtime cannot satisfy is reported as ErrAllocation
// instead of crashing the process.
func allocateStates(lanes int) (states []laneState, err error) {
	if lanes <= 0 || lanes > MaxLanes {
		return nil, fmt.Errorf("%w: %d lanes (%d bytes each, max %d lanes)",
			ErrAllocation, lanes, laneStateSize, MaxLanes)
	}
	defer func() {
		if r := recover(); r != nil {
			states = nil
			err = fmt.Errorf("%w: %d lanes: %v", ErrAllocation, lanes, r)
		}
	}()
	return make([]laneState, lanes), nil
}

// releaseStates clears lane storage so no key material outlives the engine.
func releaseStates(states []laneState) {
	for i := range states {
		states[i] = laneState{}
	}
}

// getBuffer retrieves an empty buffer from the pool.
func getBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// putBuffer returns a buffer to the pool for reuse.
func putBuffer(buf *bytes.Buffer) {
	if buf != nil {
		bufferPool.Put(buf)
	}
}
