package philox

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/golang/snappy"

	"github.com/opd-ai/go-philox/internal"
)

// ErrSnapshot is returned when a snapshot cannot be restored.
var ErrSnapshot = errors.New("philox: invalid snapshot")

const (
	snapshotMagic   = "PHLX"
	snapshotVersion = 1

	// magic, version, flags, seed, offset, lanes
	snapshotHeaderSize = 4 + 1 + 1 + 8 + 8 + 4

	// counter, key, phase
	snapshotLaneSize = 16 + 8 + 1

	snapshotInitialized = 1 << 0

	snapshotMaxSize = snapshotHeaderSize + MaxLanes*snapshotLaneSize
)

// MarshalBinary encodes the engine's seed, offset and lane states so a
// later UnmarshalBinary, possibly in another process, resumes the same
// streams. Cached blocks are not stored; they are recomputed from the
// counter and key on restore. It must not run while a dispatch is in
// flight.
func (e *Engine) MarshalBinary() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrClosed
	}

	buf := getBuffer()
	defer putBuffer(buf)

	var hdr [snapshotHeaderSize]byte
	copy(hdr[:4], snapshotMagic)
	hdr[4] = snapshotVersion
	if e.initialized {
		hdr[5] = snapshotInitialized
	}
	binary.LittleEndian.PutUint64(hdr[6:], e.seed)
	binary.LittleEndian.PutUint64(hdr[14:], e.offset)
	binary.LittleEndian.PutUint32(hdr[22:], uint32(len(e.states)))
	buf.Write(hdr[:])

	var rec [snapshotLaneSize]byte
	for i := range e.states {
		st := &e.states[i]
		for w, v := range st.counter {
			binary.LittleEndian.PutUint32(rec[w*4:], v)
		}
		binary.LittleEndian.PutUint32(rec[16:], st.key[0])
		binary.LittleEndian.PutUint32(rec[20:], st.key[1])
		rec[24] = byte(st.phase)
		buf.Write(rec[:])
	}

	return internal.Seal(snappy.Encode(nil, buf.Bytes())), nil
}

// UnmarshalBinary restores a snapshot written by MarshalBinary. The
// snapshot must have been taken from an engine with the same lane count.
func (e *Engine) UnmarshalBinary(data []byte) error {
	payload, err := internal.Open(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshot, err)
	}
	n, err := snappy.DecodedLen(payload)
	if err != nil {
		return fmt.Errorf("%w: decompress: %v", ErrSnapshot, err)
	}
	if n > snapshotMaxSize {
		return fmt.Errorf("%w: decoded size %d exceeds %d", ErrSnapshot, n, snapshotMaxSize)
	}
	raw, err := snappy.Decode(nil, payload)
	if err != nil {
		return fmt.Errorf("%w: decompress: %v", ErrSnapshot, err)
	}
	if len(raw) < snapshotHeaderSize || string(raw[:4]) != snapshotMagic {
		return fmt.Errorf("%w: bad header", ErrSnapshot)
	}
	if raw[4] != snapshotVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrSnapshot, raw[4])
	}

	flags := raw[5]
	seed := binary.LittleEndian.Uint64(raw[6:])
	offset := binary.LittleEndian.Uint64(raw[14:])
	lanes := int(binary.LittleEndian.Uint32(raw[22:]))
	body := raw[snapshotHeaderSize:]
	if len(body) != lanes*snapshotLaneSize {
		return fmt.Errorf("%w: %d bytes of lane data for %d lanes", ErrSnapshot, len(body), lanes)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if lanes != len(e.states) {
		return fmt.Errorf("%w: snapshot has %d lanes, engine has %d", ErrSnapshot, lanes, len(e.states))
	}

	restored := make([]laneState, lanes)
	for i := range restored {
		rec := body[i*snapshotLaneSize:]
		st := &restored[i]
		for w := range st.counter {
			st.counter[w] = binary.LittleEndian.Uint32(rec[w*4:])
		}
		st.key = Key{binary.LittleEndian.Uint32(rec[16:]), binary.LittleEndian.Uint32(rec[20:])}
		st.phase = uint32(rec[24])
		if st.phase > 3 {
			return fmt.Errorf("%w: lane %d phase %d", ErrSnapshot, i, st.phase)
		}
		st.refill()
	}

	copy(e.states, restored)
	e.seed = seed
	e.offset = offset
	e.initialized = flags&snapshotInitialized != 0

	e.log.Debug().Int("lanes", lanes).Bool("initialized", e.initialized).Msg("snapshot restored")
	return nil
}
