package philox

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/exp/rand"
)

func TestStreamMatchesEngineLane(t *testing.T) {
	s := NewStream(5, 0, 2)
	for k := uint64(0); k < 3; k++ {
		want := blockAt(5, 2, k)
		for i := range want {
			if got := s.Uint32(); got != want[i] {
				t.Fatalf("block %d word %d = %08x, want %08x", k, i, got, want[i])
			}
		}
	}
}

func TestStreamUint64(t *testing.T) {
	s := NewStream(1, 0, 0)
	b := blockAt(1, 0, 0)
	if got, want := s.Uint64(), uint64(b[1])<<32|uint64(b[0]); got != want {
		t.Errorf("Uint64() = %#x, want %#x", got, want)
	}
	if got, want := s.Uint64(), uint64(b[3])<<32|uint64(b[2]); got != want {
		t.Errorf("second Uint64() = %#x, want %#x", got, want)
	}
}

func TestStreamDiscardAndSeed(t *testing.T) {
	s := NewStream(3, 1, 0)
	s.Discard(4)
	if got, want := s.Block(), blockAt(3, 0, 5); got != want {
		t.Errorf("after Discard(4) block = %08x, want %08x", got, want)
	}
	if want := (Block{6, 0, 0, 0}); s.Counter() != want {
		t.Errorf("Counter() = %v, want %v", s.Counter(), want)
	}

	s.Uint32()
	if s.Phase() != 1 {
		t.Errorf("Phase() = %d, want 1", s.Phase())
	}

	s.Seed(3)
	if got, want := s.Block(), blockAt(3, 0, 1); got != want {
		t.Errorf("after Seed block = %08x, want %08x", got, want)
	}
}

func TestStreamAsRandSource(t *testing.T) {
	a := rand.New(NewStream(42, 0, 0))
	b := rand.New(NewStream(42, 0, 0))

	var xs, ys []float64
	for i := 0; i < 100; i++ {
		xs = append(xs, a.NormFloat64())
		ys = append(ys, b.NormFloat64())
	}
	if diff := cmp.Diff(xs, ys); diff != "" {
		t.Errorf("same seed diverged (-a +b):\n%s", diff)
	}

	r := rand.New(NewStream(42, 0, 0))
	for i := 0; i < 1000; i++ {
		if v := r.Intn(10); v < 0 || v >= 10 {
			t.Fatalf("Intn(10) = %d", v)
		}
	}
}

func TestSeedFromBytes(t *testing.T) {
	a := SeedFromBytes([]byte("experiment-1"))
	if a != SeedFromBytes([]byte("experiment-1")) {
		t.Error("SeedFromBytes is not deterministic")
	}
	if a == SeedFromBytes([]byte("experiment-2")) {
		t.Error("different labels gave the same seed")
	}
}
