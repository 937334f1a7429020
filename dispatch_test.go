package philox

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWorkerCountDoesNotChangeOutput(t *testing.T) {
	var ref []uint32
	var refNormal []float32
	for _, workers := range []int{1, 3, 8, 16} {
		e := newTestEngine(t, Config{Seed: 77, Offset: 3, Lanes: 8, Workers: workers})
		got := mustUint32(t, e, 203)
		normal := make([]float32, 61)
		if err := e.GenerateNormal(context.Background(), normal, 0, 1).Wait(); err != nil {
			t.Fatal(err)
		}

		if ref == nil {
			ref, refNormal = got, normal
			continue
		}
		if diff := cmp.Diff(ref, got); diff != "" {
			t.Errorf("workers=%d: words differ (-want +got):\n%s", workers, diff)
		}
		if diff := cmp.Diff(refNormal, normal); diff != "" {
			t.Errorf("workers=%d: normals differ (-want +got):\n%s", workers, diff)
		}
	}
}

func TestOutputIsPrefixOfLongerRequest(t *testing.T) {
	const lanes = 4
	ref := mustUint32(t, newTestEngine(t, Config{Seed: 11, Lanes: lanes}), 80)

	for n := 1; n <= 70; n++ {
		e := newTestEngine(t, Config{Seed: 11, Lanes: lanes})
		if diff := cmp.Diff(ref[:n], mustUint32(t, e, n)); diff != "" {
			t.Errorf("n=%d (-want +got):\n%s", n, diff)
		}
	}
}

func TestTailComesFromOwningLane(t *testing.T) {
	const lanes = 3
	for n := 1; n <= 30; n++ {
		e := newTestEngine(t, Config{Seed: 21, Lanes: lanes})
		got := mustUint32(t, e, n)

		rows := n / 4
		for i := 0; i < n; i++ {
			row := i / 4
			want := blockAt(21, uint64(row%lanes), uint64(row/lanes))[i%4]
			if got[i] != want {
				t.Errorf("n=%d index %d = %08x, want %08x (rows %d)", n, i, got[i], want, rows)
			}
		}
	}
}

func TestTailAdvancesByConsumedWords(t *testing.T) {
	e := newTestEngine(t, Config{Seed: 4, Lanes: 2})
	mustUint32(t, e, 3)

	// Lane 0 owned the tail and consumed three words of its first block.
	want := blockAt(4, 0, 0)[3]
	got := mustUint32(t, e, 4)
	if got[0] != want {
		t.Errorf("first word after tail = %08x, want %08x", got[0], want)
	}
	if got[3] != blockAt(4, 0, 1)[2] {
		t.Errorf("stitched word = %08x, want %08x", got[3], blockAt(4, 0, 1)[2])
	}
}

func TestContinuitySingleLane(t *testing.T) {
	for _, n1 := range []int{1, 3, 4, 6, 9} {
		const n2 = 10
		whole := mustUint32(t, newTestEngine(t, Config{Seed: 6, Lanes: 1}), n1+n2)

		e := newTestEngine(t, Config{Seed: 6, Lanes: 1})
		got := append(mustUint32(t, e, n1), mustUint32(t, e, n2)...)
		if diff := cmp.Diff(whole, got); diff != "" {
			t.Errorf("n1=%d (-whole +split):\n%s", n1, diff)
		}
	}
}

func TestContinuityAlignedSplit(t *testing.T) {
	const lanes = 4
	const n1, n2 = 48, 37
	whole := mustUint32(t, newTestEngine(t, Config{Seed: 6, Lanes: lanes}), n1+n2)

	e := newTestEngine(t, Config{Seed: 6, Lanes: lanes})
	got := append(mustUint32(t, e, n1), mustUint32(t, e, n2)...)
	if diff := cmp.Diff(whole, got); diff != "" {
		t.Errorf("split %d+%d (-whole +split):\n%s", n1, n2, diff)
	}
}

func TestFewerRowsThanLanes(t *testing.T) {
	e := newTestEngine(t, Config{Seed: 13, Lanes: 16})
	mustUint32(t, e, 8)

	// Only lanes 0 and 1 advanced; lane 2 still starts at block 0.
	got := mustUint32(t, e, 12)
	want := []Block{blockAt(13, 0, 1), blockAt(13, 1, 1), blockAt(13, 2, 0)}
	for row, b := range want {
		if diff := cmp.Diff(b[:], got[row*4:row*4+4]); diff != "" {
			t.Errorf("row %d (-want +got):\n%s", row, diff)
		}
	}
}

func TestNormalDoubleOddLength(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, Config{Seed: 30, Lanes: 4})
	ref := make([]float64, 8)
	if err := e.GenerateNormalDouble(ctx, ref, 1, 2).Wait(); err != nil {
		t.Fatal(err)
	}

	for _, n := range []int{1, 3, 5, 7} {
		e.Reset()
		got := make([]float64, n)
		if err := e.GenerateNormalDouble(ctx, got, 1, 2).Wait(); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(ref[:n], got); diff != "" {
			t.Errorf("n=%d (-want +got):\n%s", n, diff)
		}
	}
}

func TestPoissonLaneMapping(t *testing.T) {
	const lanes = 4
	const lambda = 4.0
	e := newTestEngine(t, Config{Seed: 50, Lanes: lanes})
	got := make([]uint32, 23)
	if err := e.GeneratePoisson(context.Background(), got, lambda).Wait(); err != nil {
		t.Fatal(err)
	}

	s, err := newPoissonSampler(lambda)
	if err != nil {
		t.Fatal(err)
	}
	var src [lanes]laneState
	for lane := range src {
		src[lane] = newLaneState(0, uint64(lane), 50)
	}
	want := make([]uint32, len(got))
	for i := range want {
		want[i] = s.sample(&src[i%lanes])
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("poisson (-want +got):\n%s", diff)
	}
}

func TestEmptyRequest(t *testing.T) {
	e := newTestEngine(t, Config{Seed: 1})
	if err := e.GenerateUint32(context.Background(), nil).Wait(); err != nil {
		t.Fatalf("empty request error = %v", err)
	}
	// The empty call initialized the lanes without consuming anything.
	ref := newTestEngine(t, Config{Seed: 1})
	if diff := cmp.Diff(mustUint32(t, ref, 16), mustUint32(t, e, 16)); diff != "" {
		t.Errorf("after empty request (-want +got):\n%s", diff)
	}
}

func BenchmarkGenerateUniform(b *testing.B) {
	e, err := New(Config{Seed: 1, Lanes: 4096})
	if err != nil {
		b.Fatal(err)
	}
	defer e.Close()

	buf := make([]float32, 1<<20)
	b.SetBytes(int64(len(buf) * 4))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := e.GenerateUniform(context.Background(), buf).Wait(); err != nil {
			b.Fatal(err)
		}
	}
}

func TestNormalOnMidBlockLane(t *testing.T) {
	e := newTestEngine(t, Config{Seed: 3, Lanes: 1})
	mustUint32(t, e, 1)

	got := make([]float32, 4)
	if err := e.GenerateNormal(context.Background(), got, 0, 1).Wait(); err != nil {
		t.Fatal(err)
	}

	// The lane sits at phase 1, so the Box-Muller pairs are taken from the
	// stitched block (words 1..4), not from an aligned block.
	s := newLaneState(0, 0, 3)
	s.nextScalar()
	stitched := make([]float32, 4)
	Normal{Mean: 0, Stddev: 1}.Apply(s.next4(), stitched)
	if diff := cmp.Diff(stitched, got); diff != "" {
		t.Errorf("normals on a phase-1 lane (-want +got):\n%s", diff)
	}

	for k := uint64(0); k < 2; k++ {
		aligned := make([]float32, 4)
		Normal{Mean: 0, Stddev: 1}.Apply(blockAt(3, 0, k), aligned)
		if cmp.Equal(aligned, got) {
			t.Errorf("normals match aligned block %d, want stitched pairing", k)
		}
	}
}

func TestSplitOffRowBoundaryRemaps(t *testing.T) {
	const lanes = 4
	whole := mustUint32(t, newTestEngine(t, Config{Seed: 6, Lanes: lanes}), 20)

	e := newTestEngine(t, Config{Seed: 6, Lanes: lanes})
	got := append(mustUint32(t, e, 4), mustUint32(t, e, 16)...)
	if cmp.Equal(whole, got) {
		t.Error("a split off the lane-array boundary should restart the row mapping at lane 0")
	}
	// The second call's first row comes from lane 0's second block.
	want := blockAt(6, 0, 1)
	if diff := cmp.Diff(want[:], got[4:8]); diff != "" {
		t.Errorf("second call row 0 (-want +got):\n%s", diff)
	}
}
