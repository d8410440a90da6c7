package align

import (
	"strings"
	"testing"

	"golang.org/x/exp/rand"
)

func TestCandidates(t *testing.T) {
	cands := Candidates(8, 6)
	if len(cands) != 6 {
		t.Fatalf("got %d candidates, want 6", len(cands))
	}
	// Forward offsets come first, then reverse.
	for i, c := range cands {
		wantRev := i >= 3
		if c.Rev != wantRev || c.Start != i%3 {
			t.Errorf("candidate %d: got %v", i, c)
		}
		if !c.Valid(8, 6) {
			t.Errorf("candidate %d is invalid", i)
		}
	}

	if got := Candidates(5, 6); got != nil {
		t.Errorf("pwm shorter than window yielded candidates: %v", got)
	}
}

func TestValid(t *testing.T) {
	if (State{Start: 3, Rev: false}).Valid(8, 6) {
		t.Error("window past the end accepted")
	}
	if (State{Start: -1}).Valid(8, 6) {
		t.Error("negative offset accepted")
	}
	if !(State{Start: 2}).Valid(8, 6) {
		t.Error("valid state rejected")
	}
}

func TestRandomStaysValid(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		if st := Random(rng, 9, 6); !st.Valid(9, 6) {
			t.Fatalf("random state %v invalid", st)
		}
	}
}

func TestFingerSegment(t *testing.T) {
	// N-terminal finger of a 3-finger array contacts the last segment.
	if FingerSegment(0, 3) != 2 || FingerSegment(2, 3) != 0 {
		t.Error("antiparallel finger mapping wrong")
	}
	if FingerSegment(0, 1) != 0 {
		t.Error("single unit must map to segment 0")
	}
}

func TestSeedsRoundTrip(t *testing.T) {
	in := "Pitx1\t2\t0\nEn1\t4\t1\n"
	seeds, err := ReadSeeds(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if st := seeds["Pitx1"]; st.Start != 2 || st.Rev {
		t.Errorf("Pitx1: got %v", st)
	}
	if st := seeds["En1"]; st.Start != 4 || !st.Rev {
		t.Errorf("En1: got %v", st)
	}

	var buf strings.Builder
	if err := WriteStates(&buf, seeds); err != nil {
		t.Fatal(err)
	}
	back, err := ReadSeeds(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != 2 || back["Pitx1"] != seeds["Pitx1"] ||
		back["En1"] != seeds["En1"] {
		t.Errorf("round trip mismatch: %v", back)
	}
}

func TestReadSeedsRejectsBadRev(t *testing.T) {
	if _, err := ReadSeeds(strings.NewReader("p\t0\t2\n")); err == nil {
		t.Error("rev outside {0,1} accepted")
	}
}
