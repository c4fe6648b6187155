package errwatch

import (
	"errors"
	"testing"
)

func TestReport_SuppressesAfterThreshold(t *testing.T) {
	r := New(3, nil)
	err := errors.New("node detached")

	for i := 1; i <= 3; i++ {
		if !r.Report("analysis", err) {
			t.Fatalf("occurrence %d: suppressed too early", i)
		}
	}
	for i := 4; i <= 10; i++ {
		if r.Report("analysis", err) {
			t.Fatalf("occurrence %d: not suppressed", i)
		}
	}
	if got := r.Count("analysis"); got != 10 {
		t.Fatalf("count: got %d, want 10 (suppressed errors still counted)", got)
	}
}

func TestReport_DifferentMessagesIndependent(t *testing.T) {
	r := New(1, nil)
	if !r.Report("analysis", errors.New("a")) {
		t.Fatal("first 'a' suppressed")
	}
	if r.Report("analysis", errors.New("a")) {
		t.Fatal("second 'a' not suppressed")
	}
	if !r.Report("analysis", errors.New("b")) {
		t.Fatal("distinct message 'b' wrongly suppressed")
	}
}

func TestReport_NilError(t *testing.T) {
	r := New(0, nil)
	if r.Report("analysis", nil) {
		t.Fatal("nil error should not be surfaced")
	}
}

func TestReset(t *testing.T) {
	r := New(1, nil)
	err := errors.New("x")
	r.Report("render", err)
	r.Report("render", err)
	r.Reset()
	if !r.Report("render", err) {
		t.Fatal("Reset did not re-arm reporting")
	}
	if got := r.Count("render"); got != 1 {
		t.Fatalf("count after reset: got %d, want 1", got)
	}
}
