package markethours

import (
	"testing"
	"time"
)

func TestIsMarketOpen(t *testing.T) {
	// Monday 2026-08-31, 10:00 IST
	open := time.Date(2026, 8, 31, 10, 0, 0, 0, IST)
	if !IsMarketOpen(open) {
		t.Error("expected market open on a Monday mid-session")
	}

	// Same day after close
	if IsMarketOpen(time.Date(2026, 8, 31, 15, 30, 0, 0, IST)) {
		t.Error("expected market closed at 15:30 sharp")
	}

	// Sunday
	if IsMarketOpen(time.Date(2026, 8, 30, 10, 0, 0, 0, IST)) {
		t.Error("expected market closed on Sunday")
	}

	// Independence Day 2026 (Saturday anyway, use Gandhi Jayanti Friday)
	if IsMarketOpen(time.Date(2026, 10, 2, 10, 0, 0, 0, IST)) {
		t.Error("expected market closed on Gandhi Jayanti")
	}
}

func TestLastCompletedSession(t *testing.T) {
	// Tuesday 2026-09-01 at 10:00 — today's bar is still forming, the
	// latest final bar belongs to Monday.
	got := LastCompletedSession(time.Date(2026, 9, 1, 10, 0, 0, 0, IST))
	want := time.Date(2026, 8, 31, 0, 0, 0, 0, IST)
	if !got.Equal(want) {
		t.Errorf("mid-session: got %v, want %v", got, want)
	}

	// Same Tuesday at 16:00 — today's session has closed.
	got = LastCompletedSession(time.Date(2026, 9, 1, 16, 0, 0, 0, IST))
	want = time.Date(2026, 9, 1, 0, 0, 0, 0, IST)
	if !got.Equal(want) {
		t.Errorf("post-close: got %v, want %v", got, want)
	}

	// Sunday — walks back to Friday.
	got = LastCompletedSession(time.Date(2026, 9, 6, 12, 0, 0, 0, IST))
	want = time.Date(2026, 9, 4, 0, 0, 0, 0, IST)
	if !got.Equal(want) {
		t.Errorf("weekend: got %v, want %v", got, want)
	}
}

func TestNextOpenSkipsWeekend(t *testing.T) {
	// Friday 2026-09-04 at 16:00 → Monday 09:15
	got := NextOpen(time.Date(2026, 9, 4, 16, 0, 0, 0, IST))
	want := time.Date(2026, 9, 7, 9, 15, 0, 0, IST)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
