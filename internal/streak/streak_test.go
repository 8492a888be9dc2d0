package streak

import (
	"reflect"
	"testing"
	"time"
)

func mustAdvance(t *testing.T, s State, date string, countSameDay bool) State {
	t.Helper()
	next, err := Advance(s, date, countSameDay)
	if err != nil {
		t.Fatalf("advance %s: %v", date, err)
	}
	return next
}

func TestAdvanceFirstCheckin(t *testing.T) {
	s := mustAdvance(t, State{}, "2025-03-01", true)
	if s.CurrentStreak != 1 || s.LongestStreak != 1 || s.TotalCheckins != 1 {
		t.Fatalf("unexpected state: %+v", s)
	}
	if s.LastCheckinDate != "2025-03-01" {
		t.Fatalf("last checkin not recorded: %+v", s)
	}
}

func TestAdvanceConsecutiveWeekHitsMilestone(t *testing.T) {
	var s State
	day, _ := time.Parse(DateLayout, "2025-03-01")
	for i := 0; i < 7; i++ {
		s = mustAdvance(t, s, day.AddDate(0, 0, i).Format(DateLayout), true)
	}
	if s.CurrentStreak != 7 {
		t.Fatalf("expected streak 7, got %d", s.CurrentStreak)
	}
	if s.LongestStreak < 7 {
		t.Fatalf("longest must cover current: %+v", s)
	}
	if !reflect.DeepEqual(s.Milestones, []int{7}) {
		t.Fatalf("expected milestone 7, got %v", s.Milestones)
	}
	if s.TotalCheckins != 7 {
		t.Fatalf("expected 7 total checkins, got %d", s.TotalCheckins)
	}
}

func TestAdvanceSameDayIsIdempotentForStreak(t *testing.T) {
	s := mustAdvance(t, State{}, "2025-03-01", true)
	s = mustAdvance(t, s, "2025-03-02", true)

	again := mustAdvance(t, s, "2025-03-02", true)
	if again.CurrentStreak != s.CurrentStreak {
		t.Fatalf("same-day resubmission changed the streak: %d -> %d", s.CurrentStreak, again.CurrentStreak)
	}
	// Historical accounting: the total still rises on a no-op day.
	if again.TotalCheckins != s.TotalCheckins+1 {
		t.Fatalf("expected total to rise, got %d", again.TotalCheckins)
	}

	skipped := mustAdvance(t, s, "2025-03-02", false)
	if skipped.TotalCheckins != s.TotalCheckins {
		t.Fatalf("countSameDay=false must not inflate total, got %d", skipped.TotalCheckins)
	}
}

func TestAdvanceGapResetsStreak(t *testing.T) {
	s := mustAdvance(t, State{}, "2025-03-01", true)
	s = mustAdvance(t, s, "2025-03-02", true)
	s = mustAdvance(t, s, "2025-03-05", true)
	if s.CurrentStreak != 1 {
		t.Fatalf("gap over one day must reset to 1, got %d", s.CurrentStreak)
	}
	if s.LongestStreak != 2 {
		t.Fatalf("longest must survive the reset, got %d", s.LongestStreak)
	}
}

func TestAdvanceMilestonesAreMonotonic(t *testing.T) {
	s := State{CurrentStreak: 6, LongestStreak: 10, LastCheckinDate: "2025-03-06", Milestones: []int{7}}
	s = mustAdvance(t, s, "2025-03-07", true)
	if s.CurrentStreak != 7 {
		t.Fatalf("expected 7, got %d", s.CurrentStreak)
	}
	if !reflect.DeepEqual(s.Milestones, []int{7}) {
		t.Fatalf("milestone 7 must not be recorded twice: %v", s.Milestones)
	}
}

func TestReportedDecay(t *testing.T) {
	s := State{CurrentStreak: 5, LastCheckinDate: "2025-03-01"}
	if got := Reported(s, "2025-03-02"); got != 5 {
		t.Fatalf("yesterday's checkin keeps the streak, got %d", got)
	}
	if got := Reported(s, "2025-03-03"); got != 0 {
		t.Fatalf("gap over one day reports 0, got %d", got)
	}
	if got := Reported(State{}, "2025-03-03"); got != 0 {
		t.Fatalf("empty state reports 0, got %d", got)
	}
}

func TestNextMilestone(t *testing.T) {
	if days, rem := NextMilestone(3); days != 7 || rem != 4 {
		t.Fatalf("got %d/%d", days, rem)
	}
	if days, rem := NextMilestone(100); days != 365 || rem != 265 {
		t.Fatalf("got %d/%d", days, rem)
	}
	if days, rem := NextMilestone(400); days != 500 || rem != 100 {
		t.Fatalf("past the list expects rolling target, got %d/%d", days, rem)
	}
}
