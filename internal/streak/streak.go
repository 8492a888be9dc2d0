// Package streak turns a sequence of daily check-in dates into streak and
// milestone state. It is pure computation; persistence lives in the ledger.
package streak

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date encoding used across check-in records.
const DateLayout = "2006-01-02"

// Milestones is the fixed ascending list of streak-length achievements.
var Milestones = []int{7, 14, 30, 60, 100, 365}

// State mirrors the persisted user_streaks row.
type State struct {
	CurrentStreak   int
	LongestStreak   int
	LastCheckinDate string // empty when the user has never checked in
	TotalCheckins   int
	Milestones      []int
}

// Advance applies one check-in on checkinDate and returns the next state.
// Same-day re-submission leaves the streak unchanged; a gap over one day
// resets it to 1. countSameDay controls whether a same-day no-op still bumps
// total_checkins (the historical behavior).
func Advance(prev State, checkinDate string, countSameDay bool) (State, error) {
	day, err := time.Parse(DateLayout, checkinDate)
	if err != nil {
		return prev, fmt.Errorf("parse checkin date: %w", err)
	}

	next := prev
	sameDay := false

	switch {
	case prev.LastCheckinDate == "":
		next.CurrentStreak = 1
	case prev.LastCheckinDate == checkinDate:
		sameDay = true
	default:
		last, err := time.Parse(DateLayout, prev.LastCheckinDate)
		if err != nil {
			return prev, fmt.Errorf("parse last checkin date: %w", err)
		}
		if day.Equal(last.AddDate(0, 0, 1)) {
			next.CurrentStreak = prev.CurrentStreak + 1
		} else {
			next.CurrentStreak = 1
		}
	}

	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}

	achieved := make(map[int]bool, len(prev.Milestones))
	for _, m := range prev.Milestones {
		achieved[m] = true
	}
	next.Milestones = append([]int(nil), prev.Milestones...)
	for _, m := range Milestones {
		if next.CurrentStreak >= m && !achieved[m] {
			next.Milestones = append(next.Milestones, m)
		}
	}

	if !sameDay || countSameDay {
		next.TotalCheckins = prev.TotalCheckins + 1
	}
	next.LastCheckinDate = checkinDate
	return next, nil
}

// Reported returns the streak value to expose on reads: the stored streak
// decays to 0 once the gap since the last check-in exceeds one day. Storage is
// only corrected on the next write.
func Reported(s State, today string) int {
	if s.LastCheckinDate == "" {
		return s.CurrentStreak
	}
	last, err := time.Parse(DateLayout, s.LastCheckinDate)
	if err != nil {
		return s.CurrentStreak
	}
	now, err := time.Parse(DateLayout, today)
	if err != nil {
		return s.CurrentStreak
	}
	if now.Sub(last) > 24*time.Hour {
		return 0
	}
	return s.CurrentStreak
}

// NextMilestone reports the first unachieved milestone past the given streak
// length, with a rolling 100-day target once the fixed list is exhausted.
func NextMilestone(current int) (days, remaining int) {
	for _, m := range Milestones {
		if current < m {
			return m, m - current
		}
	}
	return current + 100, 100
}
