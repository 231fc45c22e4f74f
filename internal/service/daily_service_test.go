package service

import (
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2025, 6, d, 9, 30, 0, 0, time.UTC)
}

func TestStreakFromClaims(t *testing.T) {
	cases := []struct {
		name   string
		claims []time.Time // newest first
		want   int
	}{
		{"no claims", nil, 0},
		{"single claim", []time.Time{day(10)}, 1},
		{"three consecutive days", []time.Time{day(12), day(11), day(10)}, 3},
		{"gap breaks the run", []time.Time{day(12), day(10), day(9)}, 1},
		{"gap after two days", []time.Time{day(12), day(11), day(8)}, 2},
		{"same day counted once", []time.Time{day(12), day(12)}, 1},
	}

	for _, tc := range cases {
		if got := streakFromClaims(tc.claims); got != tc.want {
			t.Fatalf("%s: got %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestCalendarDaysBetween(t *testing.T) {
	// late evening to early morning is still one calendar day apart
	evening := time.Date(2025, 6, 10, 23, 50, 0, 0, time.UTC)
	morning := time.Date(2025, 6, 11, 0, 10, 0, 0, time.UTC)
	if got := calendarDaysBetween(evening, morning); got != 1 {
		t.Fatalf("got %d, want 1", got)
	}

	if got := calendarDaysBetween(day(10), day(10)); got != 0 {
		t.Fatalf("same day: got %d, want 0", got)
	}
	if got := calendarDaysBetween(day(10), day(13)); got != 3 {
		t.Fatalf("got %d, want 3", got)
	}
}

func TestDailyAmount(t *testing.T) {
	cases := []struct {
		streak int
		want   int64
	}{
		{0, 50},
		{1, 55},
		{3, 65},
		{7, 85},
	}

	for _, tc := range cases {
		if got := dailyAmount(50, tc.streak, 10); got != tc.want {
			t.Fatalf("dailyAmount(50, %d, 10) = %d; want %d", tc.streak, got, tc.want)
		}
	}
}
