package service

import (
	"testing"
	"time"
)

func TestCurrentEnergy_NeverTapped(t *testing.T) {
	got := CurrentEnergy(0, nil, time.Now(), 100, 5)
	if got != 100 {
		t.Fatalf("expected full energy for fresh user, got %d", got)
	}
}

func TestCurrentEnergy_Regen(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		lastKnown int
		elapsed   time.Duration
		want      int
	}{
		{"no time passed", 50, 0, 50},
		{"under one interval", 50, 4 * time.Minute, 50},
		{"one interval", 50, 5 * time.Minute, 51},
		{"two intervals", 50, 10 * time.Minute, 52},
		{"partial does not round up", 50, 14 * time.Minute, 52},
		{"caps at max", 50, 10 * time.Hour, 100},
		{"zero stays zero without elapsed", 0, 0, 0},
		{"clock skew treated as zero", 50, -3 * time.Minute, 50},
	}

	for _, tc := range cases {
		lastTap := now.Add(-tc.elapsed)
		got := CurrentEnergy(tc.lastKnown, &lastTap, now, 100, 5)
		if got != tc.want {
			t.Fatalf("%s: got %d, want %d", tc.name, got, tc.want)
		}
	}
}

// Same inputs must always give the same answer, and more elapsed time never
// gives less energy.
func TestCurrentEnergy_Monotonic(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	lastTap := now.Add(-time.Minute)

	prev := -1
	for m := 0; m <= 600; m += 7 {
		at := now.Add(time.Duration(m) * time.Minute)
		got := CurrentEnergy(3, &lastTap, at, 100, 5)
		if got < prev {
			t.Fatalf("energy decreased from %d to %d at +%dm", prev, got, m)
		}
		if got > 100 {
			t.Fatalf("energy exceeded max: %d", got)
		}
		prev = got
	}
}

func TestCurrentEnergy_InvalidRegenMinutes(t *testing.T) {
	now := time.Now()
	lastTap := now.Add(-2 * time.Minute)
	// zero regen interval falls back to one minute
	if got := CurrentEnergy(10, &lastTap, now, 100, 0); got != 12 {
		t.Fatalf("got %d, want 12", got)
	}
}
