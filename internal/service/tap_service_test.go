package service

import "testing"

func TestTapReward(t *testing.T) {
	cases := []struct {
		level int
		want  int64
	}{
		{0, 1},
		{1, 2},
		{3, 4},
		{5, 6},
		{10, 6}, // bonus clamps at maxBonus
	}

	for _, tc := range cases {
		if got := tapReward(1, 5, tc.level); got != tc.want {
			t.Fatalf("tapReward(1, 5, %d) = %d; want %d", tc.level, got, tc.want)
		}
	}
}

func TestReferralBonus(t *testing.T) {
	cases := []struct {
		reward  int64
		percent int64
		want    int64
	}{
		{1, 20, 0},  // truncates below one unit
		{4, 20, 0},
		{5, 20, 1},
		{10, 20, 2},
		{13, 20, 2}, // floor, never round up
		{10, 0, 0},
	}

	for _, tc := range cases {
		if got := referralBonus(tc.reward, tc.percent); got != tc.want {
			t.Fatalf("referralBonus(%d, %d) = %d; want %d", tc.reward, tc.percent, got, tc.want)
		}
	}
}
