package service

import (
	"testing"

	"augustus_tap/internal/domain"
)

func TestUpgradeCost(t *testing.T) {
	tapPower := domain.UpgradeCatalog[domain.UpgradeTapPower]

	cases := []struct {
		level int
		want  int64
	}{
		{0, 100},
		{1, 150},
		{2, 225},
		{3, 337}, // floor(337.5)
	}
	for _, tc := range cases {
		if got := UpgradeCost(tapPower, tc.level); got != tc.want {
			t.Fatalf("UpgradeCost(tap_power, %d) = %d; want %d", tc.level, got, tc.want)
		}
	}

	capacity := domain.UpgradeCatalog[domain.UpgradeCapacity]
	if got := UpgradeCost(capacity, 4); got != 3200 {
		t.Fatalf("UpgradeCost(energy_capacity, 4) = %d; want 3200", got)
	}
}

func TestUpgradeCost_StrictlyIncreasing(t *testing.T) {
	for name, def := range domain.UpgradeCatalog {
		prev := int64(0)
		for lvl := 0; lvl < def.MaxLevel; lvl++ {
			cost := UpgradeCost(def, lvl)
			if cost <= prev {
				t.Fatalf("%s: cost at level %d (%d) not above previous (%d)", name, lvl, cost, prev)
			}
			prev = cost
		}
	}
}

func TestPurchaseTax(t *testing.T) {
	cases := []struct {
		cost int64
		want int64
	}{
		{100, 10},
		{150, 15},
		{9, 0},   // truncates
		{225, 22}, // floor of 22.5
	}
	for _, tc := range cases {
		if got := purchaseTax(tc.cost, 10); got != tc.want {
			t.Fatalf("purchaseTax(%d, 10) = %d; want %d", tc.cost, got, tc.want)
		}
	}
}
