package domain

// Upgrade effect kinds.
const (
	EffectTapBonus  = "tap_bonus" // additive per-tap reward bonus
	EffectCapacity  = "capacity"  // raises max energy
	UpgradeTapPower = "tap_power"
	UpgradeCapacity = "energy_capacity"
)

// UpgradeDef is a static catalog entry. Immutable at runtime.
type UpgradeDef struct {
	Type           string  `json:"type"`
	Name           string  `json:"name"`
	BaseCost       int64   `json:"base_cost"`
	CostMultiplier float64 `json:"cost_multiplier"`
	MaxLevel       int     `json:"max_level"`
	EffectType     string  `json:"effect_type"`
	EffectValue    int     `json:"effect_value"`
}

// UpgradeCatalog is the seeded set of purchasable upgrades.
var UpgradeCatalog = map[string]UpgradeDef{
	UpgradeTapPower: {
		Type:           UpgradeTapPower,
		Name:           "Tap Power",
		BaseCost:       100,
		CostMultiplier: 1.5,
		MaxLevel:       10,
		EffectType:     EffectTapBonus,
		EffectValue:    1,
	},
	UpgradeCapacity: {
		Type:           UpgradeCapacity,
		Name:           "Energy Capacity",
		BaseCost:       200,
		CostMultiplier: 2.0,
		MaxLevel:       5,
		EffectType:     EffectCapacity,
		EffectValue:    10,
	},
}

// UserUpgrade is the owned level of one upgrade type. Levels only grow.
type UserUpgrade struct {
	UserID int64  `db:"user_id" json:"user_id"`
	Type   string `db:"upgrade_type" json:"upgrade_type"`
	Level  int    `db:"level" json:"level"`
}
