package service

import (
	"context"
	"time"

	"augustus_tap/internal/cache"
	"augustus_tap/internal/config"
	"augustus_tap/internal/domain"
	"augustus_tap/internal/repository"
)

// CurrentEnergy derives present energy from the last known snapshot. Pure and
// idempotent: the same inputs always produce the same answer, so it is safe
// to call on stale snapshots. An absent lastTap means the user never tapped
// and holds full energy.
func CurrentEnergy(lastKnown int, lastTap *time.Time, now time.Time, maxEnergy, regenMinutes int) int {
	if lastTap == nil {
		return maxEnergy
	}
	if regenMinutes <= 0 {
		regenMinutes = 1
	}

	elapsed := now.Sub(*lastTap)
	if elapsed < 0 {
		elapsed = 0
	}
	regen := int(elapsed / (time.Duration(regenMinutes) * time.Minute))

	energy := lastKnown + regen
	if energy > maxEnergy {
		energy = maxEnergy
	}
	if energy < 0 {
		energy = 0
	}
	return energy
}

// EnergyTracker answers "how much energy does this user have right now",
// cache-first with durable-store fallback. When regeneration is owed it
// persists the recomputed value; the regen baseline (last_tap_time) only
// advances at an actual tap.
type EnergyTracker struct {
	users    *repository.UserRepository
	upgrades *repository.UpgradeRepository
	cache    *cache.Cache
	cfg      config.GameConfig
}

func NewEnergyTracker(users *repository.UserRepository, upgrades *repository.UpgradeRepository, c *cache.Cache, cfg config.GameConfig) *EnergyTracker {
	return &EnergyTracker{users: users, upgrades: upgrades, cache: c, cfg: cfg}
}

// MaxEnergy returns the user's energy cap: the configured base plus the
// energy_capacity upgrade effect.
func (t *EnergyTracker) MaxEnergy(ctx context.Context, userID int64) (int, error) {
	level, err := t.upgrades.Level(ctx, userID, domain.UpgradeCapacity)
	if err != nil {
		return 0, classifyStoreError(err)
	}
	return t.maxFor(level), nil
}

func (t *EnergyTracker) maxFor(capacityLevel int) int {
	def := domain.UpgradeCatalog[domain.UpgradeCapacity]
	return t.cfg.MaxEnergy + capacityLevel*def.EffectValue
}

// Snapshot returns current energy, the regen baseline and the user's cap.
// A cold or lost cache recomputes everything from the durable store.
func (t *EnergyTracker) Snapshot(ctx context.Context, userID int64) (int, *time.Time, int, error) {
	maxEnergy, err := t.MaxEnergy(ctx, userID)
	if err != nil {
		return 0, nil, 0, err
	}

	now := time.Now()

	// Serve from cache only while no regen is owed. A snapshot that has gone
	// stale is rebuilt from the durable store below; cached values are never
	// written back into the ledger.
	if cached, ok := t.cache.GetEnergy(ctx, userID); ok {
		if lastTap, ok := t.cache.GetLastTap(ctx, userID); ok {
			if CurrentEnergy(cached, &lastTap, now, maxEnergy, t.cfg.EnergyRegenMinutes) == cached {
				return cached, &lastTap, maxEnergy, nil
			}
		}
	}

	stored, lastTap, err := t.users.EnergyState(ctx, userID)
	if err != nil {
		return 0, nil, 0, classifyStoreError(err)
	}

	energy := CurrentEnergy(stored, lastTap, now, maxEnergy, t.cfg.EnergyRegenMinutes)
	if energy != stored {
		if err := t.users.UpdateEnergy(ctx, userID, energy); err != nil {
			return 0, nil, 0, classifyStoreError(err)
		}
	}

	t.cache.SetEnergy(ctx, userID, energy)
	if lastTap != nil {
		t.cache.SetLastTap(ctx, userID, *lastTap)
	}

	return energy, lastTap, maxEnergy, nil
}
