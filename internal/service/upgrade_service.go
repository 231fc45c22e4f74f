package service

import (
	"context"
	"math"

	"augustus_tap/internal/cache"
	"augustus_tap/internal/config"
	"augustus_tap/internal/domain"
	"augustus_tap/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UpgradeService sells catalog upgrades. Affordability and max-level are
// re-checked inside the purchase transaction, so two in-flight purchases
// cannot double-spend the same balance.
type UpgradeService struct {
	db       *pgxpool.Pool
	cache    *cache.Cache
	cfg      config.GameConfig
	users    *repository.UserRepository
	upgrades *repository.UpgradeRepository
	notifier Notifier
}

func NewUpgradeService(db *pgxpool.Pool, c *cache.Cache, cfg config.GameConfig) *UpgradeService {
	return &UpgradeService{
		db:       db,
		cache:    c,
		cfg:      cfg,
		users:    repository.NewUserRepository(db),
		upgrades: repository.NewUpgradeRepository(db),
	}
}

func (s *UpgradeService) SetNotifier(n Notifier) { s.notifier = n }

// UpgradeCost is the price of moving from currentLevel to the next one,
// growing geometrically with the owned level.
func UpgradeCost(def domain.UpgradeDef, currentLevel int) int64 {
	return int64(math.Floor(float64(def.BaseCost) * math.Pow(def.CostMultiplier, float64(currentLevel))))
}

// purchaseTax is the flat percentage added on top of the cost, truncated.
func purchaseTax(cost, taxPercent int64) int64 {
	return cost * taxPercent / 100
}

// UpgradeOffer is one catalog entry annotated with the user's state.
type UpgradeOffer struct {
	Def          domain.UpgradeDef `json:"def"`
	CurrentLevel int               `json:"current_level"`
	NextCost     int64             `json:"next_cost"`
	Tax          int64             `json:"tax"`
	CanUpgrade   bool              `json:"can_upgrade"`
}

// Offers lists every catalog upgrade with the user's level and next price.
func (s *UpgradeService) Offers(ctx context.Context, userID int64) ([]UpgradeOffer, error) {
	levels, err := s.upgrades.Levels(ctx, userID)
	if err != nil {
		return nil, classifyStoreError(err)
	}

	offers := make([]UpgradeOffer, 0, len(domain.UpgradeCatalog))
	for _, def := range domain.UpgradeCatalog {
		level := levels[def.Type]
		cost := UpgradeCost(def, level)
		offers = append(offers, UpgradeOffer{
			Def:          def,
			CurrentLevel: level,
			NextCost:     cost,
			Tax:          purchaseTax(cost, s.cfg.TaxPercent),
			CanUpgrade:   level < def.MaxLevel,
		})
	}
	return offers, nil
}

// PurchaseResult is the successful outcome of an upgrade purchase.
type PurchaseResult struct {
	Type     string `json:"type"`
	NewLevel int    `json:"new_level"`
	Paid     int64  `json:"paid"`
	Balance  int64  `json:"balance"`
}

// Purchase buys one level of the given upgrade type. Rejected with no
// mutation when the type is unknown, the level is maxed, or the taxed total
// exceeds the balance.
func (s *UpgradeService) Purchase(ctx context.Context, userID int64, upgradeType string) (*PurchaseResult, error) {
	def, ok := domain.UpgradeCatalog[upgradeType]
	if !ok {
		return nil, ErrUnknownUpgrade
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, classifyStoreError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the user row, then re-validate level and affordability under the
	// lock.
	var balance int64
	if err := tx.QueryRow(ctx,
		`SELECT balance FROM users WHERE user_id = $1 FOR UPDATE`, userID,
	).Scan(&balance); err != nil {
		return nil, classifyStoreError(err)
	}

	level, err := s.upgrades.LevelTx(ctx, tx, userID, upgradeType)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	if level >= def.MaxLevel {
		return nil, ErrMaxLevelReached
	}

	cost := UpgradeCost(def, level)
	total := cost + purchaseTax(cost, s.cfg.TaxPercent)
	if balance < total {
		return nil, ErrInsufficientBalance
	}

	var newBalance int64
	if err := tx.QueryRow(ctx,
		`UPDATE users SET balance = balance - $1 WHERE user_id = $2 RETURNING balance`,
		total, userID,
	).Scan(&newBalance); err != nil {
		return nil, classifyStoreError(err)
	}

	newLevel, err := s.upgrades.IncrementLevelTx(ctx, tx, userID, upgradeType)
	if err != nil {
		return nil, classifyStoreError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, classifyStoreError(err)
	}

	s.cache.UpdateScore(ctx, userID, newBalance)
	if upgradeType == domain.UpgradeCapacity {
		// cap changed; force an energy recompute on next read
		s.cache.InvalidateUser(ctx, userID)
	}

	if s.notifier != nil {
		s.notifier.Publish(userID, StateEvent{Type: "purchase", Balance: newBalance})
	}

	return &PurchaseResult{
		Type:     upgradeType,
		NewLevel: newLevel,
		Paid:     total,
		Balance:  newBalance,
	}, nil
}
