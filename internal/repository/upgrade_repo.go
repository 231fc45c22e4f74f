package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UpgradeRepository struct {
	db *pgxpool.Pool
}

func NewUpgradeRepository(db *pgxpool.Pool) *UpgradeRepository {
	return &UpgradeRepository{db: db}
}

// Levels returns all owned upgrade levels for a user. Unpurchased types are
// simply absent (level 0 implied).
func (r *UpgradeRepository) Levels(ctx context.Context, userID int64) (map[string]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT upgrade_type, level FROM user_upgrades WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	levels := make(map[string]int)
	for rows.Next() {
		var typ string
		var level int
		if err := rows.Scan(&typ, &level); err != nil {
			return nil, err
		}
		levels[typ] = level
	}
	return levels, rows.Err()
}

// Level returns the owned level of one upgrade type, 0 if never purchased.
func (r *UpgradeRepository) Level(ctx context.Context, userID int64, upgradeType string) (int, error) {
	var level int
	err := r.db.QueryRow(ctx,
		`SELECT level FROM user_upgrades WHERE user_id = $1 AND upgrade_type = $2`,
		userID, upgradeType,
	).Scan(&level)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	return level, err
}

// LevelTx reads the owned level inside an existing transaction.
func (r *UpgradeRepository) LevelTx(ctx context.Context, tx pgx.Tx, userID int64, upgradeType string) (int, error) {
	var level int
	err := tx.QueryRow(ctx,
		`SELECT level FROM user_upgrades WHERE user_id = $1 AND upgrade_type = $2`,
		userID, upgradeType,
	).Scan(&level)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	return level, err
}

// IncrementLevelTx creates the upgrade at level 1 on first purchase or bumps
// the level by one, returning the new level.
func (r *UpgradeRepository) IncrementLevelTx(ctx context.Context, tx pgx.Tx, userID int64, upgradeType string) (int, error) {
	var newLevel int
	err := tx.QueryRow(ctx,
		`INSERT INTO user_upgrades (user_id, upgrade_type, level)
		 VALUES ($1, $2, 1)
		 ON CONFLICT (user_id, upgrade_type)
		 DO UPDATE SET level = user_upgrades.level + 1
		 RETURNING level`,
		userID, upgradeType,
	).Scan(&newLevel)
	return newLevel, err
}
