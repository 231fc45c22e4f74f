package service

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Terminal rejections. Each is surfaced to the presentation layer with its
// specific reason, never collapsed into a generic failure.
var (
	ErrInsufficientEnergy  = errors.New("insufficient energy")
	ErrTapCooldown         = errors.New("tap cooldown active")
	ErrRateLimited         = errors.New("tap rate limit exceeded")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrMaxLevelReached     = errors.New("upgrade already at max level")
	ErrUnknownUpgrade      = errors.New("unknown upgrade type")
	ErrAlreadyClaimed      = errors.New("daily bonus already claimed today")
	ErrSelfReferral        = errors.New("self-referral rejected")
	ErrDuplicateReferral   = errors.New("user already referred")
	ErrUserNotFound        = errors.New("user not found")
)

// Retryable failures. Callers may retry with bounded backoff.
var (
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrTransactionConflict = errors.New("transaction conflict")
)

// classifyStoreError maps low-level pgx failures onto the retryable kinds and
// translates missing rows into ErrUserNotFound. Terminal service errors pass
// through unchanged.
func classifyStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrUserNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization failure, deadlock
			return ErrTransactionConflict
		}
		return err
	}

	if pgconn.Timeout(err) {
		return ErrStoreUnavailable
	}
	return err
}

// IsRetryable reports whether the caller may retry the operation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrTransactionConflict)
}
