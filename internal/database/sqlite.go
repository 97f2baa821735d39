package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/ViniDeiro/newalavancagem/internal/leverage"
)

// SQLiteStore implements Store on a single-file SQLite database. It is
// the default backend: no external server, good enough for a
// single-process deployment.
type SQLiteStore struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

// NewSQLiteStore opens or creates the database file and runs migrations.
func NewSQLiteStore(ctx context.Context, path string, logger zerolog.Logger) (*SQLiteStore, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %w", err)
	}

	// The driver is not safe for concurrent writes over multiple
	// connections; funnel everything through one.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{
		db:     db,
		logger: logger.With().Str("component", "sqlite").Logger(),
	}

	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info().Str("path", path).Msg("opened SQLite database")
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	migrations := []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA journal_mode = WAL`,

		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			age INTEGER NOT NULL,
			initial_bankroll REAL NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS leverages (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			initial_value REAL NOT NULL,
			odd REAL NOT NULL,
			max_bets INTEGER NOT NULL,
			current_day INTEGER NOT NULL DEFAULT 1,
			status TEXT NOT NULL DEFAULT 'active',
			created_at DATETIME NOT NULL,
			completed_at DATETIME,
			final_value REAL,
			profit REAL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_leverages_user_status ON leverages(user_id, status)`,
	}

	for i, migration := range migrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, name, password_hash, age, initial_bankroll, created_at)
		VALUES (:id, :name, :password_hash, :age, :initial_bankroll, :created_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	user := &User{}
	err := s.db.GetContext(ctx, user,
		`SELECT id, name, password_hash, age, initial_bankroll, created_at FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *SQLiteStore) GetUserByName(ctx context.Context, name string) (*User, error) {
	user := &User{}
	err := s.db.GetContext(ctx, user,
		`SELECT id, name, password_hash, age, initial_bankroll, created_at FROM users WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by name: %w", err)
	}
	return user, nil
}

func (s *SQLiteStore) CreateLeverage(ctx context.Context, lev *leverage.Leverage) error {
	query := `
		INSERT INTO leverages (id, user_id, name, initial_value, odd, max_bets, current_day, status, created_at)
		VALUES (:id, :user_id, :name, :initial_value, :odd, :max_bets, :current_day, :status, :created_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, lev); err != nil {
		return fmt.Errorf("failed to create leverage: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListLeverages(ctx context.Context, userID string, status leverage.Status) ([]*leverage.Leverage, error) {
	query := `
		SELECT id, user_id, name, initial_value, odd, max_bets, current_day,
			status, created_at, completed_at, final_value, profit
		FROM leverages
		WHERE user_id = ? AND status = ?
		ORDER BY created_at DESC
	`
	out := make([]*leverage.Leverage, 0)
	if err := s.db.SelectContext(ctx, &out, query, userID, status); err != nil {
		return nil, fmt.Errorf("failed to list leverages: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) GetLeverage(ctx context.Context, userID, id string) (*leverage.Leverage, error) {
	query := `
		SELECT id, user_id, name, initial_value, odd, max_bets, current_day,
			status, created_at, completed_at, final_value, profit
		FROM leverages
		WHERE id = ? AND user_id = ?
	`
	lev := &leverage.Leverage{}
	err := s.db.GetContext(ctx, lev, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, leverage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get leverage: %w", err)
	}
	return lev, nil
}

func (s *SQLiteStore) UpdateLeverageDay(ctx context.Context, userID, id string, day int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leverages SET current_day = ? WHERE id = ? AND user_id = ? AND status = 'active'`,
		day, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update leverage day: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return leverage.ErrNotFound
	}
	return nil
}

// CompleteLeverage reads and closes the row in one transaction. The
// update keeps the status filter, so if another transaction slipped in
// between read and write the loser still affects zero rows.
func (s *SQLiteStore) CompleteLeverage(ctx context.Context, userID, id string) (*leverage.Leverage, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT id, user_id, name, initial_value, odd, max_bets, current_day, status, created_at
		FROM leverages
		WHERE id = ? AND user_id = ? AND status = 'active'
	`
	lev := &leverage.Leverage{}
	err = tx.GetContext(ctx, lev, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, leverage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get leverage: %w", err)
	}

	finalValue, profit := lev.CloseSnapshot()
	now := time.Now().UTC()

	res, err := tx.ExecContext(ctx,
		`UPDATE leverages SET status = 'completed', completed_at = ?, final_value = ?, profit = ?
		WHERE id = ? AND status = 'active'`,
		now, finalValue, profit, id)
	if err != nil {
		return nil, fmt.Errorf("failed to complete leverage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return nil, leverage.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	lev.Status = leverage.StatusCompleted
	lev.CompletedAt = &now
	lev.FinalValue = &finalValue
	lev.Profit = &profit
	return lev, nil
}

func (s *SQLiteStore) DeleteLeverage(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM leverages WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete leverage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return leverage.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) BankrollFacts(ctx context.Context, userID string) (leverage.BankrollFacts, error) {
	query := `
		SELECT
			u.initial_bankroll AS initial_bankroll,
			COALESCE(SUM(CASE WHEN l.status = 'active' THEN l.initial_value END), 0) AS active_stake,
			COALESCE(SUM(CASE WHEN l.status = 'completed' THEN l.profit END), 0) AS realized_profit
		FROM users u
		LEFT JOIN leverages l ON l.user_id = u.id
		WHERE u.id = ?
		GROUP BY u.initial_bankroll
	`
	var facts leverage.BankrollFacts
	err := s.db.QueryRowxContext(ctx, query, userID).Scan(
		&facts.InitialBankroll, &facts.ActiveStake, &facts.RealizedProfit,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return leverage.BankrollFacts{}, nil
	}
	if err != nil {
		return leverage.BankrollFacts{}, fmt.Errorf("failed to get bankroll facts: %w", err)
	}
	return facts, nil
}

func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	s.logger.Info().Msg("database connection closed")
	return s.db.Close()
}
