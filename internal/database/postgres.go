package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ViniDeiro/newalavancagem/internal/leverage"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore connects the pool, verifies the connection and runs
// migrations.
func NewPostgresStore(ctx context.Context, databaseURL string, logger zerolog.Logger) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	s := &PostgresStore{
		pool:   pool,
		logger: logger.With().Str("component", "postgres").Logger(),
	}

	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	s.logger.Info().Msg("connected to PostgreSQL")
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			age INTEGER NOT NULL,
			initial_bankroll DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS leverages (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			initial_value DOUBLE PRECISION NOT NULL,
			odd DOUBLE PRECISION NOT NULL,
			max_bets INTEGER NOT NULL,
			current_day INTEGER NOT NULL DEFAULT 1,
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			completed_at TIMESTAMPTZ,
			final_value DOUBLE PRECISION,
			profit DOUBLE PRECISION
		)`,

		`CREATE INDEX IF NOT EXISTS idx_leverages_user_status ON leverages(user_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_leverages_created_at ON leverages(created_at DESC)`,
	}

	for i, migration := range migrations {
		if _, err := s.pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, name, password_hash, age, initial_bankroll, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.pool.Exec(ctx, query,
		user.ID, user.Name, user.PasswordHash, user.Age, user.InitialBankroll, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, name, password_hash, age, initial_bankroll, created_at
		FROM users WHERE id = $1
	`
	user := &User{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.PasswordHash, &user.Age, &user.InitialBankroll, &user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByName(ctx context.Context, name string) (*User, error) {
	query := `
		SELECT id, name, password_hash, age, initial_bankroll, created_at
		FROM users WHERE name = $1
	`
	user := &User{}
	err := s.pool.QueryRow(ctx, query, name).Scan(
		&user.ID, &user.Name, &user.PasswordHash, &user.Age, &user.InitialBankroll, &user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by name: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) CreateLeverage(ctx context.Context, lev *leverage.Leverage) error {
	query := `
		INSERT INTO leverages (id, user_id, name, initial_value, odd, max_bets, current_day, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.pool.Exec(ctx, query,
		lev.ID, lev.UserID, lev.Name, lev.InitialValue, lev.Odd,
		lev.MaxBets, lev.CurrentDay, lev.Status, lev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create leverage: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListLeverages(ctx context.Context, userID string, status leverage.Status) ([]*leverage.Leverage, error) {
	query := `
		SELECT id, user_id, name, initial_value, odd, max_bets, current_day,
			status, created_at, completed_at, final_value, profit
		FROM leverages
		WHERE user_id = $1 AND status = $2
		ORDER BY created_at DESC
	`
	rows, err := s.pool.Query(ctx, query, userID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list leverages: %w", err)
	}
	defer rows.Close()

	out := make([]*leverage.Leverage, 0)
	for rows.Next() {
		lev := &leverage.Leverage{}
		if err := rows.Scan(
			&lev.ID, &lev.UserID, &lev.Name, &lev.InitialValue, &lev.Odd,
			&lev.MaxBets, &lev.CurrentDay, &lev.Status, &lev.CreatedAt,
			&lev.CompletedAt, &lev.FinalValue, &lev.Profit,
		); err != nil {
			return nil, fmt.Errorf("failed to scan leverage: %w", err)
		}
		out = append(out, lev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leverages: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetLeverage(ctx context.Context, userID, id string) (*leverage.Leverage, error) {
	query := `
		SELECT id, user_id, name, initial_value, odd, max_bets, current_day,
			status, created_at, completed_at, final_value, profit
		FROM leverages
		WHERE id = $1 AND user_id = $2
	`
	lev := &leverage.Leverage{}
	err := s.pool.QueryRow(ctx, query, id, userID).Scan(
		&lev.ID, &lev.UserID, &lev.Name, &lev.InitialValue, &lev.Odd,
		&lev.MaxBets, &lev.CurrentDay, &lev.Status, &lev.CreatedAt,
		&lev.CompletedAt, &lev.FinalValue, &lev.Profit,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, leverage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get leverage: %w", err)
	}
	return lev, nil
}

func (s *PostgresStore) UpdateLeverageDay(ctx context.Context, userID, id string, day int) error {
	query := `
		UPDATE leverages SET current_day = $1
		WHERE id = $2 AND user_id = $3 AND status = 'active'
	`
	tag, err := s.pool.Exec(ctx, query, day, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update leverage day: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leverage.ErrNotFound
	}
	return nil
}

// CompleteLeverage locks the active row, snapshots its close values and
// flips the status, all in one transaction. Of two concurrent closes,
// the loser sees no active row once the lock is released and gets
// ErrNotFound.
func (s *PostgresStore) CompleteLeverage(ctx context.Context, userID, id string) (*leverage.Leverage, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		SELECT id, user_id, name, initial_value, odd, max_bets, current_day, status, created_at
		FROM leverages
		WHERE id = $1 AND user_id = $2 AND status = 'active'
		FOR UPDATE
	`
	lev := &leverage.Leverage{}
	err = tx.QueryRow(ctx, query, id, userID).Scan(
		&lev.ID, &lev.UserID, &lev.Name, &lev.InitialValue, &lev.Odd,
		&lev.MaxBets, &lev.CurrentDay, &lev.Status, &lev.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, leverage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock leverage: %w", err)
	}

	finalValue, profit := lev.CloseSnapshot()
	now := time.Now().UTC()

	update := `
		UPDATE leverages
		SET status = 'completed', completed_at = $1, final_value = $2, profit = $3
		WHERE id = $4
	`
	if _, err := tx.Exec(ctx, update, now, finalValue, profit, id); err != nil {
		return nil, fmt.Errorf("failed to complete leverage: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	lev.Status = leverage.StatusCompleted
	lev.CompletedAt = &now
	lev.FinalValue = &finalValue
	lev.Profit = &profit
	return lev, nil
}

func (s *PostgresStore) DeleteLeverage(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM leverages WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete leverage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leverage.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) BankrollFacts(ctx context.Context, userID string) (leverage.BankrollFacts, error) {
	query := `
		SELECT
			u.initial_bankroll,
			COALESCE(SUM(CASE WHEN l.status = 'active' THEN l.initial_value END), 0),
			COALESCE(SUM(CASE WHEN l.status = 'completed' THEN l.profit END), 0)
		FROM users u
		LEFT JOIN leverages l ON l.user_id = u.id
		WHERE u.id = $1
		GROUP BY u.initial_bankroll
	`
	var facts leverage.BankrollFacts
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&facts.InitialBankroll, &facts.ActiveStake, &facts.RealizedProfit,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return leverage.BankrollFacts{}, nil
	}
	if err != nil {
		return leverage.BankrollFacts{}, fmt.Errorf("failed to get bankroll facts: %w", err)
	}
	return facts, nil
}

func (s *PostgresStore) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	s.logger.Info().Msg("database connection closed")
	return nil
}
