// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/marketdash/internal/model"
	"github.com/mmeshcher/marketdash/internal/reconcile"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	// ErrSessionNotFound возвращается, если сессия не найдена или уже завершена.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExists возвращается при повторном создании сессии с тем же идентификатором.
	ErrSessionExists = errors.New("session already exists")
)

var defaultRetryDelays = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

// PostgresRepository хранит сессии панели и переключатели видимости заказов в PostgreSQL.
type PostgresRepository struct {
	pool        *pgxpool.Pool
	retryDelays []time.Duration
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool, retryDelays: defaultRetryDelays}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for i := 0; i <= len(r.retryDelays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if !isRetryable(err) || i == len(r.retryDelays) {
			break
		}

		timer := time.NewTimer(r.retryDelays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

// isRetryable сообщает, имеет ли смысл повторить запрос: конфликт сериализации, взаимная блокировка или обрыв соединения.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateSession сохраняет новую сессию.
func (r *PostgresRepository) CreateSession(ctx context.Context, s model.Session) error {
	return r.withRetry(ctx, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO sessions (id, user_id, name, token, created_at) VALUES ($1, $2, $3, $4, $5)`,
			s.ID, s.UserID, s.Name, s.Token, s.CreatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				return fmt.Errorf("%w: %s", ErrSessionExists, s.ID)
			}
			return fmt.Errorf("create session: %w", err)
		}
		return nil
	})
}

// GetSession возвращает сессию по идентификатору.
func (r *PostgresRepository) GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, user_id, name, token, created_at FROM sessions WHERE id = $1`,
		id,
	)

	var s model.Session
	if err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.Token, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

// DeleteSession удаляет сессию. Удаление несуществующей сессии не считается ошибкой.
func (r *PostgresRepository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	return r.withRetry(ctx, func() error {
		if _, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
}

// SetCredentialVisibility сохраняет переключатель видимости заказов учётных данных.
func (r *PostgresRepository) SetCredentialVisibility(ctx context.Context, userID, credentialID int64, visible bool) error {
	return r.withRetry(ctx, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO credential_visibility (user_id, credential_id, visible)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (user_id, credential_id) DO UPDATE SET visible = EXCLUDED.visible, updated_at = now()`,
			userID, credentialID, visible,
		)
		if err != nil {
			return fmt.Errorf("set credential visibility: %w", err)
		}
		return nil
	})
}

// SetTrendyolVisibility сохраняет переключатель видимости заказов Trendyol страны country.
func (r *PostgresRepository) SetTrendyolVisibility(ctx context.Context, userID int64, country string, visible bool) error {
	return r.withRetry(ctx, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO trendyol_visibility (user_id, country, visible)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (user_id, country) DO UPDATE SET visible = EXCLUDED.visible, updated_at = now()`,
			userID, country, visible,
		)
		if err != nil {
			return fmt.Errorf("set trendyol visibility: %w", err)
		}
		return nil
	})
}

// GetVisibility возвращает все сохранённые переключатели пользователя.
func (r *PostgresRepository) GetVisibility(ctx context.Context, userID int64) (reconcile.Visibility, error) {
	vis := reconcile.Visibility{
		Credentials:       make(map[int64]bool),
		TrendyolCountries: make(map[string]bool),
	}

	rows, err := r.pool.Query(ctx,
		`SELECT credential_id, visible FROM credential_visibility WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return vis, fmt.Errorf("select credential visibility: %w", err)
	}
	for rows.Next() {
		var (
			id      int64
			visible bool
		)
		if err := rows.Scan(&id, &visible); err != nil {
			rows.Close()
			return vis, fmt.Errorf("scan credential visibility: %w", err)
		}
		vis.Credentials[id] = visible
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return vis, fmt.Errorf("rows error: %w", err)
	}

	rows, err = r.pool.Query(ctx,
		`SELECT country, visible FROM trendyol_visibility WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return vis, fmt.Errorf("select trendyol visibility: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			country string
			visible bool
		)
		if err := rows.Scan(&country, &visible); err != nil {
			return vis, fmt.Errorf("scan trendyol visibility: %w", err)
		}
		vis.TrendyolCountries[country] = visible
	}
	if err := rows.Err(); err != nil {
		return vis, fmt.Errorf("rows error: %w", err)
	}

	return vis, nil
}
