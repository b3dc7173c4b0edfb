package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/testopsbot/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Allow-list ---

func (s *PostgresStore) IsUserAllowed(ctx context.Context, username string) (bool, error) {
	var allowed bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM allowed_users WHERE username = $1)`, username,
	).Scan(&allowed)
	if err != nil {
		return false, fmt.Errorf("check allowed user: %w", err)
	}
	return allowed, nil
}

func (s *PostgresStore) AddAllowedUser(ctx context.Context, username string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO allowed_users (username) VALUES ($1) ON CONFLICT (username) DO NOTHING`, username)
	if err != nil {
		return fmt.Errorf("add allowed user: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveAllowedUser(ctx context.Context, username string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM allowed_users WHERE username = $1`, username)
	if err != nil {
		return false, fmt.Errorf("remove allowed user: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ListAllowedUsers(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT username FROM allowed_users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list allowed users: %w", err)
	}
	defer rows.Close()

	users := []string{}
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan allowed user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// --- Projects ---

func (s *PostgresStore) GetUserProjects(ctx context.Context, userID int64) ([]*models.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, project_id, project_name, created_at
		 FROM projects WHERE user_id = $1 ORDER BY created_at, project_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("get user projects: %w", err)
	}
	defer rows.Close()

	projects := []*models.Project{}
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.UserID, &p.ProjectID, &p.ProjectName, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

func (s *PostgresStore) FindProject(ctx context.Context, userID, projectID int64) (*models.Project, error) {
	var p models.Project
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, project_id, project_name, created_at
		 FROM projects WHERE user_id = $1 AND project_id = $2`, userID, projectID,
	).Scan(&p.UserID, &p.ProjectID, &p.ProjectName, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find project: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) AddProject(ctx context.Context, userID, projectID int64, projectName string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO projects (user_id, project_id, project_name) VALUES ($1, $2, $3)`,
		userID, projectID, projectName)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateProject
		}
		return fmt.Errorf("add project: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteProject(ctx context.Context, userID, projectID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM projects WHERE user_id = $1 AND project_id = $2`, userID, projectID)
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)
