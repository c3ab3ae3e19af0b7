package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/kmorales/expenseflow/internal/domain/entity"
	"github.com/kmorales/expenseflow/pkg/database"
)

// UserRepo implements port.UserRepository backed by SQLite.
type UserRepo struct {
	db *database.DB
}

// NewUserRepo creates a user repository.
func NewUserRepo(db *database.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, name, email, password_hash, role, manager_id, approval_flow_id, created_at, updated_at`

// Create inserts a new user.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, string(user.Role),
		nullable(user.ManagerID), nullable(user.ApprovalFlowID),
		user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetByID fetches a user by ID. Returns (nil, nil) when not found.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanOne(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
}

// GetByEmail fetches a user by email. Returns (nil, nil) when not found.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.scanOne(r.db.Executor(ctx).QueryRowContext(ctx, query, email))
}

// Update rewrites a user's mutable fields.
func (r *UserRepo) Update(ctx context.Context, user *entity.User) error {
	query := `UPDATE users
		SET name = ?, email = ?, password_hash = ?, role = ?, manager_id = ?, approval_flow_id = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.Executor(ctx).ExecContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, string(user.Role),
		nullable(user.ManagerID), nullable(user.ApprovalFlowID),
		user.UpdatedAt, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user %s not found", user.ID)
	}
	return nil
}

// List returns a page of users ordered by creation time plus the total count.
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]*entity.User, int, error) {
	exec := r.db.Executor(ctx)

	var total int
	if err := exec.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC, id ASC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	return users, total, rows.Err()
}

// CountByRole counts users having the given role.
func (r *UserRepo) CountByRole(ctx context.Context, role entity.Role) (int, error) {
	var count int
	err := r.db.Executor(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = ?`, string(role)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users by role: %w", err)
	}
	return count, nil
}

// MissingIDs returns the subset of ids with no matching user row, preserving
// input order.
func (r *UserRepo) MissingIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := `SELECT id FROM users WHERE id IN (` + placeholders + `)`
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user IDs: %w", err)
	}
	defer rows.Close()

	found := make(map[string]bool, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []string
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *UserRepo) scanOne(row *sql.Row) (*entity.User, error) {
	user, err := r.scanRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}

func (r *UserRepo) scanRow(row rowScanner) (*entity.User, error) {
	var user entity.User
	var role string
	var managerID, flowID sql.NullString
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &role,
		&managerID, &flowID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	user.Role = entity.Role(role)
	if managerID.Valid {
		user.ManagerID = &managerID.String
	}
	if flowID.Valid {
		user.ApprovalFlowID = &flowID.String
	}
	return &user, nil
}

func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
