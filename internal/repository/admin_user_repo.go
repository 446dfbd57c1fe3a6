package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/tirestore_api/internal/models"
)

// AdminUserRepository handles data access for admin_users.
type AdminUserRepository struct {
	db *sqlx.DB
}

func NewAdminUserRepository(db *sqlx.DB) *AdminUserRepository {
	return &AdminUserRepository{db: db}
}

func (r *AdminUserRepository) GetByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var user models.AdminUser
	err := r.db.GetContext(ctx, &user, r.db.Rebind(`
		SELECT id, email, password_hash, name, role, is_active, last_login_at, created_at, updated_at
		FROM admin_users
		WHERE email = ?
	`), email)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *AdminUserRepository) Create(ctx context.Context, user *models.AdminUser) error {
	if user.Role == "" {
		user.Role = models.AdminRoleAdmin
	}
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO admin_users (email, password_hash, name, role, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), user.Email, user.PasswordHash, user.Name, user.Role, user.IsActive, now, now)
	if err != nil {
		return err
	}
	user.CreatedAt, user.UpdatedAt = now, now
	if id, err := res.LastInsertId(); err == nil {
		user.ID = int(id)
		return nil
	}
	return r.db.GetContext(ctx, &user.ID, r.db.Rebind(`SELECT id FROM admin_users WHERE email = ?`), user.Email)
}

// TouchLastLogin records a successful login.
func (r *AdminUserRepository) TouchLastLogin(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE admin_users SET last_login_at = ? WHERE id = ?`), time.Now().UTC(), id)
	return err
}
