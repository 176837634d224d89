package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/cloudlab/internal/database"
	"github.com/iliyamo/cloudlab/internal/model"
	"github.com/iliyamo/cloudlab/internal/utils"
)

const userColumns = "id, name, email, password_hash, role, organization, organization_type, last_active, created_at"

// NewUser carries signup input.
type NewUser struct {
	Name             string
	Email            string
	Password         string
	Role             string
	Organization     *string
	OrganizationType *string
}

// UserRepo reads and writes the users table.
type UserRepo struct{ DB *sql.DB }

// NewUserRepo returns a UserRepo backed by db.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

func scanUser(s rowScanner) (model.User, error) {
	var u model.User
	err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.Organization, &u.OrganizationType, &u.LastActive, &u.CreatedAt)
	return u, err
}

// Create hashes the password and inserts the user.
func (r *UserRepo) Create(ctx context.Context, in NewUser, cost int) (model.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	hash, err := utils.HashPassword(in.Password, cost)
	if err != nil {
		return model.User{}, err
	}
	role := in.Role
	if role == "" {
		role = model.RoleUser
	}
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`INSERT INTO users (name, email, password_hash, role, organization, organization_type)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+userColumns,
		strings.TrimSpace(in.Name), email, hash, role, in.Organization, in.OrganizationType))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	return u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1 LIMIT 1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1 LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) || database.IsRejectedInput(err) {
		return u, ErrNotFound
	}
	return u, err
}

// TouchLastActive records a successful login.
func (r *UserRepo) TouchLastActive(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET last_active = now() WHERE id = $1", id)
	return err
}

// List returns every user, newest first.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateRole changes a user's role and returns the updated row.
func (r *UserRepo) UpdateRole(ctx context.Context, id, role string) (model.User, error) {
	return r.updateOne(ctx, "UPDATE users SET role = $2 WHERE id = $1 RETURNING "+userColumns, id, role)
}

// UpdateOrganization sets the organization fields of a user.
func (r *UserRepo) UpdateOrganization(ctx context.Context, id string, org, orgType *string) (model.User, error) {
	return r.updateOne(ctx,
		"UPDATE users SET organization = $2, organization_type = $3 WHERE id = $1 RETURNING "+userColumns,
		id, org, orgType)
}

func (r *UserRepo) updateOne(ctx context.Context, query string, args ...any) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, args...))
	switch {
	case errors.Is(err, sql.ErrNoRows), database.PgCode(err) == database.CodeInvalidTextRepr:
		return model.User{}, ErrNotFound
	case err != nil:
		return model.User{}, writeErr(err)
	}
	return u, nil
}
