package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `id, username, password_hash, full_name, role, outlet_id, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Role,
		&u.OutletID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

const createUser = `
INSERT INTO users (username, password_hash, full_name, role, outlet_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + userColumns

// CreateUserParams are the inputs for CreateUser.
type CreateUserParams struct {
	Username     string
	PasswordHash string
	FullName     string
	Role         string
	OutletID     pgtype.UUID
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser, arg.Username, arg.PasswordHash, arg.FullName, arg.Role, arg.OutletID)
	return scanUser(row)
}

const getUser = `
SELECT ` + userColumns + `
FROM users
WHERE id = $1
`

func (q *Queries) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUser, id))
}

const getUserByUsername = `
SELECT ` + userColumns + `
FROM users
WHERE username = $1
`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByUsername, username))
}

const listUsers = `
SELECT ` + userColumns + `
FROM users
WHERE ($1::uuid IS NULL OR outlet_id = $1)
ORDER BY username
`

func (q *Queries) ListUsers(ctx context.Context, outletID pgtype.UUID) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsers, outletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const updateUser = `
UPDATE users
SET full_name = $2, role = $3, outlet_id = $4, is_active = $5, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

// UpdateUserParams are the inputs for UpdateUser.
type UpdateUserParams struct {
	ID       uuid.UUID
	FullName string
	Role     string
	OutletID pgtype.UUID
	IsActive bool
}

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, updateUser, arg.ID, arg.FullName, arg.Role, arg.OutletID, arg.IsActive)
	return scanUser(row)
}

const updateUserPassword = `
UPDATE users
SET password_hash = $2, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

// UpdateUserPasswordParams are the inputs for UpdateUserPassword.
type UpdateUserPasswordParams struct {
	ID           uuid.UUID
	PasswordHash string
}

func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, updateUserPassword, arg.ID, arg.PasswordHash))
}
