package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createUser = `
INSERT INTO users (email, hashed_password, name, phone, address, role)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, email, hashed_password, name, phone, address, role, created_at, updated_at
`

type CreateUserParams struct {
	Email          string
	HashedPassword string
	Name           string
	Phone          pgtype.Text
	Address        pgtype.Text
	Role           string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser,
		arg.Email,
		arg.HashedPassword,
		arg.Name,
		arg.Phone,
		arg.Address,
		arg.Role,
	)
	var u User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.HashedPassword,
		&u.Name,
		&u.Phone,
		&u.Address,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

const getUserByEmail = `
SELECT id, email, hashed_password, name, phone, address, role, created_at, updated_at
FROM users
WHERE email = $1
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByEmail, email)
	var u User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.HashedPassword,
		&u.Name,
		&u.Phone,
		&u.Address,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

const getUserByID = `
SELECT id, email, hashed_password, name, phone, address, role, created_at, updated_at
FROM users
WHERE id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRow(ctx, getUserByID, id)
	var u User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.HashedPassword,
		&u.Name,
		&u.Phone,
		&u.Address,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

const updateUserProfile = `
UPDATE users
SET name = $2, phone = $3, address = $4, updated_at = now()
WHERE id = $1
RETURNING id, email, hashed_password, name, phone, address, role, created_at, updated_at
`

type UpdateUserProfileParams struct {
	ID      uuid.UUID
	Name    string
	Phone   pgtype.Text
	Address pgtype.Text
}

func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (User, error) {
	row := q.db.QueryRow(ctx, updateUserProfile, arg.ID, arg.Name, arg.Phone, arg.Address)
	var u User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.HashedPassword,
		&u.Name,
		&u.Phone,
		&u.Address,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

const listStaffUserIDs = `
SELECT id
FROM users
WHERE role = 'STAFF'
`

// ListStaffUserIDs feeds the staff notification fan-out.
func (q *Queries) ListStaffUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx, listStaffUserIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
