package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lmehdi/libraryms-server/internal/models"
)

// User repository methods
func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, first_name, last_name, email, phone_number, address, role, password, registration_date, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	now := time.Now().UTC()
	user.RegistrationDate = now
	user.LastUpdatedAt = now

	if user.Role == "" {
		user.Role = "user"
	}

	_, err := r.db.ExecContext(ctx, query,
		user.Username, user.FirstName, user.LastName, user.Email,
		user.PhoneNumber, user.Address, user.Role, user.Password,
		user.RegistrationDate, user.LastUpdatedAt)

	return err
}

func (r *PostgresRepository) GetUser(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT * FROM users WHERE username = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) GetAllUsers(ctx context.Context) ([]models.User, error) {
	query := `SELECT * FROM users ORDER BY username`

	var users []models.User
	err := r.db.SelectContext(ctx, &users, query)
	if err != nil {
		return nil, err
	}

	return users, nil
}

func (r *PostgresRepository) UpdateUser(ctx context.Context, user *models.User) (bool, error) {
	query := `
		UPDATE users SET first_name = $1, last_name = $2, email = $3, phone_number = $4,
			address = $5, role = $6, last_updated_at = $7
		WHERE username = $8
	`

	user.LastUpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		user.FirstName, user.LastName, user.Email, user.PhoneNumber,
		user.Address, user.Role, user.LastUpdatedAt, user.Username)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	return rows > 0, err
}

func (r *PostgresRepository) DeleteUser(ctx context.Context, username string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	return rows > 0, err
}

func (r *PostgresRepository) CheckUserExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}
