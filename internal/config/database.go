package config

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// SetupDatabase initializes the database connection
func SetupDatabase(cfg *Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// createTables creates the necessary tables in the database
func createTables(db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS author (
			author_id SERIAL PRIMARY KEY,
			first_name VARCHAR(255) NOT NULL,
			last_name VARCHAR(255) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS genre (
			genre_id SERIAL PRIMARY KEY,
			type VARCHAR(100) UNIQUE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			username VARCHAR(100) PRIMARY KEY,
			first_name VARCHAR(255) NOT NULL,
			last_name VARCHAR(255) NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			phone_number VARCHAR(30) NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			role VARCHAR(20) NOT NULL DEFAULT 'user',
			password VARCHAR(255) NOT NULL,
			registration_date TIMESTAMP NOT NULL,
			last_updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS images (
			image_id SERIAL PRIMARY KEY,
			image_data BYTEA NOT NULL,
			image_type VARCHAR(50) NOT NULL,
			thumbnail_data BYTEA
		)`,
		`CREATE TABLE IF NOT EXISTS book (
			book_id SERIAL PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			isbn VARCHAR(20) UNIQUE NOT NULL,
			publisher VARCHAR(255) NOT NULL DEFAULT '',
			published_year INT NOT NULL DEFAULT 0,
			status VARCHAR(20) NOT NULL DEFAULT 'available',
			quantity INT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
			rate DOUBLE PRECISION NOT NULL DEFAULT 0,
			description TEXT NOT NULL DEFAULT '',
			author_id INT NOT NULL REFERENCES author(author_id),
			image_id INT REFERENCES images(image_id)
		)`,
		`CREATE TABLE IF NOT EXISTS book_genres (
			book_id INT NOT NULL REFERENCES book(book_id) ON DELETE CASCADE,
			genre_id INT NOT NULL REFERENCES genre(genre_id) ON DELETE CASCADE,
			PRIMARY KEY (book_id, genre_id)
		)`,
		`CREATE TABLE IF NOT EXISTS comment (
			comment_id SERIAL PRIMARY KEY,
			book_id INT NOT NULL REFERENCES book(book_id) ON DELETE CASCADE,
			username VARCHAR(100) NOT NULL REFERENCES users(username) ON DELETE CASCADE,
			rating INT NOT NULL DEFAULT 0,
			comment_date TIMESTAMP NOT NULL,
			comment_description TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS borrowing_transaction (
			transaction_id SERIAL PRIMARY KEY,
			username VARCHAR(100) NOT NULL REFERENCES users(username),
			book_id INT NOT NULL REFERENCES book(book_id),
			issue_date TIMESTAMP NOT NULL,
			due_date TIMESTAMP NOT NULL,
			return_date TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS fine (
			fine_id SERIAL PRIMARY KEY,
			username VARCHAR(100) NOT NULL,
			transaction_id INT NOT NULL REFERENCES borrowing_transaction(transaction_id) ON DELETE CASCADE,
			fine_amount INT NOT NULL,
			fine_status VARCHAR(10) NOT NULL DEFAULT 'unpaid',
			paid_date TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS notification (
			notification_id SERIAL PRIMARY KEY,
			username VARCHAR(100) NOT NULL,
			book_id INT NOT NULL,
			fine_id INT REFERENCES fine(fine_id) ON DELETE SET NULL,
			reminder_date TIMESTAMP NOT NULL,
			message TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	// Create indexes for better performance
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_transaction_user_book ON borrowing_transaction(username, book_id)",
		"CREATE INDEX IF NOT EXISTS idx_transaction_open ON borrowing_transaction(username, book_id) WHERE return_date IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_fine_transaction ON fine(transaction_id)",
		"CREATE INDEX IF NOT EXISTS idx_notification_user ON notification(username)",
		"CREATE INDEX IF NOT EXISTS idx_comment_book ON comment(book_id)",
	}

	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			log.Printf("Warning: Failed to create index: %v", err)
			// Don't return error here, indexes are not critical
		}
	}

	return nil
}
