package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/lmehdi/libraryms-server/internal/apperrors"
	"github.com/lmehdi/libraryms-server/internal/models"
)

// Notification repository methods

// CreateReminder issues the reminder notification for an existing
// transaction: reminder_date is 14 days after the issue date and the
// message embeds the book title and due date.
func (r *PostgresRepository) CreateReminder(ctx context.Context, transactionID int64) (*models.Notification, error) {
	var transaction models.Transaction
	err := r.db.GetContext(ctx, &transaction, `
		SELECT `+transactionColumns+`
		FROM borrowing_transaction bt
		JOIN book b ON b.book_id = bt.book_id
		WHERE bt.transaction_id = $1
	`, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("transaction", strconv.FormatInt(transactionID, 10))
		}
		return nil, err
	}

	notification := &models.Notification{
		Username:     transaction.Username,
		BookID:       transaction.BookID,
		ReminderDate: transaction.IssueDate.AddDate(0, 0, reminderOffsetDays),
		Message:      reminderMessage(transaction.BookTitle, transaction.DueDate),
	}

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO notification (username, book_id, reminder_date, message)
		VALUES ($1, $2, $3, $4)
		RETURNING notification_id
	`, notification.Username, notification.BookID,
		notification.ReminderDate, notification.Message).Scan(&notification.ID)
	if err != nil {
		return nil, err
	}

	return notification, nil
}

func (r *PostgresRepository) GetAllNotifications(ctx context.Context) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.SelectContext(ctx, &notifications,
		`SELECT * FROM notification ORDER BY notification_id`)
	if err != nil {
		return nil, err
	}

	return notifications, nil
}

func (r *PostgresRepository) GetNotification(ctx context.Context, id int64) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.GetContext(ctx, &notification,
		`SELECT * FROM notification WHERE notification_id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Notification not found
		}
		return nil, err
	}

	return &notification, nil
}

func (r *PostgresRepository) GetNotificationsByUser(ctx context.Context, username string) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.SelectContext(ctx, &notifications,
		`SELECT * FROM notification WHERE username = $1 ORDER BY notification_id`, username)
	if err != nil {
		return nil, err
	}

	return notifications, nil
}

func (r *PostgresRepository) DeleteNotification(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notification WHERE notification_id = $1`, id)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	return rows > 0, err
}

// Fine repository methods

const fineColumns = `
	f.fine_id, f.username, f.transaction_id, b.title AS borrowed_book,
	f.fine_amount, f.fine_status, f.paid_date
`

// CreateFine records the fixed-amount penalty against a transaction,
// denormalizing the borrower's username from it.
func (r *PostgresRepository) CreateFine(ctx context.Context, transactionID int64) (*models.Fine, error) {
	var username string
	err := r.db.GetContext(ctx, &username,
		`SELECT username FROM borrowing_transaction WHERE transaction_id = $1`, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("transaction", strconv.FormatInt(transactionID, 10))
		}
		return nil, err
	}

	fine := &models.Fine{
		Username:      username,
		TransactionID: transactionID,
		Amount:        models.FineAmount,
		Status:        models.FineStatusUnpaid,
	}

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO fine (username, transaction_id, fine_amount, fine_status)
		VALUES ($1, $2, $3, $4)
		RETURNING fine_id
	`, fine.Username, fine.TransactionID, fine.Amount, fine.Status).Scan(&fine.ID)
	if err != nil {
		return nil, err
	}

	return fine, nil
}

func (r *PostgresRepository) GetAllFines(ctx context.Context) ([]models.Fine, error) {
	query := `
		SELECT ` + fineColumns + `
		FROM fine f
		JOIN borrowing_transaction bt ON bt.transaction_id = f.transaction_id
		JOIN book b ON b.book_id = bt.book_id
		ORDER BY f.fine_id
	`

	var fines []models.Fine
	err := r.db.SelectContext(ctx, &fines, query)
	if err != nil {
		return nil, err
	}

	return fines, nil
}

func (r *PostgresRepository) GetFine(ctx context.Context, id int64) (*models.Fine, error) {
	query := `
		SELECT ` + fineColumns + `
		FROM fine f
		JOIN borrowing_transaction bt ON bt.transaction_id = f.transaction_id
		JOIN book b ON b.book_id = bt.book_id
		WHERE f.fine_id = $1
	`

	var fine models.Fine
	err := r.db.GetContext(ctx, &fine, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Fine not found
		}
		return nil, err
	}

	return &fine, nil
}

// PayFine transitions a fine from unpaid to paid exactly once. The
// conditional update guards against a racing second payment.
func (r *PostgresRepository) PayFine(ctx context.Context, id int64) (*models.Fine, error) {
	key := strconv.FormatInt(id, 10)

	var status string
	err := r.db.GetContext(ctx, &status,
		`SELECT fine_status FROM fine WHERE fine_id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("fine", key)
		}
		return nil, err
	}

	if status == models.FineStatusPaid {
		return nil, apperrors.Conflict("fine", key, "already paid")
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE fine SET fine_status = $1, paid_date = $2
		WHERE fine_id = $3 AND fine_status = $4
	`, models.FineStatusPaid, time.Now().UTC(), id, models.FineStatusUnpaid)
	if err != nil {
		return nil, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, apperrors.Conflict("fine", key, "already paid")
	}

	return r.GetFine(ctx, id)
}

func (r *PostgresRepository) DeleteFine(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM fine WHERE fine_id = $1`, id)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	return rows > 0, err
}
