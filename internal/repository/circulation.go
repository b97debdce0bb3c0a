package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lmehdi/libraryms-server/internal/apperrors"
	"github.com/lmehdi/libraryms-server/internal/models"
)

// reminderOffsetDays is how long after the issue date a return reminder
// is scheduled.
const reminderOffsetDays = 14

const transactionColumns = `
	bt.transaction_id, bt.username, bt.book_id, b.title,
	bt.issue_date, bt.due_date, bt.return_date
`

// Transaction repository methods
func (r *PostgresRepository) GetAllTransactions(ctx context.Context) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM borrowing_transaction bt
		JOIN book b ON b.book_id = bt.book_id
		ORDER BY bt.transaction_id
	`

	var transactions []models.Transaction
	err := r.db.SelectContext(ctx, &transactions, query)
	if err != nil {
		return nil, err
	}

	return transactions, nil
}

func (r *PostgresRepository) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM borrowing_transaction bt
		JOIN book b ON b.book_id = bt.book_id
		WHERE bt.transaction_id = $1
	`

	var transaction models.Transaction
	err := r.db.GetContext(ctx, &transaction, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Transaction not found
		}
		return nil, err
	}

	return &transaction, nil
}

func (r *PostgresRepository) GetOpenTransaction(ctx context.Context, username string, bookID int64) (*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM borrowing_transaction bt
		JOIN book b ON b.book_id = bt.book_id
		WHERE bt.username = $1 AND bt.book_id = $2 AND bt.return_date IS NULL
	`

	var transaction models.Transaction
	err := r.db.GetContext(ctx, &transaction, query, username, bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No open transaction
		}
		return nil, err
	}

	return &transaction, nil
}

func (r *PostgresRepository) GetOpenTransactionsByUser(ctx context.Context, username string) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM borrowing_transaction bt
		JOIN book b ON b.book_id = bt.book_id
		WHERE bt.username = $1 AND bt.return_date IS NULL
		ORDER BY bt.transaction_id
	`

	var transactions []models.Transaction
	err := r.db.SelectContext(ctx, &transactions, query, username)
	if err != nil {
		return nil, err
	}

	return transactions, nil
}

// CreateTransaction records a borrow event without touching the inventory
// count (the administrative create path). Preconditions are verified in a
// fixed order: book exists, copies available, user exists, no open
// transaction for the pair.
func (r *PostgresRepository) CreateTransaction(ctx context.Context, username string, bookID int64) (*models.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	if _, err = r.checkBorrowPreconditions(ctx, tx, username, bookID); err != nil {
		return nil, err
	}

	var transaction *models.Transaction
	transaction, err = insertTransaction(ctx, tx, username, bookID)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return transaction, nil
}

// BorrowBook is the borrow composite: precondition checks, transaction
// insert, guarded inventory decrement and reminder issuance, all in one
// database transaction so a failing step cannot strand the copy count.
func (r *PostgresRepository) BorrowBook(ctx context.Context, username string, bookID int64) (*models.Transaction, *models.Notification, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	var title string
	if title, err = r.checkBorrowPreconditions(ctx, tx, username, bookID); err != nil {
		return nil, nil, err
	}

	// Conditional decrement closes the window between the availability
	// check and the write: two racing borrows cannot drive the count
	// negative.
	var remaining int
	err = tx.QueryRowContext(ctx, `
		UPDATE book
		SET quantity = quantity - 1,
		    status = CASE WHEN quantity - 1 = 0 THEN $1 ELSE status END
		WHERE book_id = $2 AND quantity > 0
		RETURNING quantity
	`, models.BookStatusUnavailable, bookID).Scan(&remaining)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = apperrors.Conflict("book", strconv.FormatInt(bookID, 10), "no available copies to borrow")
		}
		return nil, nil, err
	}

	var transaction *models.Transaction
	transaction, err = insertTransaction(ctx, tx, username, bookID)
	if err != nil {
		return nil, nil, err
	}
	transaction.BookTitle = title

	var notification *models.Notification
	notification, err = insertReminder(ctx, tx, transaction, title)
	if err != nil {
		return nil, nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, err
	}

	return transaction, notification, nil
}

// ReturnBook closes the open transaction for the pair and restores the
// copy count. The status label deliberately stays as it was: a book whose
// quantity went to zero remains marked unavailable after a return.
func (r *PostgresRepository) ReturnBook(ctx context.Context, username string, bookID int64) (*models.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	now := time.Now().UTC()

	var transaction models.Transaction
	err = tx.QueryRowContext(ctx, `
		UPDATE borrowing_transaction
		SET return_date = $1
		WHERE username = $2 AND book_id = $3 AND return_date IS NULL
		RETURNING transaction_id, username, book_id, issue_date, due_date, return_date
	`, now, username, bookID).Scan(
		&transaction.ID, &transaction.Username, &transaction.BookID,
		&transaction.IssueDate, &transaction.DueDate, &transaction.ReturnDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = apperrors.Conflict("transaction", fmt.Sprintf("%s/%d", username, bookID),
				"no active borrowing record found for this user and book")
		}
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE book SET quantity = quantity + 1 WHERE book_id = $1`, bookID)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return &transaction, nil
}

// ForceReturnTransaction is the administrative return path, keyed by
// transaction id instead of the (user, book) pair. It restores the copy
// count the same way ReturnBook does.
func (r *PostgresRepository) ForceReturnTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	key := strconv.FormatInt(id, 10)

	var returnDate *time.Time
	err = tx.QueryRowContext(ctx,
		`SELECT return_date FROM borrowing_transaction WHERE transaction_id = $1`, id).
		Scan(&returnDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = apperrors.NotFound("transaction", key)
		}
		return nil, err
	}

	if returnDate != nil {
		err = apperrors.Conflict("transaction", key, "already completed (book returned)")
		return nil, err
	}

	now := time.Now().UTC()

	var transaction models.Transaction
	err = tx.QueryRowContext(ctx, `
		UPDATE borrowing_transaction
		SET return_date = $1
		WHERE transaction_id = $2 AND return_date IS NULL
		RETURNING transaction_id, username, book_id, issue_date, due_date, return_date
	`, now, id).Scan(
		&transaction.ID, &transaction.Username, &transaction.BookID,
		&transaction.IssueDate, &transaction.DueDate, &transaction.ReturnDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = apperrors.Conflict("transaction", key, "already completed (book returned)")
		}
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE book SET quantity = quantity + 1 WHERE book_id = $1`, transaction.BookID)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return &transaction, nil
}

func (r *PostgresRepository) DeleteTransaction(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM borrowing_transaction WHERE transaction_id = $1`, id)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	return rows > 0, err
}

// checkBorrowPreconditions runs the borrow validation chain in its fixed
// order and returns the book title for the reminder message.
func (r *PostgresRepository) checkBorrowPreconditions(ctx context.Context, tx *sql.Tx, username string, bookID int64) (string, error) {
	bookKey := strconv.FormatInt(bookID, 10)

	var title string
	var quantity int
	err := tx.QueryRowContext(ctx,
		`SELECT title, quantity FROM book WHERE book_id = $1`, bookID).
		Scan(&title, &quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperrors.NotFound("book", bookKey)
		}
		return "", err
	}

	if quantity <= 0 {
		return "", apperrors.Conflict("book", bookKey, "no available copies to borrow")
	}

	var userExists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).
		Scan(&userExists)
	if err != nil {
		return "", err
	}
	if !userExists {
		return "", apperrors.NotFound("user", username)
	}

	var alreadyBorrowed bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM borrowing_transaction
			WHERE username = $1 AND book_id = $2 AND return_date IS NULL
		)
	`, username, bookID).Scan(&alreadyBorrowed)
	if err != nil {
		return "", err
	}
	if alreadyBorrowed {
		return "", apperrors.Conflict("transaction", fmt.Sprintf("%s/%d", username, bookID),
			"book is already borrowed by this user")
	}

	return title, nil
}

func insertTransaction(ctx context.Context, tx *sql.Tx, username string, bookID int64) (*models.Transaction, error) {
	issueDate := time.Now().UTC()
	dueDate := issueDate.AddDate(0, 1, 0) // due one month after issue

	transaction := &models.Transaction{
		Username:  username,
		BookID:    bookID,
		IssueDate: issueDate,
		DueDate:   dueDate,
	}

	err := tx.QueryRowContext(ctx, `
		INSERT INTO borrowing_transaction (username, book_id, issue_date, due_date, return_date)
		VALUES ($1, $2, $3, $4, NULL)
		RETURNING transaction_id
	`, username, bookID, issueDate, dueDate).Scan(&transaction.ID)
	if err != nil {
		return nil, err
	}

	return transaction, nil
}

func insertReminder(ctx context.Context, tx *sql.Tx, transaction *models.Transaction, title string) (*models.Notification, error) {
	notification := &models.Notification{
		Username:     transaction.Username,
		BookID:       transaction.BookID,
		ReminderDate: transaction.IssueDate.AddDate(0, 0, reminderOffsetDays),
		Message:      reminderMessage(title, transaction.DueDate),
	}

	err := tx.QueryRowContext(ctx, `
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

func reminderMessage(title string, dueDate time.Time) string {
	return fmt.Sprintf("Don't forget to return %q before %s",
		title, dueDate.Format("2006-01-02 15:04:05"))
}
