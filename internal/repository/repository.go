package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lmehdi/libraryms-server/internal/models"
)

// Repository interface defines the methods that any repository implementation must satisfy
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, username string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) (bool, error)
	DeleteUser(ctx context.Context, username string) (bool, error)
	CheckUserExists(ctx context.Context, username string) (bool, error)

	// Author operations
	CreateAuthor(ctx context.Context, author *models.Author) error
	GetAuthor(ctx context.Context, id int64) (*models.Author, error)
	GetAllAuthors(ctx context.Context) ([]models.Author, error)
	UpdateAuthor(ctx context.Context, author *models.Author) (bool, error)
	DeleteAuthor(ctx context.Context, id int64) (bool, error)

	// Genre operations
	CreateGenre(ctx context.Context, genre *models.Genre) error
	GetGenre(ctx context.Context, id int64) (*models.Genre, error)
	GetAllGenres(ctx context.Context) ([]models.Genre, error)
	UpdateGenre(ctx context.Context, genre *models.Genre) (bool, error)
	DeleteGenre(ctx context.Context, id int64) (bool, error)

	// Image operations
	CreateImage(ctx context.Context, image *models.Image) error
	GetImage(ctx context.Context, id int64) (*models.Image, error)
	GetAllImages(ctx context.Context) ([]models.Image, error)
	DeleteImage(ctx context.Context, id int64) (bool, error)

	// Book operations
	CreateBook(ctx context.Context, book *models.Book, genreIDs []int64) error
	GetBook(ctx context.Context, id int64) (*models.Book, error)
	GetBookByTitle(ctx context.Context, title string) (*models.Book, error)
	GetBookByISBN(ctx context.Context, isbn string) (*models.Book, error)
	GetAllBooks(ctx context.Context) ([]models.Book, error)
	UpdateBook(ctx context.Context, book *models.Book, genreIDs []int64) (bool, error)
	DeleteBook(ctx context.Context, id int64) (bool, error)
	SearchBooks(ctx context.Context, keyword string) ([]models.Book, error)

	// Comment operations
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentsByBook(ctx context.Context, bookID int64) ([]models.Comment, error)
	DeleteComment(ctx context.Context, id int64) (bool, error)

	// Transaction operations
	GetAllTransactions(ctx context.Context) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (*models.Transaction, error)
	GetOpenTransaction(ctx context.Context, username string, bookID int64) (*models.Transaction, error)
	GetOpenTransactionsByUser(ctx context.Context, username string) ([]models.Transaction, error)
	CreateTransaction(ctx context.Context, username string, bookID int64) (*models.Transaction, error)
	BorrowBook(ctx context.Context, username string, bookID int64) (*models.Transaction, *models.Notification, error)
	ReturnBook(ctx context.Context, username string, bookID int64) (*models.Transaction, error)
	ForceReturnTransaction(ctx context.Context, id int64) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) (bool, error)

	// Notification operations
	CreateReminder(ctx context.Context, transactionID int64) (*models.Notification, error)
	GetAllNotifications(ctx context.Context) ([]models.Notification, error)
	GetNotification(ctx context.Context, id int64) (*models.Notification, error)
	GetNotificationsByUser(ctx context.Context, username string) ([]models.Notification, error)
	DeleteNotification(ctx context.Context, id int64) (bool, error)

	// Fine operations
	CreateFine(ctx context.Context, transactionID int64) (*models.Fine, error)
	GetAllFines(ctx context.Context) ([]models.Fine, error)
	GetFine(ctx context.Context, id int64) (*models.Fine, error)
	PayFine(ctx context.Context, id int64) (*models.Fine, error)
	DeleteFine(ctx context.Context, id int64) (bool, error)
}

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// GetDB returns the underlying database connection
func (r *PostgresRepository) GetDB() *sqlx.DB {
	return r.db
}
