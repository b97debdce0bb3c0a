package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // goqu postgres dialect
	"github.com/lmehdi/libraryms-server/internal/models"
)

var pgDialect = goqu.Dialect("postgres")

const bookColumns = `
	b.book_id, b.title, b.isbn, b.publisher, b.published_year, b.status,
	b.quantity, b.rate, b.description, b.author_id, b.image_id,
	a.first_name, a.last_name
`

// Book repository methods
func (r *PostgresRepository) CreateBook(ctx context.Context, book *models.Book, genreIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	query := `
		INSERT INTO book (title, isbn, publisher, published_year, status, quantity, rate, description, author_id, image_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING book_id
	`

	if book.Status == "" {
		book.Status = models.BookStatusAvailable
	}

	err = tx.QueryRowContext(ctx, query,
		book.Title, book.ISBN, book.Publisher, book.PublishedYear, book.Status,
		book.Quantity, book.Rate, book.Description, book.AuthorID, book.ImageID).Scan(&book.ID)
	if err != nil {
		return err
	}

	for _, genreID := range genreIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO book_genres (book_id, genre_id) VALUES ($1, $2)`,
			book.ID, genreID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PostgresRepository) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	query := `
		SELECT ` + bookColumns + `
		FROM book b
		JOIN author a ON a.author_id = b.author_id
		WHERE b.book_id = $1
	`

	var book models.Book
	err := r.db.GetContext(ctx, &book, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Book not found
		}
		return nil, err
	}

	if err := r.loadGenres(ctx, &book); err != nil {
		return nil, err
	}

	return &book, nil
}

func (r *PostgresRepository) GetBookByTitle(ctx context.Context, title string) (*models.Book, error) {
	return r.getBookBy(ctx, `b.title = $1`, title)
}

func (r *PostgresRepository) GetBookByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	return r.getBookBy(ctx, `b.isbn = $1`, isbn)
}

func (r *PostgresRepository) getBookBy(ctx context.Context, where string, arg interface{}) (*models.Book, error) {
	query := `
		SELECT ` + bookColumns + `
		FROM book b
		JOIN author a ON a.author_id = b.author_id
		WHERE ` + where

	var book models.Book
	err := r.db.GetContext(ctx, &book, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &book, nil
}

func (r *PostgresRepository) GetAllBooks(ctx context.Context) ([]models.Book, error) {
	query := `
		SELECT ` + bookColumns + `
		FROM book b
		JOIN author a ON a.author_id = b.author_id
		ORDER BY b.book_id
	`

	var books []models.Book
	err := r.db.SelectContext(ctx, &books, query)
	if err != nil {
		return nil, err
	}

	for i := range books {
		if err := r.loadGenres(ctx, &books[i]); err != nil {
			return nil, err
		}
	}

	return books, nil
}

func (r *PostgresRepository) UpdateBook(ctx context.Context, book *models.Book, genreIDs []int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	query := `
		UPDATE book SET title = $1, isbn = $2, publisher = $3, published_year = $4,
			status = $5, quantity = $6, rate = $7, description = $8, author_id = $9, image_id = $10
		WHERE book_id = $11
	`

	result, err := tx.ExecContext(ctx, query,
		book.Title, book.ISBN, book.Publisher, book.PublishedYear, book.Status,
		book.Quantity, book.Rate, book.Description, book.AuthorID, book.ImageID, book.ID)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 0 {
		err = tx.Rollback()
		return false, err
	}

	if genreIDs != nil {
		_, err = tx.ExecContext(ctx, `DELETE FROM book_genres WHERE book_id = $1`, book.ID)
		if err != nil {
			return false, err
		}

		for _, genreID := range genreIDs {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO book_genres (book_id, genre_id) VALUES ($1, $2)`,
				book.ID, genreID)
			if err != nil {
				return false, err
			}
		}
	}

	return true, tx.Commit()
}

func (r *PostgresRepository) DeleteBook(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM book WHERE book_id = $1`, id)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	return rows > 0, err
}

// SearchBooks matches the keyword against title, author name, genre,
// publisher and published year. The query is assembled with goqu since
// the join and OR set would be unwieldy as a raw string.
func (r *PostgresRepository) SearchBooks(ctx context.Context, keyword string) ([]models.Book, error) {
	pattern := "%" + keyword + "%"

	ds := pgDialect.
		From(goqu.T("book").As("b")).
		Join(goqu.T("author").As("a"), goqu.On(goqu.Ex{"a.author_id": goqu.I("b.author_id")})).
		LeftJoin(goqu.T("book_genres").As("bg"), goqu.On(goqu.Ex{"bg.book_id": goqu.I("b.book_id")})).
		LeftJoin(goqu.T("genre").As("g"), goqu.On(goqu.Ex{"g.genre_id": goqu.I("bg.genre_id")})).
		Select(
			goqu.I("b.book_id"), goqu.I("b.title"), goqu.I("b.isbn"),
			goqu.I("b.publisher"), goqu.I("b.published_year"), goqu.I("b.status"),
			goqu.I("b.quantity"), goqu.I("b.rate"), goqu.I("b.description"),
			goqu.I("b.author_id"), goqu.I("b.image_id"),
			goqu.I("a.first_name"), goqu.I("a.last_name"),
		).
		Where(goqu.Or(
			goqu.I("b.title").ILike(pattern),
			goqu.I("b.publisher").ILike(pattern),
			goqu.I("a.first_name").ILike(pattern),
			goqu.I("a.last_name").ILike(pattern),
			goqu.I("g.type").ILike(pattern),
			goqu.L("CAST(b.published_year AS TEXT) LIKE ?", pattern),
		)).
		Distinct().
		Order(goqu.I("b.book_id").Asc()).
		Prepared(true)

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, err
	}

	var books []models.Book
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, err
	}

	for i := range books {
		if err := r.loadGenres(ctx, &books[i]); err != nil {
			return nil, err
		}
	}

	return books, nil
}


func (r *PostgresRepository) loadGenres(ctx context.Context, book *models.Book) error {
	query := `
		SELECT g.type FROM genre g
		JOIN book_genres bg ON bg.genre_id = g.genre_id
		WHERE bg.book_id = $1
		ORDER BY g.type
	`

	return r.db.SelectContext(ctx, &book.Genres, query, book.ID)
}
