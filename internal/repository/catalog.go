package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lmehdi/libraryms-server/internal/models"
)

// Author repository methods
func (r *PostgresRepository) CreateAuthor(ctx context.Context, author *models.Author) error {
	query := `INSERT INTO author (first_name, last_name) VALUES ($1, $2) RETURNING author_id`

	return r.db.QueryRowContext(ctx, query, author.FirstName, author.LastName).Scan(&author.ID)
}

func (r *PostgresRepository) GetAuthor(ctx context.Context, id int64) (*models.Author, error) {
	var author models.Author
	err := r.db.GetContext(ctx, &author, `SELECT * FROM author WHERE author_id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Author not found
		}
		return nil, err
	}

	return &author, nil
}

func (r *PostgresRepository) GetAllAuthors(ctx context.Context) ([]models.Author, error) {
	var authors []models.Author
	err := r.db.SelectContext(ctx, &authors, `SELECT * FROM author ORDER BY author_id`)
	if err != nil {
		return nil, err
	}

	return authors, nil
}

func (r *PostgresRepository) UpdateAuthor(ctx context.Context, author *models.Author) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE author SET first_name = $1, last_name = $2 WHERE author_id = $3`,
		author.FirstName, author.LastName, author.ID)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	return rows > 0, err
}

func (r *PostgresRepository) DeleteAuthor(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM author WHERE author_id = $1`, id)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	return rows > 0, err
}

// Genre repository methods
func (r *PostgresRepository) CreateGenre(ctx context.Context, genre *models.Genre) error {
	query := `INSERT INTO genre (type) VALUES ($1) RETURNING genre_id`

	return r.db.QueryRowContext(ctx, query, genre.Type).Scan(&genre.ID)
}

func (r *PostgresRepository) GetGenre(ctx context.Context, id int64) (*models.Genre, error) {
	var genre models.Genre
	err := r.db.GetContext(ctx, &genre, `SELECT * FROM genre WHERE genre_id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Genre not found
		}
		return nil, err
	}

	return &genre, nil
}

func (r *PostgresRepository) GetAllGenres(ctx context.Context) ([]models.Genre, error) {
	var genres []models.Genre
	err := r.db.SelectContext(ctx, &genres, `SELECT * FROM genre ORDER BY genre_id`)
	if err != nil {
		return nil, err
	}

	return genres, nil
}

func (r *PostgresRepository) UpdateGenre(ctx context.Context, genre *models.Genre) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE genre SET type = $1 WHERE genre_id = $2`, genre.Type, genre.ID)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	return rows > 0, err
}

func (r *PostgresRepository) DeleteGenre(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM genre WHERE genre_id = $1`, id)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	return rows > 0, err
}

// Image repository methods
func (r *PostgresRepository) CreateImage(ctx context.Context, image *models.Image) error {
	query := `
		INSERT INTO images (image_data, image_type, thumbnail_data)
		VALUES ($1, $2, $3) RETURNING image_id
	`

	return r.db.QueryRowContext(ctx, query,
		image.ImageData, image.ImageType, image.ThumbnailData).Scan(&image.ID)
}

func (r *PostgresRepository) GetImage(ctx context.Context, id int64) (*models.Image, error) {
	var image models.Image
	err := r.db.GetContext(ctx, &image, `SELECT * FROM images WHERE image_id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Image not found
		}
		return nil, err
	}

	return &image, nil
}

// GetAllImages lists image metadata only; the blobs stay in the database
// until a single image is fetched.
func (r *PostgresRepository) GetAllImages(ctx context.Context) ([]models.Image, error) {
	var images []models.Image
	err := r.db.SelectContext(ctx, &images,
		`SELECT image_id, image_type FROM images ORDER BY image_id`)
	if err != nil {
		return nil, err
	}

	return images, nil
}

func (r *PostgresRepository) DeleteImage(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE image_id = $1`, id)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	return rows > 0, err
}

// Comment repository methods
func (r *PostgresRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comment (book_id, username, rating, comment_date, comment_description)
		VALUES ($1, $2, $3, $4, $5) RETURNING comment_id
	`

	if comment.CommentDate.IsZero() {
		comment.CommentDate = time.Now().UTC()
	}

	return r.db.QueryRowContext(ctx, query,
		comment.BookID, comment.Username, comment.Rating,
		comment.CommentDate, comment.Description).Scan(&comment.ID)
}

func (r *PostgresRepository) GetCommentsByBook(ctx context.Context, bookID int64) ([]models.Comment, error) {
	query := `SELECT * FROM comment WHERE book_id = $1 ORDER BY comment_date DESC`

	var comments []models.Comment
	err := r.db.SelectContext(ctx, &comments, query, bookID)
	if err != nil {
		return nil, err
	}

	return comments, nil
}

func (r *PostgresRepository) DeleteComment(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comment WHERE comment_id = $1`, id)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	return rows > 0, err
}
