package service

import (
	"bytes"
	"context"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/lmehdi/libraryms-server/internal/apperrors"
	"github.com/lmehdi/libraryms-server/internal/models"
)

// Cover thumbnails are bounded to fit list views.
const (
	thumbnailWidth  = 120
	thumbnailHeight = 160
)

// Author methods
func (s *DefaultService) CreateAuthor(ctx context.Context, req models.AuthorRequest) (*models.Author, error) {
	author := &models.Author{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}

	if err := s.repo.CreateAuthor(ctx, author); err != nil {
		return nil, internal("error creating author", err)
	}

	return author, nil
}

func (s *DefaultService) GetAuthor(ctx context.Context, id int64) (*models.Author, error) {
	author, err := s.repo.GetAuthor(ctx, id)
	if err != nil {
		return nil, internal("error getting author", err)
	}
	if author == nil {
		return nil, apperrors.NotFound("author", strconv.FormatInt(id, 10))
	}
	return author, nil
}

func (s *DefaultService) GetAllAuthors(ctx context.Context) ([]models.Author, error) {
	authors, err := s.repo.GetAllAuthors(ctx)
	if err != nil {
		return nil, internal("error getting authors", err)
	}
	return authors, nil
}

func (s *DefaultService) UpdateAuthor(ctx context.Context, id int64, req models.AuthorRequest) (*models.Author, error) {
	author := &models.Author{
		ID:        id,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}

	updated, err := s.repo.UpdateAuthor(ctx, author)
	if err != nil {
		return nil, internal("error updating author", err)
	}
	if !updated {
		return nil, apperrors.NotFound("author", strconv.FormatInt(id, 10))
	}

	return author, nil
}

func (s *DefaultService) DeleteAuthor(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.repo.DeleteAuthor(ctx, id)
	if err != nil {
		return false, internal("error deleting author", err)
	}
	return deleted, nil
}

// Genre methods
func (s *DefaultService) CreateGenre(ctx context.Context, req models.GenreRequest) (*models.Genre, error) {
	genre := &models.Genre{Type: req.Type}

	if err := s.repo.CreateGenre(ctx, genre); err != nil {
		return nil, internal("error creating genre", err)
	}

	return genre, nil
}

func (s *DefaultService) GetGenre(ctx context.Context, id int64) (*models.Genre, error) {
	genre, err := s.repo.GetGenre(ctx, id)
	if err != nil {
		return nil, internal("error getting genre", err)
	}
	if genre == nil {
		return nil, apperrors.NotFound("genre", strconv.FormatInt(id, 10))
	}
	return genre, nil
}

func (s *DefaultService) GetAllGenres(ctx context.Context) ([]models.Genre, error) {
	genres, err := s.repo.GetAllGenres(ctx)
	if err != nil {
		return nil, internal("error getting genres", err)
	}
	return genres, nil
}

func (s *DefaultService) UpdateGenre(ctx context.Context, id int64, req models.GenreRequest) (*models.Genre, error) {
	genre := &models.Genre{ID: id, Type: req.Type}

	updated, err := s.repo.UpdateGenre(ctx, genre)
	if err != nil {
		return nil, internal("error updating genre", err)
	}
	if !updated {
		return nil, apperrors.NotFound("genre", strconv.FormatInt(id, 10))
	}

	return genre, nil
}

func (s *DefaultService) DeleteGenre(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.repo.DeleteGenre(ctx, id)
	if err != nil {
		return false, internal("error deleting genre", err)
	}
	return deleted, nil
}

// Book methods
func (s *DefaultService) CreateBook(ctx context.Context, req models.CreateBookRequest, cover *ImageUpload) (*models.Book, error) {
	// Unique title and ISBN, checked the way the catalog UI expects to
	// report them
	existing, err := s.repo.GetBookByTitle(ctx, req.Title)
	if err != nil {
		return nil, internal("error checking book title", err)
	}
	if existing != nil {
		return nil, apperrors.Conflict("book", req.Title, "a book with this title already exists")
	}

	existing, err = s.repo.GetBookByISBN(ctx, req.ISBN)
	if err != nil {
		return nil, internal("error checking book ISBN", err)
	}
	if existing != nil {
		return nil, apperrors.Conflict("book", req.ISBN, "a book with this ISBN already exists")
	}

	author, err := s.repo.GetAuthor(ctx, req.AuthorID)
	if err != nil {
		return nil, internal("error checking author", err)
	}
	if author == nil {
		return nil, apperrors.NotFound("author", strconv.FormatInt(req.AuthorID, 10))
	}

	var imageID *int64
	if cover != nil {
		image, err := s.UploadImage(ctx, *cover)
		if err != nil {
			return nil, err
		}
		imageID = &image.ID
	}

	book := &models.Book{
		Title:         req.Title,
		ISBN:          req.ISBN,
		Publisher:     req.Publisher,
		PublishedYear: req.PublishedYear,
		Status:        req.Status,
		Quantity:      req.Quantity,
		Rate:          req.Rate,
		Description:   req.Description,
		AuthorID:      req.AuthorID,
		ImageID:       imageID,
	}

	if err := s.repo.CreateBook(ctx, book, req.GenreIDs); err != nil {
		return nil, internal("error creating book", err)
	}

	return book, nil
}

// GetBookDetails returns the book detail view model: the book, its
// comments and whether the given user currently holds a copy.
func (s *DefaultService) GetBookDetails(ctx context.Context, id int64, username string) (*models.BookDetailResponse, error) {
	book, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return nil, internal("error getting book", err)
	}
	if book == nil {
		return nil, apperrors.NotFound("book", strconv.FormatInt(id, 10))
	}

	comments, err := s.repo.GetCommentsByBook(ctx, id)
	if err != nil {
		return nil, internal("error getting comments", err)
	}

	isBorrowed := false
	if username != "" {
		open, err := s.repo.GetOpenTransaction(ctx, username, id)
		if err != nil {
			return nil, internal("error checking borrow state", err)
		}
		isBorrowed = open != nil
	}

	return &models.BookDetailResponse{
		Status:     "success",
		Book:       book,
		Comments:   comments,
		Username:   username,
		IsBorrowed: isBorrowed,
	}, nil
}

func (s *DefaultService) GetAllBooks(ctx context.Context) ([]models.Book, error) {
	books, err := s.repo.GetAllBooks(ctx)
	if err != nil {
		return nil, internal("error getting books", err)
	}
	return books, nil
}

func (s *DefaultService) UpdateBook(ctx context.Context, id int64, req models.CreateBookRequest, cover *ImageUpload) (*models.Book, error) {
	current, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return nil, internal("error getting book", err)
	}
	if current == nil {
		return nil, apperrors.NotFound("book", strconv.FormatInt(id, 10))
	}

	// Keep the current cover unless a new one was uploaded
	imageID := current.ImageID
	if cover != nil {
		image, err := s.UploadImage(ctx, *cover)
		if err != nil {
			return nil, err
		}
		imageID = &image.ID
	}

	book := &models.Book{
		ID:            id,
		Title:         req.Title,
		ISBN:          req.ISBN,
		Publisher:     req.Publisher,
		PublishedYear: req.PublishedYear,
		Status:        req.Status,
		Quantity:      req.Quantity,
		Rate:          req.Rate,
		Description:   req.Description,
		AuthorID:      req.AuthorID,
		ImageID:       imageID,
	}
	if book.Status == "" {
		book.Status = current.Status
	}

	updated, err := s.repo.UpdateBook(ctx, book, req.GenreIDs)
	if err != nil {
		return nil, internal("error updating book", err)
	}
	if !updated {
		return nil, apperrors.NotFound("book", strconv.FormatInt(id, 10))
	}

	return book, nil
}

func (s *DefaultService) DeleteBook(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.repo.DeleteBook(ctx, id)
	if err != nil {
		return false, internal("error deleting book", err)
	}
	return deleted, nil
}

func (s *DefaultService) SearchBooks(ctx context.Context, keyword string) ([]models.Book, error) {
	if keyword == "" {
		return nil, apperrors.InvalidInput("book", "search term is required")
	}

	books, err := s.repo.SearchBooks(ctx, keyword)
	if err != nil {
		return nil, internal("error searching books", err)
	}
	return books, nil
}

// Image methods
func (s *DefaultService) UploadImage(ctx context.Context, upload ImageUpload) (*models.Image, error) {
	if len(upload.Data) == 0 {
		return nil, apperrors.InvalidInput("image", "image data is required")
	}

	image := &models.Image{
		ImageData: upload.Data,
		ImageType: upload.ContentType,
	}

	// An undecodable upload is stored as-is, just without a thumbnail
	if thumbnail, err := makeThumbnail(upload.Data); err == nil {
		image.ThumbnailData = thumbnail
	}

	if err := s.repo.CreateImage(ctx, image); err != nil {
		return nil, internal("error storing image", err)
	}

	return image, nil
}

func (s *DefaultService) GetImage(ctx context.Context, id int64) (*models.Image, error) {
	image, err := s.repo.GetImage(ctx, id)
	if err != nil {
		return nil, internal("error getting image", err)
	}
	if image == nil {
		return nil, apperrors.NotFound("image", strconv.FormatInt(id, 10))
	}
	return image, nil
}

func (s *DefaultService) GetAllImages(ctx context.Context) ([]models.Image, error) {
	images, err := s.repo.GetAllImages(ctx)
	if err != nil {
		return nil, internal("error getting images", err)
	}
	return images, nil
}

func (s *DefaultService) DeleteImage(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.repo.DeleteImage(ctx, id)
	if err != nil {
		return false, internal("error deleting image", err)
	}
	return deleted, nil
}

// Comment methods
func (s *DefaultService) CreateComment(ctx context.Context, req models.CommentRequest) (*models.Comment, error) {
	book, err := s.repo.GetBook(ctx, req.BookID)
	if err != nil {
		return nil, internal("error checking book", err)
	}
	if book == nil {
		return nil, apperrors.NotFound("book", strconv.FormatInt(req.BookID, 10))
	}

	exists, err := s.repo.CheckUserExists(ctx, req.Username)
	if err != nil {
		return nil, internal("error checking user", err)
	}
	if !exists {
		return nil, apperrors.NotFound("user", req.Username)
	}

	comment := &models.Comment{
		BookID:      req.BookID,
		Username:    req.Username,
		Rating:      req.Rating,
		Description: req.Description,
	}

	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, internal("error creating comment", err)
	}

	return comment, nil
}

func (s *DefaultService) GetCommentsByBook(ctx context.Context, bookID int64) ([]models.Comment, error) {
	comments, err := s.repo.GetCommentsByBook(ctx, bookID)
	if err != nil {
		return nil, internal("error getting comments", err)
	}
	return comments, nil
}

func (s *DefaultService) DeleteComment(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.repo.DeleteComment(ctx, id)
	if err != nil {
		return false, internal("error deleting comment", err)
	}
	return deleted, nil
}

func makeThumbnail(data []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	thumb := imaging.Fit(src, thumbnailWidth, thumbnailHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
