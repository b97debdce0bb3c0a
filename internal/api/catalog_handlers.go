package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lmehdi/libraryms-server/internal/apperrors"
	"github.com/lmehdi/libraryms-server/internal/models"
	"github.com/lmehdi/libraryms-server/internal/service"
)

// Author handlers
func (h *Handler) CreateAuthor(c *gin.Context) {
	var req models.AuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.InvalidInput("author", err.Error()))
		return
	}

	author, err := h.svc.CreateAuthor(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, author)
}

func (h *Handler) GetAuthor(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	author, err := h.svc.GetAuthor(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, author)
}

func (h *Handler) GetAllAuthors(c *gin.Context) {
	authors, err := h.svc.GetAllAuthors(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, authors)
}

func (h *Handler) UpdateAuthor(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.AuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.InvalidInput("author", err.Error()))
		return
	}

	author, err := h.svc.UpdateAuthor(c.Request.Context(), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, author)
}

func (h *Handler) DeleteAuthor(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	deleted, err := h.svc.DeleteAuthor(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.DeleteResponse{Status: "success", Deleted: deleted})
}

// Genre handlers
func (h *Handler) CreateGenre(c *gin.Context) {
	var req models.GenreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.InvalidInput("genre", err.Error()))
		return
	}

	genre, err := h.svc.CreateGenre(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, genre)
}

func (h *Handler) GetGenre(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	genre, err := h.svc.GetGenre(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, genre)
}

func (h *Handler) GetAllGenres(c *gin.Context) {
	genres, err := h.svc.GetAllGenres(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, genres)
}

func (h *Handler) UpdateGenre(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.GenreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.InvalidInput("genre", err.Error()))
		return
	}

	genre, err := h.svc.UpdateGenre(c.Request.Context(), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, genre)
}

func (h *Handler) DeleteGenre(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	deleted, err := h.svc.DeleteGenre(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.DeleteResponse{Status: "success", Deleted: deleted})
}

// Book handlers
func (h *Handler) CreateBook(c *gin.Context) {
	var req models.CreateBookRequest
	if err := c.ShouldBind(&req); err != nil {
		h.respondError(c, apperrors.InvalidInput("book", err.Error()))
		return
	}

	cover, err := readCoverUpload(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	book, err := h.svc.CreateBook(c.Request.Context(), req, cover)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, book)
}

func (h *Handler) GetBookDetails(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	details, err := h.svc.GetBookDetails(c.Request.Context(), id, c.Query("username"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

func (h *Handler) GetAllBooks(c *gin.Context) {
	books, err := h.svc.GetAllBooks(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, books)
}

func (h *Handler) UpdateBook(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.CreateBookRequest
	if err := c.ShouldBind(&req); err != nil {
		h.respondError(c, apperrors.InvalidInput("book", err.Error()))
		return
	}

	cover, err := readCoverUpload(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	book, err := h.svc.UpdateBook(c.Request.Context(), id, req, cover)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, book)
}

func (h *Handler) DeleteBook(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	deleted, err := h.svc.DeleteBook(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.DeleteResponse{Status: "success", Deleted: deleted})
}

func (h *Handler) SearchBooks(c *gin.Context) {
	books, err := h.svc.SearchBooks(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, books)
}

// Comment handlers
func (h *Handler) CreateComment(c *gin.Context) {
	var req models.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.InvalidInput("comment", err.Error()))
		return
	}

	comment, err := h.svc.CreateComment(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func (h *Handler) GetCommentsByBook(c *gin.Context) {
	bookID, ok := parseID(c, "book_id")
	if !ok {
		return
	}

	comments, err := h.svc.GetCommentsByBook(c.Request.Context(), bookID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, comments)
}

func (h *Handler) DeleteComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	deleted, err := h.svc.DeleteComment(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.DeleteResponse{Status: "success", Deleted: deleted})
}

// Image handlers
func (h *Handler) UploadImage(c *gin.Context) {
	upload, err := readCoverUpload(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if upload == nil {
		h.respondError(c, apperrors.InvalidInput("image", "image file is required"))
		return
	}

	image, err := h.svc.UploadImage(c.Request.Context(), *upload)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, image)
}

func (h *Handler) GetAllImages(c *gin.Context) {
	images, err := h.svc.GetAllImages(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, images)
}

func (h *Handler) GetImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	image, err := h.svc.GetImage(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if c.Query("thumbnail") == "true" && len(image.ThumbnailData) > 0 {
		c.Data(http.StatusOK, "image/jpeg", image.ThumbnailData)
		return
	}

	c.Data(http.StatusOK, image.ImageType, image.ImageData)
}

func (h *Handler) DeleteImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	deleted, err := h.svc.DeleteImage(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.DeleteResponse{Status: "success", Deleted: deleted})
}

// readCoverUpload extracts the optional cover image from a multipart
// form. A request without the field is fine; a broken upload is not.
func readCoverUpload(c *gin.Context) (*service.ImageUpload, error) {
	fileHeader, err := c.FormFile("image_data")
	if err != nil {
		// JSON bodies and multipart forms without the field are fine;
		// a broken multipart body is not
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, apperrors.InvalidInput("image", "unreadable image upload")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, apperrors.InvalidInput("image", "unreadable image upload")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apperrors.InvalidInput("image", "unreadable image upload")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return &service.ImageUpload{Data: data, ContentType: contentType}, nil
}
