package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/lmehdi/libraryms-server/internal/api/testutils"
	"github.com/lmehdi/libraryms-server/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestAuthorCRUD(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	req := models.AuthorRequest{FirstName: "Terry", LastName: "Pratchett"}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/authors", req, testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusCreated, w.Code)

	var author models.Author
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &author))
	assert.NotZero(t, author.ID)

	w = testutils.PerformRequest(tc.Router, "GET", fmt.Sprintf("/api/authors/%d", author.ID), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	update := models.AuthorRequest{FirstName: "Terence", LastName: "Pratchett"}
	w = testutils.PerformRequest(tc.Router, "POST", fmt.Sprintf("/api/authors/update/%d", author.ID), update, testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.Author
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Terence", updated.FirstName)

	w = testutils.PerformRequest(tc.Router, "GET", fmt.Sprintf("/api/authors/delete/%d", author.ID), nil, testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(tc.Router, "GET", fmt.Sprintf("/api/authors/%d", author.ID), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenreCRUD(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	req := models.GenreRequest{Type: "Fantasy"}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/genres", req, testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusCreated, w.Code)

	var genre models.Genre
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &genre))

	w = testutils.PerformRequest(tc.Router, "GET", "/api/genres", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var genres []models.Genre
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &genres))
	assert.Len(t, genres, 1)

	w = testutils.PerformRequest(tc.Router, "GET", fmt.Sprintf("/api/genres/delete/%d", genre.ID), nil, testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateBookAndDetails(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	testutils.CreateTestUser(t, tc.Repo, "reader9", "user")
	author := testutils.SeedAuthor(t, tc.Repo, "Susanna", "Clarke")

	req := models.CreateBookRequest{
		Title:         "Piranesi",
		ISBN:          "978-1526622426",
		Publisher:     "Bloomsbury",
		PublishedYear: 2020,
		Quantity:      2,
		AuthorID:      author.ID,
	}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/books/create-book", req, testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusCreated, w.Code)

	var book models.Book
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &book))
	assert.Equal(t, models.BookStatusAvailable, book.Status)

	// duplicate title is rejected
	w = testutils.PerformRequest(tc.Router, "POST", "/api/books/create-book", req, testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusConflict, w.Code)

	// details without a viewer
	w = testutils.PerformRequest(tc.Router, "GET", fmt.Sprintf("/api/books/details/%d", book.ID), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var details models.BookDetailResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &details))
	assert.False(t, details.IsBorrowed)
	assert.Equal(t, "Piranesi", details.Book.Title)

	// details reflect the viewer's open loan
	borrow := models.BorrowRequest{Username: "reader9", BookID: book.ID}
	w = testutils.PerformRequest(tc.Router, "POST", "/api/books/borrowBook", borrow, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(tc.Router, "GET", fmt.Sprintf("/api/books/details/%d?username=reader9", book.ID), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &details))
	assert.True(t, details.IsBorrowed)
}

func TestSearchBooks(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	author := testutils.SeedAuthor(t, tc.Repo, "China", "Mieville")
	testutils.SeedBook(t, tc.Repo, "The City and the City", author.ID, 1)
	testutils.SeedBook(t, tc.Repo, "Embassytown", author.ID, 1)

	w := testutils.PerformRequest(tc.Router, "GET", "/api/books/search?q=city", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var books []models.Book
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &books))
	assert.Len(t, books, 1)

	// an empty term is rejected rather than returning everything
	w = testutils.PerformRequest(tc.Router, "GET", "/api/books/search", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommentsOnBook(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	testutils.CreateTestUser(t, tc.Repo, "reader10", "user")
	author := testutils.SeedAuthor(t, tc.Repo, "Emily", "Bronte")
	book := testutils.SeedBook(t, tc.Repo, "Wuthering Heights", author.ID, 1)

	req := models.CommentRequest{
		BookID:      book.ID,
		Username:    "reader10",
		Rating:      5,
		Description: "Bleak and brilliant",
	}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/comments", req, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = testutils.PerformRequest(tc.Router, "GET", fmt.Sprintf("/api/comments/byBook/%d", book.ID), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var comments []models.Comment
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &comments))
	if assert.Len(t, comments, 1) {
		assert.Equal(t, "Bleak and brilliant", comments[0].Description)
	}
}
