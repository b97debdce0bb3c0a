package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/lmehdi/libraryms-server/internal/api/testutils"
	"github.com/lmehdi/libraryms-server/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestBorrowAndReturnLifecycle(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	testutils.CreateTestUser(t, tc.Repo, "borrower1", "user")
	author := testutils.SeedAuthor(t, tc.Repo, "Ursula", "Le Guin")
	book := testutils.SeedBook(t, tc.Repo, "The Dispossessed", author.ID, 2)

	req := models.BorrowRequest{Username: "borrower1", BookID: book.ID}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/books/borrowBook", req, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var borrow models.BorrowResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &borrow))
	assert.Equal(t, "success", borrow.Status)
	assert.True(t, borrow.IsBorrowed)
	assert.NotNil(t, borrow.Transaction)
	assert.Nil(t, borrow.Transaction.ReturnDate)

	// issue date now, due date one month out
	assert.WithinDuration(t, time.Now().UTC(), borrow.Transaction.IssueDate, 5*time.Second)
	assert.WithinDuration(t, borrow.Transaction.IssueDate.AddDate(0, 1, 0), borrow.Transaction.DueDate, time.Second)

	// one copy consumed
	stored, err := tc.Repo.GetBook(context.Background(), book.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, stored.Quantity)
	assert.Equal(t, models.BookStatusAvailable, stored.Status)

	// a reminder was issued alongside the loan
	notifications, err := tc.Repo.GetNotificationsByUser(context.Background(), "borrower1")
	assert.NoError(t, err)
	if assert.Len(t, notifications, 1) {
		assert.Equal(t, book.ID, notifications[0].BookID)
		assert.WithinDuration(t, borrow.Transaction.IssueDate.AddDate(0, 0, 14), notifications[0].ReminderDate, time.Second)
		assert.Contains(t, notifications[0].Message, "The Dispossessed")
	}

	w = testutils.PerformRequest(tc.Router, "POST", "/api/books/returnBook", req, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var ret models.BorrowResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &ret))
	assert.False(t, ret.IsBorrowed)
	assert.NotNil(t, ret.Transaction.ReturnDate)

	stored, err = tc.Repo.GetBook(context.Background(), book.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, stored.Quantity)
}

func TestBorrowUnknownBook(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	testutils.CreateTestUser(t, tc.Repo, "borrower2", "user")

	req := models.BorrowRequest{Username: "borrower2", BookID: 9999}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/books/borrowBook", req, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBorrowUnknownUser(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	author := testutils.SeedAuthor(t, tc.Repo, "Iain", "Banks")
	book := testutils.SeedBook(t, tc.Repo, "Excession", author.ID, 1)

	req := models.BorrowRequest{Username: "nosuchuser", BookID: book.ID}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/books/borrowBook", req, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBorrowSameBookTwice(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	testutils.CreateTestUser(t, tc.Repo, "borrower3", "user")
	author := testutils.SeedAuthor(t, tc.Repo, "Ann", "Leckie")
	book := testutils.SeedBook(t, tc.Repo, "Ancillary Justice", author.ID, 3)

	req := models.BorrowRequest{Username: "borrower3", BookID: book.ID}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/books/borrowBook", req, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(tc.Router, "POST", "/api/books/borrowBook", req, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var errResp models.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "CONFLICT", errResp.Code)

	// only the first borrow consumed a copy
	stored, err := tc.Repo.GetBook(context.Background(), book.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, stored.Quantity)

	// returning once makes the book borrowable again
	w = testutils.PerformRequest(tc.Router, "POST", "/api/books/returnBook", req, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = testutils.PerformRequest(tc.Router, "POST", "/api/books/borrowBook", req, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBorrowLastCopyMarksUnavailable(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	testutils.CreateTestUser(t, tc.Repo, "borrower4", "user")
	testutils.CreateTestUser(t, tc.Repo, "borrower5", "user")
	author := testutils.SeedAuthor(t, tc.Repo, "Mary", "Shelley")
	book := testutils.SeedBook(t, tc.Repo, "Frankenstein", author.ID, 1)

	req := models.BorrowRequest{Username: "borrower4", BookID: book.ID}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/books/borrowBook", req, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	stored, err := tc.Repo.GetBook(context.Background(), book.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, stored.Quantity)
	assert.Equal(t, models.BookStatusUnavailable, stored.Status)

	// no copies left for anyone else
	other := models.BorrowRequest{Username: "borrower5", BookID: book.ID}
	w = testutils.PerformRequest(tc.Router, "POST", "/api/books/borrowBook", other, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// return restores the count but not the status label
	w = testutils.PerformRequest(tc.Router, "POST", "/api/books/returnBook", req, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	stored, err = tc.Repo.GetBook(context.Background(), book.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, stored.Quantity)
	assert.Equal(t, models.BookStatusUnavailable, stored.Status)
}

func TestReturnWithoutActiveBorrow(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	testutils.CreateTestUser(t, tc.Repo, "borrower6", "user")
	author := testutils.SeedAuthor(t, tc.Repo, "Jane", "Austen")
	book := testutils.SeedBook(t, tc.Repo, "Persuasion", author.ID, 1)

	req := models.BorrowRequest{Username: "borrower6", BookID: book.ID}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/books/returnBook", req, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var errResp models.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "CONFLICT", errResp.Code)
}

func TestForceReturnTransaction(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	testutils.CreateTestUser(t, tc.Repo, "borrower7", "user")
	author := testutils.SeedAuthor(t, tc.Repo, "Frank", "Herbert")
	book := testutils.SeedBook(t, tc.Repo, "Dune", author.ID, 1)

	req := models.BorrowRequest{Username: "borrower7", BookID: book.ID}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/books/borrowBook", req, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var borrow models.BorrowResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &borrow))

	path := fmt.Sprintf("/api/transactions/update/%d", borrow.Transaction.ID)
	w = testutils.PerformRequest(tc.Router, "POST", path, nil, testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusOK, w.Code)

	var closed models.Transaction
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &closed))
	assert.NotNil(t, closed.ReturnDate)

	stored, err := tc.Repo.GetBook(context.Background(), book.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, stored.Quantity)

	// closing it again is rejected
	w = testutils.PerformRequest(tc.Router, "POST", path, nil, testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusConflict, w.Code)

	// unknown transaction
	w = testutils.PerformRequest(tc.Router, "POST", "/api/transactions/update/9999", nil, testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBorrowedByUserListing(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	testutils.CreateTestUser(t, tc.Repo, "borrower8", "user")
	author := testutils.SeedAuthor(t, tc.Repo, "Octavia", "Butler")
	first := testutils.SeedBook(t, tc.Repo, "Kindred", author.ID, 1)
	second := testutils.SeedBook(t, tc.Repo, "Dawn", author.ID, 1)

	for _, id := range []int64{first.ID, second.ID} {
		req := models.BorrowRequest{Username: "borrower8", BookID: id}
		w := testutils.PerformRequest(tc.Router, "POST", "/api/books/borrowBook", req, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	req := models.BorrowRequest{Username: "borrower8", BookID: first.ID}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/books/returnBook", req, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(tc.Router, "GET", "/api/transactions/byUsername/borrower8", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var open []models.Transaction
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &open))
	if assert.Len(t, open, 1) {
		assert.Equal(t, second.ID, open[0].BookID)
	}
}
