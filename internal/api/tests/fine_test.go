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

// borrowForFine sets up a user with an open loan and returns the transaction.
func borrowForFine(t *testing.T, tc *testutils.TestContext, username, title string) *models.Transaction {
	testutils.CreateTestUser(t, tc.Repo, username, "user")
	author := testutils.SeedAuthor(t, tc.Repo, "Fine", "Author")
	book := testutils.SeedBook(t, tc.Repo, title, author.ID, 1)

	req := models.BorrowRequest{Username: username, BookID: book.ID}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/books/borrowBook", req, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var borrow models.BorrowResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &borrow))
	return borrow.Transaction
}

func TestCreateAndPayFine(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	txn := borrowForFine(t, tc, "debtor1", "Overdue Classic")

	req := models.CreateFineRequest{TransactionID: txn.ID}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/fines/create-fine", req, testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusCreated, w.Code)

	var fine models.Fine
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &fine))
	assert.Equal(t, "debtor1", fine.Username)
	assert.Equal(t, models.FineAmount, fine.Amount)
	assert.Equal(t, models.FineStatusUnpaid, fine.Status)
	assert.Nil(t, fine.PaidDate)

	path := fmt.Sprintf("/api/fines/update/%d", fine.ID)
	w = testutils.PerformRequest(tc.Router, "POST", path, nil, testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusOK, w.Code)

	var paid models.Fine
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &paid))
	assert.Equal(t, models.FineStatusPaid, paid.Status)
	assert.NotNil(t, paid.PaidDate)
}

func TestPayFineTwice(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	txn := borrowForFine(t, tc, "debtor2", "Overdue Twice")

	req := models.CreateFineRequest{TransactionID: txn.ID}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/fines/create-fine", req, testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusCreated, w.Code)

	var fine models.Fine
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &fine))

	path := fmt.Sprintf("/api/fines/update/%d", fine.ID)
	w = testutils.PerformRequest(tc.Router, "POST", path, nil, testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(tc.Router, "POST", path, nil, testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusConflict, w.Code)

	var errResp models.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "CONFLICT", errResp.Code)
}

func TestPayUnknownFine(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(tc.Router, "POST", "/api/fines/update/9999", nil, testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateFineForUnknownTransaction(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	req := models.CreateFineRequest{TransactionID: 9999}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/fines/create-fine", req, testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotificationListingAndReminder(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	txn := borrowForFine(t, tc, "debtor3", "Reminded Book")

	// borrow already issued one reminder
	w := testutils.PerformRequest(tc.Router, "GET", "/api/notifications/byUser/debtor3", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var notifications []models.Notification
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &notifications))
	assert.Len(t, notifications, 1)

	// an admin can issue another one for the same transaction
	req := models.CreateNotificationRequest{TransactionID: txn.ID}
	w = testutils.PerformRequest(tc.Router, "POST", "/api/notifications/create-notification", req, testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = testutils.PerformRequest(tc.Router, "GET", "/api/notifications/byUser/debtor3", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &notifications))
	assert.Len(t, notifications, 2)
}
