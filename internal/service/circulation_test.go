package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lmehdi/libraryms-server/internal/apperrors"
	"github.com/lmehdi/libraryms-server/internal/models"
	"github.com/lmehdi/libraryms-server/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (Service, repository.Repository) {
	repo := repository.NewMemoryRepository()
	svc := NewDefaultService(repo, "test-secret")
	return svc, repo
}

func seedUser(t *testing.T, repo repository.Repository, username string) {
	err := repo.CreateUser(context.Background(), &models.User{
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		Email:     username + "@example.com",
		Role:      "user",
	})
	require.NoError(t, err)
}

func seedBook(t *testing.T, repo repository.Repository, title string, quantity int) *models.Book {
	author := &models.Author{FirstName: "Some", LastName: "Author"}
	require.NoError(t, repo.CreateAuthor(context.Background(), author))

	book := &models.Book{
		Title:    title,
		ISBN:     "isbn-" + title,
		Status:   models.BookStatusAvailable,
		Quantity: quantity,
		AuthorID: author.ID,
	}
	require.NoError(t, repo.CreateBook(context.Background(), book, nil))
	return book
}

func TestBorrowDecrementsOnce(t *testing.T) {
	svc, repo := newTestService(t)
	seedUser(t, repo, "alice")
	book := seedBook(t, repo, "Solaris", 3)

	resp, err := svc.BorrowBook(context.Background(), models.BorrowRequest{Username: "alice", BookID: book.ID})
	require.NoError(t, err)
	assert.True(t, resp.IsBorrowed)

	stored, err := repo.GetBook(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Quantity)
}

func TestBorrowDueDateOneMonthOut(t *testing.T) {
	svc, repo := newTestService(t)
	seedUser(t, repo, "bob")
	book := seedBook(t, repo, "Roadside Picnic", 1)

	resp, err := svc.BorrowBook(context.Background(), models.BorrowRequest{Username: "bob", BookID: book.ID})
	require.NoError(t, err)

	txn := resp.Transaction
	assert.WithinDuration(t, txn.IssueDate.AddDate(0, 1, 0), txn.DueDate, time.Second)
}

func TestBorrowPreconditionOrder(t *testing.T) {
	svc, repo := newTestService(t)
	seedUser(t, repo, "carol")
	book := seedBook(t, repo, "Annihilation", 0)

	// unknown book wins over unknown user
	_, err := svc.BorrowBook(context.Background(), models.BorrowRequest{Username: "nobody", BookID: 9999})
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	assert.Equal(t, "book", apperrors.EntityOf(err))

	// empty shelf wins over unknown user
	_, err = svc.BorrowBook(context.Background(), models.BorrowRequest{Username: "nobody", BookID: book.ID})
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.Equal(t, "book", apperrors.EntityOf(err))

	// with copies present, the user check fires
	available := seedBook(t, repo, "Authority", 1)
	_, err = svc.BorrowBook(context.Background(), models.BorrowRequest{Username: "nobody", BookID: available.ID})
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	assert.Equal(t, "user", apperrors.EntityOf(err))

	// finally the duplicate-loan check
	_, err = svc.BorrowBook(context.Background(), models.BorrowRequest{Username: "carol", BookID: available.ID})
	require.NoError(t, err)
	_, err = svc.BorrowBook(context.Background(), models.BorrowRequest{Username: "carol", BookID: available.ID})
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.Equal(t, "transaction", apperrors.EntityOf(err))
}

func TestReturnThenBorrowAgain(t *testing.T) {
	svc, repo := newTestService(t)
	seedUser(t, repo, "dave")
	book := seedBook(t, repo, "Hyperion", 1)

	req := models.BorrowRequest{Username: "dave", BookID: book.ID}

	_, err := svc.BorrowBook(context.Background(), req)
	require.NoError(t, err)

	resp, err := svc.ReturnBook(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.IsBorrowed)
	assert.NotNil(t, resp.Transaction.ReturnDate)

	_, err = svc.BorrowBook(context.Background(), req)
	assert.NoError(t, err)
}

func TestReturnWithoutLoan(t *testing.T) {
	svc, repo := newTestService(t)
	seedUser(t, repo, "erin")
	book := seedBook(t, repo, "Blindsight", 1)

	_, err := svc.ReturnBook(context.Background(), models.BorrowRequest{Username: "erin", BookID: book.ID})
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestStatusFlipsAtZeroAndStays(t *testing.T) {
	svc, repo := newTestService(t)
	seedUser(t, repo, "frank")
	book := seedBook(t, repo, "Neuromancer", 1)

	req := models.BorrowRequest{Username: "frank", BookID: book.ID}

	_, err := svc.BorrowBook(context.Background(), req)
	require.NoError(t, err)

	stored, err := repo.GetBook(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Quantity)
	assert.Equal(t, models.BookStatusUnavailable, stored.Status)

	_, err = svc.ReturnBook(context.Background(), req)
	require.NoError(t, err)

	// the label stays until an admin edits the book
	stored, err = repo.GetBook(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Quantity)
	assert.Equal(t, models.BookStatusUnavailable, stored.Status)
}

func TestConcurrentBorrowNeverOversells(t *testing.T) {
	svc, repo := newTestService(t)

	const copies = 5
	const contenders = 20

	book := seedBook(t, repo, "Contended Title", copies)
	for i := 0; i < contenders; i++ {
		seedUser(t, repo, fmt.Sprintf("reader%02d", i))
	}

	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.BorrowBook(context.Background(), models.BorrowRequest{
				Username: fmt.Sprintf("reader%02d", i),
				BookID:   book.ID,
			})
		}(i)
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperrors.KindOf(err) == apperrors.KindConflict:
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, copies, succeeded)
	assert.Equal(t, contenders-copies, conflicted)

	stored, err := repo.GetBook(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Quantity)
	assert.Equal(t, models.BookStatusUnavailable, stored.Status)
}

func TestFinePaidExactlyOnce(t *testing.T) {
	svc, repo := newTestService(t)
	seedUser(t, repo, "grace")
	book := seedBook(t, repo, "Overdue Volume", 1)

	resp, err := svc.BorrowBook(context.Background(), models.BorrowRequest{Username: "grace", BookID: book.ID})
	require.NoError(t, err)

	fine, err := svc.CreateFine(context.Background(), models.CreateFineRequest{TransactionID: resp.Transaction.ID})
	require.NoError(t, err)
	assert.Equal(t, models.FineAmount, fine.Amount)
	assert.Equal(t, models.FineStatusUnpaid, fine.Status)

	const payers = 10
	var wg sync.WaitGroup
	errs := make([]error, payers)
	for i := 0; i < payers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.PayFine(context.Background(), fine.ID)
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	}
	assert.Equal(t, 1, succeeded)

	paid, err := svc.GetFine(context.Background(), fine.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FineStatusPaid, paid.Status)
	assert.NotNil(t, paid.PaidDate)
}

func TestReminderIssuedWithLoan(t *testing.T) {
	svc, repo := newTestService(t)
	seedUser(t, repo, "heidi")
	book := seedBook(t, repo, "The Left Hand of Darkness", 1)

	resp, err := svc.BorrowBook(context.Background(), models.BorrowRequest{Username: "heidi", BookID: book.ID})
	require.NoError(t, err)

	notifications, err := svc.GetNotificationsByUser(context.Background(), "heidi")
	require.NoError(t, err)
	require.Len(t, notifications, 1)

	reminder := notifications[0]
	assert.Equal(t, book.ID, reminder.BookID)
	assert.WithinDuration(t, resp.Transaction.IssueDate.AddDate(0, 0, 14), reminder.ReminderDate, time.Second)
	assert.Contains(t, reminder.Message, "The Left Hand of Darkness")
}
