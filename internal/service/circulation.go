package service

import (
	"context"
	"strconv"

	"github.com/lmehdi/libraryms-server/internal/apperrors"
	"github.com/lmehdi/libraryms-server/internal/models"
)

// BorrowBook runs the borrow composite: precondition validation (book
// exists, copies available, user exists, no open loan for the pair),
// transaction insert, inventory decrement and reminder issuance. The
// repository executes the whole sequence atomically.
func (s *DefaultService) BorrowBook(ctx context.Context, req models.BorrowRequest) (*models.BorrowResponse, error) {
	transaction, _, err := s.repo.BorrowBook(ctx, req.Username, req.BookID)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindInternal {
			return nil, internal("error borrowing book", err)
		}
		return nil, err
	}

	return &models.BorrowResponse{
		Status:      "success",
		Message:     "Book borrowed successfully",
		Transaction: transaction,
		IsBorrowed:  true,
	}, nil
}

// ReturnBook closes the open loan for the pair and restores the copy
// count.
func (s *DefaultService) ReturnBook(ctx context.Context, req models.BorrowRequest) (*models.BorrowResponse, error) {
	transaction, err := s.repo.ReturnBook(ctx, req.Username, req.BookID)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindInternal {
			return nil, internal("error returning book", err)
		}
		return nil, err
	}

	return &models.BorrowResponse{
		Status:      "success",
		Message:     "Book returned successfully",
		Transaction: transaction,
		IsBorrowed:  false,
	}, nil
}

// Transaction methods
func (s *DefaultService) CreateTransaction(ctx context.Context, req models.CreateTransactionRequest) (*models.Transaction, error) {
	transaction, err := s.repo.CreateTransaction(ctx, req.Username, req.BookID)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindInternal {
			return nil, internal("error creating transaction", err)
		}
		return nil, err
	}
	return transaction, nil
}

func (s *DefaultService) GetAllTransactions(ctx context.Context) ([]models.Transaction, error) {
	transactions, err := s.repo.GetAllTransactions(ctx)
	if err != nil {
		return nil, internal("error getting transactions", err)
	}
	return transactions, nil
}

func (s *DefaultService) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	transaction, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, internal("error getting transaction", err)
	}
	if transaction == nil {
		return nil, apperrors.NotFound("transaction", strconv.FormatInt(id, 10))
	}
	return transaction, nil
}

func (s *DefaultService) GetBorrowedByUser(ctx context.Context, username string) ([]models.Transaction, error) {
	transactions, err := s.repo.GetOpenTransactionsByUser(ctx, username)
	if err != nil {
		return nil, internal("error getting borrowed books", err)
	}
	return transactions, nil
}

// ForceReturnTransaction is the administrative return path keyed by
// transaction id. It restores the copy count like a regular return.
func (s *DefaultService) ForceReturnTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	transaction, err := s.repo.ForceReturnTransaction(ctx, id)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindInternal {
			return nil, internal("error updating transaction", err)
		}
		return nil, err
	}
	return transaction, nil
}

func (s *DefaultService) DeleteTransaction(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.repo.DeleteTransaction(ctx, id)
	if err != nil {
		return false, internal("error deleting transaction", err)
	}
	return deleted, nil
}

// Notification methods
func (s *DefaultService) CreateReminder(ctx context.Context, req models.CreateNotificationRequest) (*models.Notification, error) {
	notification, err := s.repo.CreateReminder(ctx, req.TransactionID)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindInternal {
			return nil, internal("error creating notification", err)
		}
		return nil, err
	}
	return notification, nil
}

func (s *DefaultService) GetAllNotifications(ctx context.Context) ([]models.Notification, error) {
	notifications, err := s.repo.GetAllNotifications(ctx)
	if err != nil {
		return nil, internal("error getting notifications", err)
	}
	return notifications, nil
}

func (s *DefaultService) GetNotification(ctx context.Context, id int64) (*models.Notification, error) {
	notification, err := s.repo.GetNotification(ctx, id)
	if err != nil {
		return nil, internal("error getting notification", err)
	}
	if notification == nil {
		return nil, apperrors.NotFound("notification", strconv.FormatInt(id, 10))
	}
	return notification, nil
}

func (s *DefaultService) GetNotificationsByUser(ctx context.Context, username string) ([]models.Notification, error) {
	notifications, err := s.repo.GetNotificationsByUser(ctx, username)
	if err != nil {
		return nil, internal("error getting notifications", err)
	}
	return notifications, nil
}

func (s *DefaultService) DeleteNotification(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.repo.DeleteNotification(ctx, id)
	if err != nil {
		return false, internal("error deleting notification", err)
	}
	return deleted, nil
}

// Fine methods
func (s *DefaultService) CreateFine(ctx context.Context, req models.CreateFineRequest) (*models.Fine, error) {
	fine, err := s.repo.CreateFine(ctx, req.TransactionID)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindInternal {
			return nil, internal("error creating fine", err)
		}
		return nil, err
	}
	return fine, nil
}

func (s *DefaultService) GetAllFines(ctx context.Context) ([]models.Fine, error) {
	fines, err := s.repo.GetAllFines(ctx)
	if err != nil {
		return nil, internal("error getting fines", err)
	}
	return fines, nil
}

func (s *DefaultService) GetFine(ctx context.Context, id int64) (*models.Fine, error) {
	fine, err := s.repo.GetFine(ctx, id)
	if err != nil {
		return nil, internal("error getting fine", err)
	}
	if fine == nil {
		return nil, apperrors.NotFound("fine", strconv.FormatInt(id, 10))
	}
	return fine, nil
}

// PayFine transitions a fine from unpaid to paid exactly once; a second
// payment attempt is rejected as a conflict.
func (s *DefaultService) PayFine(ctx context.Context, id int64) (*models.Fine, error) {
	fine, err := s.repo.PayFine(ctx, id)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindInternal {
			return nil, internal("error paying fine", err)
		}
		return nil, err
	}
	return fine, nil
}

func (s *DefaultService) DeleteFine(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.repo.DeleteFine(ctx, id)
	if err != nil {
		return false, internal("error deleting fine", err)
	}
	return deleted, nil
}
