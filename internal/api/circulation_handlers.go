package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lmehdi/libraryms-server/internal/apperrors"
	"github.com/lmehdi/libraryms-server/internal/models"
	"github.com/lmehdi/libraryms-server/internal/notify"
)

// BorrowBook checks out a copy for a member. Missing books answer 409
// rather than 404 so the client can tell a stale catalog entry from a
// mistyped username.
func (h *Handler) BorrowBook(c *gin.Context) {
	var req models.BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.InvalidInput("borrow", err.Error()))
		return
	}

	resp, err := h.svc.BorrowBook(c.Request.Context(), req)
	if err != nil {
		h.notifier.Notify(notify.Event{
			Title:   "Transaction Management",
			Message: fmt.Sprintf("Borrow failed for %s: %v", req.Username, err),
		})
		switch apperrors.KindOf(err) {
		case apperrors.KindNotFound:
			if apperrors.EntityOf(err) == "book" {
				h.respondErrorStatus(c, err, http.StatusConflict)
				return
			}
			h.respondErrorStatus(c, err, http.StatusNotFound)
		case apperrors.KindConflict:
			h.respondErrorStatus(c, err, http.StatusBadRequest)
		default:
			h.respondError(c, err)
		}
		return
	}

	h.notifier.Notify(notify.Event{
		Title:   "Transaction Management",
		Message: fmt.Sprintf("%s borrowed book %d", req.Username, req.BookID),
	})
	c.JSON(http.StatusOK, resp)
}

// ReturnBook closes the member's open transaction for the book.
func (h *Handler) ReturnBook(c *gin.Context) {
	var req models.BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.InvalidInput("return", err.Error()))
		return
	}

	resp, err := h.svc.ReturnBook(c.Request.Context(), req)
	if err != nil {
		h.notifier.Notify(notify.Event{
			Title:   "Transaction Management",
			Message: fmt.Sprintf("Return failed for %s: %v", req.Username, err),
		})
		if apperrors.KindOf(err) == apperrors.KindConflict {
			h.respondErrorStatus(c, err, http.StatusBadRequest)
			return
		}
		h.respondError(c, err)
		return
	}

	h.notifier.Notify(notify.Event{
		Title:   "Transaction Management",
		Message: fmt.Sprintf("%s returned book %d", req.Username, req.BookID),
	})
	c.JSON(http.StatusOK, resp)
}

// Transaction handlers
func (h *Handler) CreateTransaction(c *gin.Context) {
	var req models.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.InvalidInput("transaction", err.Error()))
		return
	}

	txn, err := h.svc.CreateTransaction(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.notifier.Notify(notify.Event{
		Title:   "Transaction Management",
		Message: fmt.Sprintf("Transaction %d created for %s", txn.ID, txn.Username),
	})
	c.JSON(http.StatusCreated, txn)
}

func (h *Handler) GetAllTransactions(c *gin.Context) {
	txns, err := h.svc.GetAllTransactions(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, txns)
}

func (h *Handler) GetTransaction(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	txn, err := h.svc.GetTransaction(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, txn)
}

func (h *Handler) GetBorrowedByUser(c *gin.Context) {
	txns, err := h.svc.GetBorrowedByUser(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, txns)
}

// ForceReturnTransaction closes a transaction from the admin console,
// regardless of which member holds the book.
func (h *Handler) ForceReturnTransaction(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	txn, err := h.svc.ForceReturnTransaction(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.notifier.Notify(notify.Event{
		Title:   "Transaction Management",
		Message: fmt.Sprintf("Transaction %d closed by admin", id),
	})
	c.JSON(http.StatusOK, txn)
}

func (h *Handler) DeleteTransaction(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	deleted, err := h.svc.DeleteTransaction(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.notifier.Notify(notify.Event{
		Title:   "Transaction Management",
		Message: fmt.Sprintf("Transaction %d deleted", id),
	})
	c.JSON(http.StatusOK, models.DeleteResponse{Status: "success", Deleted: deleted})
}

// Notification handlers
func (h *Handler) CreateReminder(c *gin.Context) {
	var req models.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.InvalidInput("notification", err.Error()))
		return
	}

	notification, err := h.svc.CreateReminder(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, notification)
}

func (h *Handler) GetAllNotifications(c *gin.Context) {
	notifications, err := h.svc.GetAllNotifications(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, notifications)
}

func (h *Handler) GetNotification(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	notification, err := h.svc.GetNotification(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, notification)
}

func (h *Handler) GetNotificationsByUser(c *gin.Context) {
	notifications, err := h.svc.GetNotificationsByUser(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, notifications)
}

func (h *Handler) DeleteNotification(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	deleted, err := h.svc.DeleteNotification(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.DeleteResponse{Status: "success", Deleted: deleted})
}

// Fine handlers
func (h *Handler) CreateFine(c *gin.Context) {
	var req models.CreateFineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.InvalidInput("fine", err.Error()))
		return
	}

	fine, err := h.svc.CreateFine(c.Request.Context(), req)
	if err != nil {
		// a missing transaction is a client mistake here, not a 404
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			h.respondErrorStatus(c, err, http.StatusBadRequest)
			return
		}
		h.respondError(c, err)
		return
	}

	h.notifier.Notify(notify.Event{
		Title:   "Fine Management",
		Message: fmt.Sprintf("Fine %d issued to %s", fine.ID, fine.Username),
	})
	c.JSON(http.StatusCreated, fine)
}

func (h *Handler) GetAllFines(c *gin.Context) {
	fines, err := h.svc.GetAllFines(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, fines)
}

func (h *Handler) GetFine(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	fine, err := h.svc.GetFine(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, fine)
}

// PayFine marks a fine as paid. Both an unknown fine and a repeated
// payment come back as 409 so the client treats them the same way.
func (h *Handler) PayFine(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	fine, err := h.svc.PayFine(c.Request.Context(), id)
	if err != nil {
		switch apperrors.KindOf(err) {
		case apperrors.KindNotFound, apperrors.KindConflict:
			h.respondErrorStatus(c, err, http.StatusConflict)
		default:
			h.respondError(c, err)
		}
		return
	}

	h.notifier.Notify(notify.Event{
		Title:   "Fine Management",
		Message: fmt.Sprintf("Fine %d paid by %s", id, fine.Username),
	})
	c.JSON(http.StatusOK, fine)
}

func (h *Handler) DeleteFine(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	deleted, err := h.svc.DeleteFine(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.DeleteResponse{Status: "success", Deleted: deleted})
}
