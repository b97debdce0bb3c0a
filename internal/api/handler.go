package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lmehdi/libraryms-server/internal/apperrors"
	"github.com/lmehdi/libraryms-server/internal/models"
	"github.com/lmehdi/libraryms-server/internal/notify"
	"github.com/lmehdi/libraryms-server/internal/service"
	"github.com/lmehdi/libraryms-server/internal/utils"
)

// Handler wires the HTTP routes to the service layer
type Handler struct {
	svc      service.Service
	logger   *utils.Logger
	notifier notify.Notifier
}

// NewHandler creates a new API handler
func NewHandler(svc service.Service, logger *utils.Logger, notifier notify.Notifier) *Handler {
	return &Handler{
		svc:      svc,
		logger:   logger,
		notifier: notifier,
	}
}

// SetupRoutes registers all API routes on the router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")

	// Public surface
	api.POST("/users/signup", h.SignUp)
	api.POST("/users/login", h.Login)

	api.GET("/books", h.GetAllBooks)
	api.GET("/books/search", h.SearchBooks)
	api.GET("/books/details/:id", h.GetBookDetails)
	api.POST("/books/borrowBook", h.BorrowBook)
	api.POST("/books/returnBook", h.ReturnBook)

	api.GET("/authors", h.GetAllAuthors)
	api.GET("/authors/:id", h.GetAuthor)
	api.GET("/genres", h.GetAllGenres)
	api.GET("/genres/:id", h.GetGenre)

	api.GET("/comments/byBook/:book_id", h.GetCommentsByBook)
	api.POST("/comments", h.CreateComment)

	api.GET("/images/:id", h.GetImage)

	api.GET("/notifications/byUser/:username", h.GetNotificationsByUser)
	api.GET("/transactions/byUsername/:username", h.GetBorrowedByUser)

	// Administrative surface
	admin := api.Group("", AuthMiddleware())

	admin.GET("/users", h.GetAllUsers)
	admin.GET("/users/:username", h.GetUser)
	admin.POST("/users/update/:username", h.UpdateUser)
	admin.GET("/users/delete/:username", h.DeleteUser)

	admin.POST("/authors", h.CreateAuthor)
	admin.POST("/authors/update/:id", h.UpdateAuthor)
	admin.GET("/authors/delete/:id", h.DeleteAuthor)

	admin.POST("/genres", h.CreateGenre)
	admin.POST("/genres/update/:id", h.UpdateGenre)
	admin.GET("/genres/delete/:id", h.DeleteGenre)

	admin.POST("/books/create-book", h.CreateBook)
	admin.POST("/books/update/:id", h.UpdateBook)
	admin.GET("/books/delete/:id", h.DeleteBook)

	admin.GET("/comments/delete/:id", h.DeleteComment)

	admin.GET("/images", h.GetAllImages)
	admin.POST("/images/upload", h.UploadImage)
	admin.GET("/images/delete/:id", h.DeleteImage)

	admin.GET("/transactions", h.GetAllTransactions)
	admin.GET("/transactions/:id", h.GetTransaction)
	admin.POST("/transactions/create-transaction", h.CreateTransaction)
	admin.POST("/transactions/update/:id", h.ForceReturnTransaction)
	admin.GET("/transactions/delete/:id", h.DeleteTransaction)

	admin.GET("/notifications", h.GetAllNotifications)
	admin.GET("/notifications/:id", h.GetNotification)
	admin.POST("/notifications/create-notification", h.CreateReminder)
	admin.GET("/notifications/delete/:id", h.DeleteNotification)

	admin.GET("/fines", h.GetAllFines)
	admin.GET("/fines/:id", h.GetFine)
	admin.POST("/fines/create-fine", h.CreateFine)
	admin.POST("/fines/update/:id", h.PayFine)
	admin.GET("/fines/delete/:id", h.DeleteFine)
}

// respondError translates a service error into an HTTP response using
// the error kind, with per-endpoint overrides applied by the caller.
func (h *Handler) respondError(c *gin.Context, err error) {
	h.respondErrorStatus(c, err, statusForKind(apperrors.KindOf(err)))
}

func (h *Handler) respondErrorStatus(c *gin.Context, err error, status int) {
	kind := apperrors.KindOf(err)

	message := err.Error()
	if kind == apperrors.KindInternal {
		h.logger.Error("request %v failed: %v", c.GetString("requestId"), err)
		message = "Internal server error"
	}

	c.JSON(status, models.ErrorResponse{
		Status:  "error",
		Code:    kind.String(),
		Message: message,
	})
}

func statusForKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status:  "error",
			Code:    apperrors.KindInvalidInput.String(),
			Message: "invalid " + name,
		})
		return 0, false
	}
	return id, true
}
