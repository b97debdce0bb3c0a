package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lmehdi/libraryms-server/internal/apperrors"
	"github.com/lmehdi/libraryms-server/internal/models"
	"github.com/lmehdi/libraryms-server/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// ImageUpload carries a decoded multipart cover upload.
type ImageUpload struct {
	Data        []byte
	ContentType string
}

// Service defines all the business logic operations
type Service interface {
	// Authentication and users
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	GetAllUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, username string, req models.UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, username string) (bool, error)

	// Authors
	CreateAuthor(ctx context.Context, req models.AuthorRequest) (*models.Author, error)
	GetAuthor(ctx context.Context, id int64) (*models.Author, error)
	GetAllAuthors(ctx context.Context) ([]models.Author, error)
	UpdateAuthor(ctx context.Context, id int64, req models.AuthorRequest) (*models.Author, error)
	DeleteAuthor(ctx context.Context, id int64) (bool, error)

	// Genres
	CreateGenre(ctx context.Context, req models.GenreRequest) (*models.Genre, error)
	GetGenre(ctx context.Context, id int64) (*models.Genre, error)
	GetAllGenres(ctx context.Context) ([]models.Genre, error)
	UpdateGenre(ctx context.Context, id int64, req models.GenreRequest) (*models.Genre, error)
	DeleteGenre(ctx context.Context, id int64) (bool, error)

	// Books and catalog
	CreateBook(ctx context.Context, req models.CreateBookRequest, cover *ImageUpload) (*models.Book, error)
	GetBookDetails(ctx context.Context, id int64, username string) (*models.BookDetailResponse, error)
	GetAllBooks(ctx context.Context) ([]models.Book, error)
	UpdateBook(ctx context.Context, id int64, req models.CreateBookRequest, cover *ImageUpload) (*models.Book, error)
	DeleteBook(ctx context.Context, id int64) (bool, error)
	SearchBooks(ctx context.Context, keyword string) ([]models.Book, error)

	// Images
	UploadImage(ctx context.Context, upload ImageUpload) (*models.Image, error)
	GetImage(ctx context.Context, id int64) (*models.Image, error)
	GetAllImages(ctx context.Context) ([]models.Image, error)
	DeleteImage(ctx context.Context, id int64) (bool, error)

	// Comments
	CreateComment(ctx context.Context, req models.CommentRequest) (*models.Comment, error)
	GetCommentsByBook(ctx context.Context, bookID int64) ([]models.Comment, error)
	DeleteComment(ctx context.Context, id int64) (bool, error)

	// Circulation
	BorrowBook(ctx context.Context, req models.BorrowRequest) (*models.BorrowResponse, error)
	ReturnBook(ctx context.Context, req models.BorrowRequest) (*models.BorrowResponse, error)
	CreateTransaction(ctx context.Context, req models.CreateTransactionRequest) (*models.Transaction, error)
	GetAllTransactions(ctx context.Context) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (*models.Transaction, error)
	GetBorrowedByUser(ctx context.Context, username string) ([]models.Transaction, error)
	ForceReturnTransaction(ctx context.Context, id int64) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) (bool, error)

	// Notifications
	CreateReminder(ctx context.Context, req models.CreateNotificationRequest) (*models.Notification, error)
	GetAllNotifications(ctx context.Context) ([]models.Notification, error)
	GetNotification(ctx context.Context, id int64) (*models.Notification, error)
	GetNotificationsByUser(ctx context.Context, username string) ([]models.Notification, error)
	DeleteNotification(ctx context.Context, id int64) (bool, error)

	// Fines
	CreateFine(ctx context.Context, req models.CreateFineRequest) (*models.Fine, error)
	GetAllFines(ctx context.Context) ([]models.Fine, error)
	GetFine(ctx context.Context, id int64) (*models.Fine, error)
	PayFine(ctx context.Context, id int64) (*models.Fine, error)
	DeleteFine(ctx context.Context, id int64) (bool, error)
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo          repository.Repository
	jwtSecret     []byte
	tokenDuration time.Duration
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, jwtSecret string) Service {
	return &DefaultService{
		repo:          repo,
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: 24 * time.Hour, // 24 hours token validity
	}
}

// Authentication methods
func (s *DefaultService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error) {
	// Check if user already exists
	existingUser, err := s.repo.GetUser(ctx, req.Username)
	if err != nil {
		return nil, internal("error checking user existence", err)
	}

	if existingUser != nil {
		return nil, apperrors.Conflict("user", req.Username, "username is already taken")
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internal("error hashing password", err)
	}

	role := req.Role
	if role == "" {
		role = "user"
	}

	user := &models.User{
		Username:    req.Username,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		Role:        role,
		Password:    string(hashedPassword),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, internal("error creating user", err)
	}

	return &models.AuthResponse{
		Status:   "success",
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}, nil
}

func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.repo.GetUser(ctx, req.Username)
	if err != nil {
		return nil, internal("error getting user", err)
	}

	if user == nil {
		return nil, apperrors.InvalidInput("user", "invalid username or password")
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperrors.InvalidInput("user", "invalid username or password")
	}

	// Generate JWT token
	token, err := s.generateJWT(user)
	if err != nil {
		return nil, internal("error generating token", err)
	}

	return &models.AuthResponse{
		Status:    "success",
		Username:  user.Username,
		Role:      user.Role,
		Token:     token,
		ExpiresIn: int(s.tokenDuration.Seconds()),
	}, nil
}

// User methods
func (s *DefaultService) GetAllUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.GetAllUsers(ctx)
	if err != nil {
		return nil, internal("error getting users", err)
	}
	return users, nil
}

func (s *DefaultService) GetUser(ctx context.Context, username string) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, username)
	if err != nil {
		return nil, internal("error getting user", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("user", username)
	}
	return user, nil
}

func (s *DefaultService) UpdateUser(ctx context.Context, username string, req models.UpdateUserRequest) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, username)
	if err != nil {
		return nil, internal("error getting user", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("user", username)
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Email = req.Email
	user.PhoneNumber = req.PhoneNumber
	user.Address = req.Address
	user.Role = req.Role

	updated, err := s.repo.UpdateUser(ctx, user)
	if err != nil {
		return nil, internal("error updating user", err)
	}
	if !updated {
		return nil, apperrors.NotFound("user", username)
	}

	return user, nil
}

func (s *DefaultService) DeleteUser(ctx context.Context, username string) (bool, error) {
	deleted, err := s.repo.DeleteUser(ctx, username)
	if err != nil {
		return false, internal("error deleting user", err)
	}
	return deleted, nil
}

// Helper methods
func (s *DefaultService) generateJWT(user *models.User) (string, error) {
	expirationTime := time.Now().Add(s.tokenDuration)

	claims := jwt.MapClaims{
		"sub":  user.Username, // subject
		"role": user.Role,
		"exp":  expirationTime.Unix(),
		"iat":  time.Now().Unix(), // issued at
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// internal wraps an unexpected failure with context for the log while
// keeping the KindInternal tag for the boundary.
func internal(msg string, err error) error {
	return apperrors.Internal(fmt.Errorf("%s: %w", msg, err))
}
