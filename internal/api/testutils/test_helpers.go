package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lmehdi/libraryms-server/internal/api"
	"github.com/lmehdi/libraryms-server/internal/models"
	"github.com/lmehdi/libraryms-server/internal/notify"
	"github.com/lmehdi/libraryms-server/internal/repository"
	"github.com/lmehdi/libraryms-server/internal/service"
	"github.com/lmehdi/libraryms-server/internal/utils"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret-key"

// TestContext holds all dependencies for tests
type TestContext struct {
	Router    *gin.Engine
	Repo      repository.Repository
	Service   service.Service
	JWTSecret []byte
	AdminJWT  string
}

// SetupTestContext builds a router backed by the in-memory repository,
// with an admin user already registered and a signed token for it.
func SetupTestContext(t *testing.T) *TestContext {
	repo := repository.NewMemoryRepository()
	svc := service.NewDefaultService(repo, testJWTSecret)
	handler := api.NewHandler(svc, utils.NewLogger(), notify.NopNotifier{})

	gin.SetMode(gin.TestMode)
	router := gin.New()

	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(testJWTSecret))
		c.Next()
	})
	router.Use(api.RequestIDMiddleware())

	handler.SetupRoutes(router)

	token := CreateTestUser(t, repo, "admin1", "admin")

	return &TestContext{
		Router:    router,
		Repo:      repo,
		Service:   svc,
		JWTSecret: []byte(testJWTSecret),
		AdminJWT:  token,
	}
}

// CreateTestUser inserts a user directly and returns a signed token for it.
func CreateTestUser(t *testing.T, repo repository.Repository, username, role string) string {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("testpassword"), bcrypt.DefaultCost)

	user := &models.User{
		Username:         username,
		FirstName:        "Test",
		LastName:         "User",
		Email:            username + "@example.com",
		Role:             role,
		Password:         string(hashed),
		RegistrationDate: time.Now().UTC(),
		LastUpdatedAt:    time.Now().UTC(),
	}

	err := repo.CreateUser(context.Background(), user)
	assert.NoError(t, err, "Failed to create test user")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  username,
		"role": role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	})

	tokenString, err := token.SignedString([]byte(testJWTSecret))
	assert.NoError(t, err, "Failed to generate JWT token")

	return tokenString
}

// SeedAuthor inserts an author directly and returns it.
func SeedAuthor(t *testing.T, repo repository.Repository, first, last string) *models.Author {
	author := &models.Author{FirstName: first, LastName: last}
	err := repo.CreateAuthor(context.Background(), author)
	assert.NoError(t, err, "Failed to seed author")
	return author
}

// SeedBook inserts a book with the given quantity and returns it.
func SeedBook(t *testing.T, repo repository.Repository, title string, authorID int64, quantity int) *models.Book {
	book := &models.Book{
		Title:    title,
		ISBN:     fmt.Sprintf("isbn-%s", title),
		Status:   models.BookStatusAvailable,
		Quantity: quantity,
		AuthorID: authorID,
	}
	err := repo.CreateBook(context.Background(), book, nil)
	assert.NoError(t, err, "Failed to seed book")
	return book
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}
