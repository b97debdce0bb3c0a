package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/lmehdi/libraryms-server/internal/api/testutils"
	"github.com/lmehdi/libraryms-server/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSignUpAndLogin(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	signup := models.SignUpRequest{
		Username:  "reader1",
		FirstName: "Robin",
		LastName:  "Reader",
		Email:     "reader1@example.com",
		Password:  "supersecret",
	}

	w := testutils.PerformRequest(tc.Router, "POST", "/api/users/signup", signup, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	var created models.AuthResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "success", created.Status)
	assert.Equal(t, "reader1", created.Username)
	assert.Equal(t, "user", created.Role)

	login := models.LoginRequest{Username: "reader1", Password: "supersecret"}
	w = testutils.PerformRequest(tc.Router, "POST", "/api/users/login", login, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var auth models.AuthResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &auth))
	assert.NotEmpty(t, auth.Token)
}

func TestSignUpDuplicateUsername(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	signup := models.SignUpRequest{
		Username:  "reader2",
		FirstName: "Robin",
		LastName:  "Reader",
		Email:     "reader2@example.com",
		Password:  "supersecret",
	}

	w := testutils.PerformRequest(tc.Router, "POST", "/api/users/signup", signup, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = testutils.PerformRequest(tc.Router, "POST", "/api/users/signup", signup, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	login := models.LoginRequest{Username: "admin1", Password: "wrongpassword"}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/users/login", login, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(tc.Router, "GET", "/api/users", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutils.PerformRequest(tc.Router, "GET", "/api/users", nil, testutils.AuthHeaders("not-a-token"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutils.PerformRequest(tc.Router, "GET", "/api/users", nil, testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateAndDeleteUser(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	testutils.CreateTestUser(t, tc.Repo, "reader3", "user")

	update := models.UpdateUserRequest{
		FirstName: "Renamed",
		LastName:  "Reader",
		Email:     "reader3@example.com",
		Role:      "user",
	}
	w := testutils.PerformRequest(tc.Router, "POST", "/api/users/update/reader3", update, testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusOK, w.Code)

	var user models.User
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, "Renamed", user.FirstName)

	w = testutils.PerformRequest(tc.Router, "GET", "/api/users/delete/reader3", nil, testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(tc.Router, "GET", "/api/users/reader3", nil, testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
