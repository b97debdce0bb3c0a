package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lmehdi/libraryms-server/internal/api/testutils"
	"github.com/lmehdi/libraryms-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// performUpload posts a multipart body with the given file field content.
func performUpload(r http.Handler, path string, fileData []byte, headers map[string]string) *httptest.ResponseRecorder {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if fileData != nil {
		part, _ := writer.CreateFormFile("image_data", "cover.png")
		part.Write(fileData)
	}
	writer.Close()

	req, _ := http.NewRequest("POST", path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadAndFetchImage(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	data := []byte("not-really-a-png-but-stored-as-is")
	w := performUpload(tc.Router, "/api/images/upload", data, testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusCreated, w.Code)

	var image models.Image
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &image))
	assert.NotZero(t, image.ID)

	w = testutils.PerformRequest(tc.Router, "GET", fmt.Sprintf("/api/images/%d", image.ID), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, data, w.Body.Bytes())
}

func TestUploadImageWithoutFile(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	w := performUpload(tc.Router, "/api/images/upload", nil, testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadImageMalformedBody(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	req, _ := http.NewRequest("POST", "/api/images/upload", bytes.NewBufferString("not a multipart body"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=broken")
	for k, v := range testutils.AuthHeaders(tc.AdminJWT) {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	tc.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListImages(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	for _, name := range []string{"first", "second"} {
		w := performUpload(tc.Router, "/api/images/upload", []byte(name), testutils.AuthHeaders(tc.AdminJWT))
		assert.Equal(t, http.StatusCreated, w.Code)
	}

	w := testutils.PerformRequest(tc.Router, "GET", "/api/images", nil, testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusOK, w.Code)

	var images []models.Image
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &images))
	assert.Len(t, images, 2)
}

func TestDeleteImage(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	w := performUpload(tc.Router, "/api/images/upload", []byte("ephemeral"), testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusCreated, w.Code)

	var image models.Image
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &image))

	w = testutils.PerformRequest(tc.Router, "GET", fmt.Sprintf("/api/images/delete/%d", image.ID), nil, testutils.AuthHeaders(tc.AdminJWT))
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(tc.Router, "GET", fmt.Sprintf("/api/images/%d", image.ID), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
