package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/dom/socialpedia/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Register(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name           string
		request        map[string]string
		setup          func()
		expectedStatus int
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name: "successful registration",
			request: map[string]string{
				"firstName":  "Ada",
				"lastName":   "Lovelace",
				"email":      "Ada@Example.com",
				"password":   "analytical",
				"location":   "London",
				"occupation": "Mathematician",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var result map[string]interface{}
				testutil.AssertJSONResponse(t, resp, &result)
				assert.Equal(t, "ada@example.com", result["email"])
				assert.Equal(t, "Ada", result["firstName"])
				assert.Equal(t, []interface{}{}, result["friends"])
				assert.NotEmpty(t, result["_id"])
				assert.NotContains(t, result, "password")
				assert.NotContains(t, result, "PasswordHash")
			},
		},
		{
			name: "missing first name",
			request: map[string]string{
				"lastName": "Hopper",
				"email":    "grace@example.com",
				"password": "compiler",
			},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, resp *http.Response) {
				testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "firstName is required")
			},
		},
		{
			name: "password too short",
			request: map[string]string{
				"firstName": "Grace",
				"lastName":  "Hopper",
				"email":     "grace@example.com",
				"password":  "abc",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "password longer than bcrypt allows",
			request: map[string]string{
				"firstName": "Grace",
				"lastName":  "Hopper",
				"email":     "grace@example.com",
				"password":  strings.Repeat("a", 73),
			},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, resp *http.Response) {
				testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "password must be at most 72 bytes")
			},
		},
		{
			name: "malformed email",
			request: map[string]string{
				"firstName": "Grace",
				"lastName":  "Hopper",
				"email":     "grace.example.com",
				"password":  "compiler",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "duplicate email",
			request: map[string]string{
				"firstName": "Taken",
				"lastName":  "Again",
				"email":     "TAKEN@example.com",
				"password":  "password123",
			},
			setup: func() {
				testutil.NewUserBuilder().WithEmail("taken@example.com").Build(t, ts.Repos.User)
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}

			body, _ := json.Marshal(tt.request)
			resp, err := http.Post(ts.URL("/auth/register"), "application/json", bytes.NewBuffer(body))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestAuthHandler_Register_InvalidBody(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp, err := http.Post(ts.URL("/auth/register"), "application/json", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "Invalid request body")
}

func TestAuthHandler_Register_Multipart(t *testing.T) {
	ts := testutil.NewTestServer(t)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	fields := map[string]string{
		"firstName": "Linus",
		"lastName":  "Torvalds",
		"email":     "linus@example.com",
		"password":  "kernel",
		"location":  "Portland",
	}
	for k, v := range fields {
		require.NoError(t, form.WriteField(k, v))
	}
	part, err := form.CreateFormFile("picture", "penguin.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	resp, err := http.Post(ts.URL("/auth/register"), form.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result map[string]interface{}
	testutil.AssertJSONResponse(t, resp, &result)
	assert.Equal(t, "penguin.png", result["picturePath"])
	assert.Equal(t, "Portland", result["location"])

	asset, err := http.Get(ts.URL("/assets/penguin.png"))
	require.NoError(t, err)
	defer asset.Body.Close()

	assert.Equal(t, http.StatusOK, asset.StatusCode)
	data, err := io.ReadAll(asset.Body)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestAuthHandler_Register_MultipartRejectedKeepsMedia(t *testing.T) {
	ts := testutil.NewTestServer(t)

	testutil.NewUserBuilder().WithEmail("taken@example.com").Build(t, ts.Repos.User)
	_, err := ts.Media.Save(context.Background(), "existing.png", strings.NewReader("original"), "image/png")
	require.NoError(t, err)

	tests := []struct {
		name           string
		email          string
		password       string
		fileName       string
		expectedStatus int
		expectedAsset  int
		expectedBody   string
	}{
		{
			name:           "duplicate email stores nothing",
			email:          "taken@example.com",
			password:       "secret",
			fileName:       "duplicate.png",
			expectedStatus: http.StatusConflict,
			expectedAsset:  http.StatusNotFound,
		},
		{
			name:           "invalid password stores nothing",
			email:          "fresh@example.com",
			password:       "abc",
			fileName:       "invalid.png",
			expectedStatus: http.StatusBadRequest,
			expectedAsset:  http.StatusNotFound,
		},
		{
			name:           "duplicate email leaves same-named picture alone",
			email:          "taken@example.com",
			password:       "secret",
			fileName:       "existing.png",
			expectedStatus: http.StatusConflict,
			expectedAsset:  http.StatusOK,
			expectedBody:   "original",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			form := multipart.NewWriter(&buf)
			fields := map[string]string{
				"firstName": "Mallory",
				"lastName":  "Example",
				"email":     tt.email,
				"password":  tt.password,
			}
			for k, v := range fields {
				require.NoError(t, form.WriteField(k, v))
			}
			part, err := form.CreateFormFile("picture", tt.fileName)
			require.NoError(t, err)
			_, err = part.Write([]byte("replacement"))
			require.NoError(t, err)
			require.NoError(t, form.Close())

			resp, err := http.Post(ts.URL("/auth/register"), form.FormDataContentType(), &buf)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			asset, err := http.Get(ts.URL("/assets/" + tt.fileName))
			require.NoError(t, err)
			defer asset.Body.Close()

			assert.Equal(t, tt.expectedAsset, asset.StatusCode)
			if tt.expectedBody != "" {
				data, err := io.ReadAll(asset.Body)
				require.NoError(t, err)
				assert.Equal(t, tt.expectedBody, string(data))
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	ts := testutil.NewTestServer(t)

	user := testutil.NewUserBuilder().
		WithEmail("login@example.com").
		WithPassword("correct-horse").
		Build(t, ts.Repos.User)

	tests := []struct {
		name           string
		request        map[string]string
		expectedStatus int
		expectedError  string
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name: "successful login",
			request: map[string]string{
				"email":    "login@example.com",
				"password": "correct-horse",
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var result testutil.AuthResponse
				testutil.AssertJSONResponse(t, resp, &result)
				assert.NotEmpty(t, result.Token)
				assert.Equal(t, user.ID, result.User.ID)
				assert.Empty(t, result.User.PasswordHash)
			},
		},
		{
			name: "email is case insensitive",
			request: map[string]string{
				"email":    "LOGIN@example.com",
				"password": "correct-horse",
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "unknown email",
			request: map[string]string{
				"email":    "nobody@example.com",
				"password": "correct-horse",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "User does not exist.",
		},
		{
			name: "wrong password",
			request: map[string]string{
				"email":    "login@example.com",
				"password": "battery-staple",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid credentials.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.request)
			resp, err := http.Post(ts.URL("/auth/login"), "application/json", bytes.NewBuffer(body))
			require.NoError(t, err)
			defer resp.Body.Close()

			if tt.expectedError != "" {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedError)
				return
			}

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestAuthHandler_Metrics(t *testing.T) {
	ts := testutil.NewTestServer(t)
	testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	resp, err := http.Get(ts.URL("/metrics"))
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `action="register",outcome="ok"`)
	assert.Contains(t, string(data), `action="login",outcome="ok"`)
}
