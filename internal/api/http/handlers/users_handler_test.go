package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func registerBody(username, email, password string) map[string]string {
	return map[string]string{"username": username, "email": email, "password": password}
}

func TestRegisterCreatesInactiveAccount(t *testing.T) {
	e := newEnv(t)

	resp, _ := e.do(t, http.MethodPost, "/api/1.0/users", registerBody(testUsername, testEmail, testPassword), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	user, err := e.users.GetByEmail(context.Background(), testEmail)
	require.NoError(t, err)
	require.True(t, user.Inactive)
	require.NotEmpty(t, e.sender.lastToken)
}

func TestRegisterValidationErrors(t *testing.T) {
	e := newEnv(t)

	resp, body := e.do(t, http.MethodPost, "/api/1.0/users", registerBody("", "not-an-email", "123"), nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	validationErrors, ok := body["validationErrors"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, validationErrors, "username")
	require.Contains(t, validationErrors, "email")
	require.Contains(t, validationErrors, "password")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, testUsername, testEmail, false)

	resp, body := e.do(t, http.MethodPost, "/api/1.0/users", registerBody("user2", testEmail, testPassword), nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	validationErrors, ok := body["validationErrors"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, validationErrors, "email")
}

func TestActivationFlow(t *testing.T) {
	e := newEnv(t)

	resp, _ := e.do(t, http.MethodPost, "/api/1.0/users", registerBody(testUsername, testEmail, testPassword), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Login is forbidden while the account is inactive.
	status, _ := e.login(t, testEmail, testPassword)
	require.Equal(t, http.StatusForbidden, status)

	resp, _ = e.do(t, http.MethodPost, "/api/1.0/users/token/"+e.sender.lastToken, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	status, _ = e.login(t, testEmail, testPassword)
	require.Equal(t, http.StatusOK, status)
}

func TestActivationInvalidToken(t *testing.T) {
	e := newEnv(t)

	resp, _ := e.do(t, http.MethodPost, "/api/1.0/users/token/garbage", nil, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListingReturnsPageObject(t *testing.T) {
	e := newEnv(t)

	resp, body := e.do(t, http.MethodGet, "/api/1.0/users", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []any{}, body["content"])
	require.EqualValues(t, 0, body["page"])
	require.EqualValues(t, 10, body["size"])
	require.EqualValues(t, 0, body["totalPages"])
}

func TestListingExcludesAuthenticatedCaller(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, testUsername, testEmail, false)
	e.seedUser(t, "user2", "user2@mail.com", false)

	_, loginBody := e.login(t, testEmail, testPassword)
	token := loginBody["token"].(string)

	resp, body := e.do(t, http.MethodGet, "/api/1.0/users", nil, bearer(token))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	content := body["content"].([]any)
	require.Len(t, content, 1)
	first := content[0].(map[string]any)
	require.Equal(t, "user2", first["username"])
}

func TestListingHidesInactiveUsers(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, testUsername, testEmail, false)
	e.seedUser(t, "ghost", "ghost@mail.com", true)

	_, body := e.do(t, http.MethodGet, "/api/1.0/users", nil, nil)
	content := body["content"].([]any)
	require.Len(t, content, 1)
}

func TestGetUser(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser(t, testUsername, testEmail, false)

	resp, body := e.do(t, http.MethodGet, "/api/1.0/users/"+user.ID, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, testUsername, body["username"])

	resp, _ = e.do(t, http.MethodGet, "/api/1.0/users/unknown", nil, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateRequiresOwnership(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser(t, testUsername, testEmail, false)
	other := e.seedUser(t, "user2", "user2@mail.com", false)

	update := map[string]string{"username": "renamed"}

	// No credentials: forbidden, not unauthenticated.
	resp, _ := e.do(t, http.MethodPut, "/api/1.0/users/"+user.ID, update, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Someone else's valid credentials: forbidden.
	resp, _ = e.do(t, http.MethodPut, "/api/1.0/users/"+user.ID, update, basic(other.Email, testPassword))
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Owner via Basic credentials.
	resp, body := e.do(t, http.MethodPut, "/api/1.0/users/"+user.ID, update, basic(testEmail, testPassword))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "renamed", body["username"])
}

func TestUpdateWithBearerToken(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser(t, testUsername, testEmail, false)

	_, loginBody := e.login(t, testEmail, testPassword)
	token := loginBody["token"].(string)

	resp, body := e.do(t, http.MethodPut, "/api/1.0/users/"+user.ID,
		map[string]string{"username": "via-bearer"}, bearer(token))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "via-bearer", body["username"])
}

func TestUpdateInactiveBasicCredentialForbidden(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser(t, testUsername, testEmail, true)

	// Matching credentials on an inactive account never resolve a principal.
	resp, _ := e.do(t, http.MethodPut, "/api/1.0/users/"+user.ID,
		map[string]string{"username": "renamed"}, basic(testEmail, testPassword))
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestDeleteRequiresOwnershipAndCascadesSessions(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser(t, testUsername, testEmail, false)
	other := e.seedUser(t, "user2", "user2@mail.com", false)

	_, loginBody := e.login(t, testEmail, testPassword)
	token := loginBody["token"].(string)

	// Deleting someone else's account is forbidden.
	resp, _ := e.do(t, http.MethodDelete, "/api/1.0/users/"+other.ID, nil, bearer(token))
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = e.do(t, http.MethodDelete, "/api/1.0/users/"+user.ID, nil, bearer(token))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Equal(t, 0, e.tokens.Count(), "account deletion revokes every session")

	_, err := e.users.GetByID(context.Background(), user.ID)
	require.Error(t, err)
}
