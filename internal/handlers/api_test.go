package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/memomap/backend/internal/router"
	"github.com/anonto42/memomap/backend/internal/services"
	"github.com/anonto42/memomap/backend/internal/storage"
	"github.com/anonto42/memomap/backend/internal/testutil"
	"github.com/anonto42/memomap/backend/pkg/config"
	"github.com/anonto42/memomap/backend/pkg/logger"
	"github.com/anonto42/memomap/backend/pkg/metrics"
	"github.com/anonto42/memomap/backend/validators"
)

type api struct {
	t *testing.T
	e *echo.Echo
}

func newAPI(t *testing.T) *api {
	e := echo.New()
	e.Validator = validators.NewValidator()
	router.SetupRoutes(e, router.Deps{
		Config: &config.Config{
			JWTSecret:        "test-secret",
			GroupCapOnCreate: 3,
			GroupCapOnJoin:   5,
			AvatarMaxBytes:   1 << 20,
		},
		Postgres:            testutil.OpenDB(t),
		Store:               storage.NewMemoryStore(),
		VAPIDKey:            "test-public-key",
		Logger:              logger.Discard(),
		Metrics:             metrics.New(),
		NotificationOptions: []services.NotificationOption{services.WithSyncDelivery()},
	})
	return &api{t: t, e: e}
}

func (a *api) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

// signup registers a user and returns its token and id.
func (a *api) signup(name string) (string, uint) {
	a.t.Helper()
	status, body := a.do(http.MethodPost, "/api/v1/auth/signup", "", echo.Map{
		"name": name, "email": name + "@example.com", "password": "password123",
	})
	require.Equal(a.t, http.StatusCreated, status, body)
	user := body["user"].(map[string]interface{})
	return body["token"].(string), uint(user["id"].(float64))
}

func data(body map[string]interface{}) map[string]interface{} {
	return body["data"].(map[string]interface{})
}

func TestAPI_Health(t *testing.T) {
	a := newAPI(t)
	status, body := a.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
}

func TestAPI_RequiresAuthentication(t *testing.T) {
	a := newAPI(t)
	status, _ := a.do(http.MethodGet, "/api/v1/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = a.do(http.MethodGet, "/api/v1/profile", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := a.do(http.MethodGet, "/api/v1/push/vapid-key", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "test-public-key", data(body)["publicKey"])
}

func TestAPI_SignupAndSignIn(t *testing.T) {
	a := newAPI(t)
	token, _ := a.signup("alice")

	status, body := a.do(http.MethodGet, "/api/v1/profile", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice@example.com", data(body)["email"])

	status, _ = a.do(http.MethodPost, "/api/v1/auth/signup", "", echo.Map{
		"name": "alice", "email": "ALICE@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = a.do(http.MethodPost, "/api/v1/auth/signin", "", echo.Map{
		"email": "alice@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = a.do(http.MethodPost, "/api/v1/auth/signin", "", echo.Map{
		"email": "alice@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["token"])

	status, _ = a.do(http.MethodPost, "/api/v1/auth/firebase-login", "", echo.Map{"id_token": "x"})
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestAPI_GroupMemoPermissions(t *testing.T) {
	a := newAPI(t)
	alice, _ := a.signup("alice")
	bob, bobID := a.signup("bob")
	carol, _ := a.signup("carol")

	status, body := a.do(http.MethodPost, "/api/v1/groups", alice, echo.Map{
		"name": "Trip", "member_ids": []uint{bobID},
	})
	require.Equal(t, http.StatusCreated, status, body)
	groupID := uint(data(body)["id"].(float64))

	memo := echo.Map{"title": "Camp", "lat": 35.0, "lon": 139.0, "group_id": groupID}

	status, _ = a.do(http.MethodPost, "/api/v1/memos", bob, memo)
	assert.Equal(t, http.StatusForbidden, status, "viewers cannot write")

	rolePath := fmt.Sprintf("/api/v1/groups/%d/members/%d/role", groupID, bobID)
	status, _ = a.do(http.MethodPut, rolePath, bob, echo.Map{"role": "ADMIN"})
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = a.do(http.MethodPut, rolePath, alice, echo.Map{"role": "SUPERUSER"})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = a.do(http.MethodPut, rolePath, carol, echo.Map{"role": "SUPERUSER"})
	assert.Equal(t, http.StatusUnauthorized, status, "membership is checked before the role name")
	status, body = a.do(http.MethodPut, rolePath, alice, echo.Map{"role": "editor"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "EDITOR", data(body)["role"])

	status, body = a.do(http.MethodPost, "/api/v1/memos", bob, memo)
	require.Equal(t, http.StatusCreated, status, body)
	memoID := uint(data(body)["id"].(float64))

	status, body = a.do(http.MethodPost, fmt.Sprintf("/api/v1/memos/%d/comments", memoID), alice, echo.Map{"content": "see you there"})
	require.Equal(t, http.StatusCreated, status, body)

	status, body = a.do(http.MethodGet, "/api/v1/notifications/unread-count", bob, nil)
	require.Equal(t, http.StatusOK, status)
	// group invite plus the comment
	assert.EqualValues(t, 2, data(body)["count"])

	status, body = a.do(http.MethodGet, "/api/v1/memos/bounds?south=34&west=138&north=36&east=140", alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, _ = a.do(http.MethodGet, "/api/v1/memos/bounds?south=36&west=138&north=34&east=140", alice, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = a.do(http.MethodGet, "/api/v1/groups/abc", alice, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = a.do(http.MethodGet, "/api/v1/groups/9999", alice, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_FriendRequests(t *testing.T) {
	a := newAPI(t)
	alice, aliceID := a.signup("alice")
	bob, bobID := a.signup("bob")

	status, body := a.do(http.MethodPost, fmt.Sprintf("/api/v1/friends/%d", bobID), alice, nil)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "requested", data(body)["outcome"])

	status, body = a.do(http.MethodGet, "/api/v1/friends/requests/incoming", bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, _ = a.do(http.MethodPut, fmt.Sprintf("/api/v1/friends/%d/accept", aliceID), bob, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = a.do(http.MethodGet, "/api/v1/friends", alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, _ = a.do(http.MethodPost, fmt.Sprintf("/api/v1/friends/%d", aliceID), alice, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = a.do(http.MethodDelete, fmt.Sprintf("/api/v1/friends/%d", aliceID), bob, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = a.do(http.MethodDelete, fmt.Sprintf("/api/v1/friends/%d", aliceID), bob, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_UserProfileFollowState(t *testing.T) {
	a := newAPI(t)
	alice, aliceID := a.signup("alice")
	bob, bobID := a.signup("bob")
	profile := fmt.Sprintf("/api/v1/users/%d", bobID)

	status, body := a.do(http.MethodGet, profile, alice, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, false, data(body)["is_following"])

	status, _ = a.do(http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", bobID), alice, nil)
	require.Equal(t, http.StatusCreated, status)

	// pending requests do not count
	status, body = a.do(http.MethodGet, profile, alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, data(body)["is_following"])

	status, _ = a.do(http.MethodPut, fmt.Sprintf("/api/v1/follows/%d/accept", aliceID), bob, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = a.do(http.MethodGet, profile, alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, data(body)["is_following"])
	assert.EqualValues(t, 1, data(body)["followers"])

	status, body = a.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%d", aliceID), bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, data(body)["is_following"])
}

func TestAPI_GeocodingNotConfigured(t *testing.T) {
	a := newAPI(t)
	token, _ := a.signup("alice")

	status, _ := a.do(http.MethodGet, "/api/v1/geo/forward?q=tokyo", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	status, _ = a.do(http.MethodGet, "/api/v1/geo/forward?q=", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = a.do(http.MethodGet, "/api/v1/geo/reverse?lat=91&lon=0", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}
