package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
	_ "time/tzdata"

	"museumbooking/internal/database"
	"museumbooking/internal/pkg/clock"
	"museumbooking/internal/repository"
	"museumbooking/internal/schedule"
	"museumbooking/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type E2ETestSuite struct {
	router *gin.Engine
	store  *repository.Store
	clock  *clock.Fixed
}

type TestResponse struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *ErrorDetail           `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	gin.SetMode(gin.TestMode)

	db, err := database.Connect(":memory:")
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, repository.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	loc, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)
	policy, err := schedule.NewPolicy(schedule.DefaultOptions(loc))
	require.NoError(t, err)

	clk := &clock.Fixed{T: time.Date(2030, 5, 1, 8, 0, 0, 0, time.UTC)}
	srv := server.New(server.Options{
		DB:                 db,
		Policy:             policy,
		Clock:              clk,
		JWTSecret:          "test_secret_key_32_characters_min",
		JWTAccessTTL:       15 * time.Minute,
		RefreshTTL:         7 * 24 * time.Hour,
		RefreshTokenPepper: "test-pepper",
	})
	t.Cleanup(srv.Hub.Close)

	return &E2ETestSuite{router: srv.Engine, store: repository.NewStore(db), clock: clk}
}

func (s *E2ETestSuite) makeRequest(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, *TestResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp TestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	if resp.Error != nil {
		t.Logf("%s %s -> %d [%s] %s", method, path, w.Code, resp.Error.Code, resp.Error.Message)
	}
	return w, &resp
}

// register creates an account and returns the session tokens from a subsequent login.
func (s *E2ETestSuite) register(t *testing.T, email string) (access, refresh string) {
	t.Helper()
	w, _ := s.makeRequest(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name":     "Grace",
		"surname":  "Hopper",
		"email":    email,
		"phone":    "+39 06 1234567",
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	return s.login(t, email)
}

func (s *E2ETestSuite) login(t *testing.T, email string) (access, refresh string) {
	t.Helper()
	w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	return resp.Data["access_token"].(string), resp.Data["refresh_token"].(string)
}

func (s *E2ETestSuite) registerAdmin(t *testing.T, email string) string {
	t.Helper()
	s.register(t, email)
	u, err := s.store.Users.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NoError(t, s.store.Users.SetAdmin(context.Background(), u.ID, true))
	access, _ := s.login(t, email)
	return access
}

func idOf(t *testing.T, obj interface{}) int {
	t.Helper()
	m, ok := obj.(map[string]interface{})
	require.True(t, ok)
	return int(m["id"].(float64))
}

func TestBookingLifecycle(t *testing.T) {
	s := setupTestSuite(t)
	userToken, _ := s.register(t, "visitor@test.com")
	adminToken := s.registerAdmin(t, "admin@test.com")

	var bookingID int

	t.Run("Availability is public", func(t *testing.T) {
		w, resp := s.makeRequest(t, http.MethodGet,
			"/api/v1/bookings/availability?date_time=2030-05-10T10:30&experience_type=guided_tour", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(20), resp.Data["capacity"])
		assert.Equal(t, float64(0), resp.Data["booked"])
		assert.Equal(t, false, resp.Data["is_full"])
	})

	t.Run("Create requires authentication", func(t *testing.T) {
		w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/bookings", map[string]interface{}{}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "AUTH_HEADER_MISSING", resp.Error.Code)
	})

	t.Run("Create booking", func(t *testing.T) {
		w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/bookings", map[string]interface{}{
			"date_time":       "2030-05-10T10:30:00",
			"experience_type": "guided_tour",
			"people":          4,
			"info_message":    "one wheelchair",
			"guest_contacts": []map[string]string{
				{"name": "Linus", "contact": "linus@test.com"},
			},
		}, userToken)
		require.Equal(t, http.StatusCreated, w.Code)
		bookingID = idOf(t, resp.Data["booking"])
		assert.Equal(t, "2030-05-10T10:30:00+02:00", resp.Data["booking"].(map[string]interface{})["date_time"])
	})

	t.Run("Off-grid time is rejected", func(t *testing.T) {
		w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/bookings", map[string]interface{}{
			"date_time":       "2030-05-10T11:00:00",
			"experience_type": "guided_tour",
			"people":          2,
		}, userToken)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "INVALID_SLOT", resp.Error.Code)
	})

	t.Run("Availability reflects the booking", func(t *testing.T) {
		_, resp := s.makeRequest(t, http.MethodGet,
			"/api/v1/bookings/availability?date_time=2030-05-10T10:30&experience_type=guided_tour", nil, "")
		assert.Equal(t, float64(1), resp.Data["booked"])
		assert.Equal(t, float64(19), resp.Data["remaining"])
	})

	t.Run("Patch clears only the fields it names", func(t *testing.T) {
		w, resp := s.makeRequest(t, http.MethodPatch, "/api/v1/bookings/"+itoa(bookingID),
			map[string]interface{}{"info_message": nil}, userToken)
		require.Equal(t, http.StatusOK, w.Code)
		b := resp.Data["booking"].(map[string]interface{})
		assert.Nil(t, b["info_message"])
		assert.Equal(t, float64(4), b["people"])
		assert.Len(t, b["guest_contacts"], 1)

		w, resp = s.makeRequest(t, http.MethodPatch, "/api/v1/bookings/"+itoa(bookingID),
			map[string]interface{}{}, userToken)
		require.Equal(t, http.StatusOK, w.Code)
		b = resp.Data["booking"].(map[string]interface{})
		assert.Nil(t, b["info_message"])
		assert.Equal(t, "2030-05-10T10:30:00+02:00", b["date_time"])
	})

	t.Run("Another user cannot read the booking", func(t *testing.T) {
		otherToken, _ := s.register(t, "other@test.com")
		w, _ := s.makeRequest(t, http.MethodGet, "/api/v1/bookings/"+itoa(bookingID), nil, otherToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	var requestID int

	t.Run("Submit update request", func(t *testing.T) {
		w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/bookings/"+itoa(bookingID)+"/update-request", map[string]interface{}{
			"requested_people": 6,
			"note":             "two more friends",
		}, userToken)
		require.Equal(t, http.StatusCreated, w.Code)
		requestID = idOf(t, resp.Data["update_request"])

		w, resp = s.makeRequest(t, http.MethodGet, "/api/v1/bookings/update-requests/me", nil, userToken)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, resp.Data["update_requests"], 1)
	})

	t.Run("Non-admin cannot decide", func(t *testing.T) {
		w, _ := s.makeRequest(t, http.MethodPost, "/api/v1/admin/update-requests/"+itoa(requestID)+"/decision",
			map[string]string{"decision": "approved"}, userToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Admin approves", func(t *testing.T) {
		w, resp := s.makeRequest(t, http.MethodGet, "/api/v1/admin/update-requests", nil, adminToken)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, resp.Data["update_requests"], 1)

		w, resp = s.makeRequest(t, http.MethodPost, "/api/v1/admin/update-requests/"+itoa(requestID)+"/decision",
			map[string]string{"decision": "approved", "admin_note": "ok"}, adminToken)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "approved", resp.Data["update_request"].(map[string]interface{})["status"])

		w, resp = s.makeRequest(t, http.MethodGet, "/api/v1/bookings/"+itoa(bookingID), nil, userToken)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(6), resp.Data["booking"].(map[string]interface{})["people"])

		w, _ = s.makeRequest(t, http.MethodPost, "/api/v1/admin/update-requests/"+itoa(requestID)+"/decision",
			map[string]string{"decision": "rejected"}, adminToken)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Delete writes an audit snapshot", func(t *testing.T) {
		w, _ := s.makeRequest(t, http.MethodDelete, "/api/v1/bookings/"+itoa(bookingID), nil, userToken)
		require.Equal(t, http.StatusOK, w.Code)

		w, _ = s.makeRequest(t, http.MethodGet, "/api/v1/bookings/"+itoa(bookingID), nil, userToken)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w, resp := s.makeRequest(t, http.MethodGet, "/api/v1/admin/deleted-bookings", nil, adminToken)
		require.Equal(t, http.StatusOK, w.Code)
		list := resp.Data["deleted_bookings"].([]interface{})
		require.Len(t, list, 1)
		snap := list[0].(map[string]interface{})
		assert.Equal(t, float64(bookingID), snap["booking_id"])
		assert.Equal(t, "visitor@test.com", snap["user_email"])
		assert.Equal(t, float64(6), snap["people"])
	})
}

func TestUserAdministration(t *testing.T) {
	s := setupTestSuite(t)
	userToken, refresh := s.register(t, "visitor@test.com")
	adminToken := s.registerAdmin(t, "admin@test.com")

	visitor, err := s.store.Users.GetByEmail(context.Background(), "visitor@test.com")
	require.NoError(t, err)
	userPath := "/api/v1/admin/users/" + itoa(int(visitor.ID))

	t.Run("Profile update keeps absent fields", func(t *testing.T) {
		w, resp := s.makeRequest(t, http.MethodPut, "/api/v1/users/me", map[string]string{"phone": "+39 055 000"}, userToken)
		require.Equal(t, http.StatusOK, w.Code)
		u := resp.Data["user"].(map[string]interface{})
		assert.Equal(t, "+39 055 000", u["phone"])
		assert.Equal(t, "Grace", u["name"])

		w, resp = s.makeRequest(t, http.MethodPut, "/api/v1/users/me", map[string]string{"email": "admin@test.com"}, userToken)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "EMAIL_EXISTS", resp.Error.Code)
	})

	t.Run("Admin routes reject regular users", func(t *testing.T) {
		w, _ := s.makeRequest(t, http.MethodGet, "/api/v1/admin/users", nil, userToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Admin reads and edits a user", func(t *testing.T) {
		w, resp := s.makeRequest(t, http.MethodGet, userPath, nil, adminToken)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "visitor@test.com", resp.Data["user"].(map[string]interface{})["email"])

		w, resp = s.makeRequest(t, http.MethodPut, userPath, map[string]string{"surname": "Murray"}, adminToken)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Murray", resp.Data["user"].(map[string]interface{})["surname"])
	})

	t.Run("Admin password reset ends sessions", func(t *testing.T) {
		w, _ := s.makeRequest(t, http.MethodPost, userPath+"/password", map[string]string{"new_password": "another-pass-1"}, adminToken)
		require.Equal(t, http.StatusOK, w.Code)

		w, _ = s.makeRequest(t, http.MethodPost, "/api/v1/auth/refresh", map[string]string{"refresh_token": refresh}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Delete writes a deleted-user record", func(t *testing.T) {
		w, _ := s.makeRequest(t, http.MethodDelete, userPath, nil, adminToken)
		require.Equal(t, http.StatusOK, w.Code)

		w, _ = s.makeRequest(t, http.MethodGet, userPath, nil, adminToken)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w, resp := s.makeRequest(t, http.MethodGet, "/api/v1/admin/deleted-users", nil, adminToken)
		require.Equal(t, http.StatusOK, w.Code)
		list := resp.Data["deleted_users"].([]interface{})
		require.Len(t, list, 1)
		snap := list[0].(map[string]interface{})
		assert.Equal(t, "visitor@test.com", snap["email"])
		assert.Equal(t, "Murray", snap["surname"])
	})
}

func TestRefreshTokenRotation(t *testing.T) {
	s := setupTestSuite(t)
	_, refresh := s.register(t, "rotator@test.com")

	w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/auth/refresh", map[string]string{"refresh_token": refresh}, "")
	require.Equal(t, http.StatusOK, w.Code)
	rotated := resp.Data["refresh_token"].(string)
	assert.NotEqual(t, refresh, rotated)
	assert.NotEmpty(t, resp.Data["access_token"])

	t.Run("Replaying the old token fails", func(t *testing.T) {
		w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/auth/refresh", map[string]string{"refresh_token": refresh}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "INVALID_REFRESH_TOKEN", resp.Error.Code)
	})

	t.Run("Expired token fails", func(t *testing.T) {
		s.clock.Advance(8 * 24 * time.Hour)
		w, _ := s.makeRequest(t, http.MethodPost, "/api/v1/auth/refresh", map[string]string{"refresh_token": rotated}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestLoginWrongPassword(t *testing.T) {
	s := setupTestSuite(t)
	s.register(t, "someone@test.com")

	w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "someone@test.com",
		"password": "wrong-password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", resp.Error.Code)
}

func TestHealth(t *testing.T) {
	s := setupTestSuite(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
