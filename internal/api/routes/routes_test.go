package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/yoockh/yootranslate/internal/api/handlers"
	"github.com/yoockh/yootranslate/internal/cache"
	"github.com/yoockh/yootranslate/internal/models"
	"github.com/yoockh/yootranslate/internal/room"
	"github.com/yoockh/yootranslate/internal/services"
	"github.com/yoockh/yootranslate/internal/utils"
)

const opsSecret = "ops-secret-for-tests"

type staticCalls struct{ live []models.CallSnapshot }

func (s staticCalls) Serve(context.Context, room.Room) (models.CallSnapshot, error) {
	return models.CallSnapshot{}, nil
}
func (s staticCalls) Snapshots() []models.CallSnapshot { return s.live }

type staticAdmin struct{ rooms []room.RoomInfo }

func (staticAdmin) RemoveParticipant(context.Context, string, string) error { return nil }
func (a staticAdmin) ListRooms(context.Context) ([]room.RoomInfo, error)    { return a.rooms, nil }

type staticHistory struct{ turns []models.TurnDoc }

func (staticHistory) Session(_ context.Context, id string) (*models.CallSessionDoc, error) {
	return nil, utils.E(utils.CodeNotFound, "staticHistory.Session", "session not found", utils.ErrNotFound)
}
func (h staticHistory) Turns(context.Context, string, int64) ([]models.TurnDoc, error) {
	return h.turns, nil
}
func (staticHistory) SessionsByRoom(context.Context, string, int64) ([]models.CallSessionDoc, error) {
	return nil, nil
}
func (staticHistory) Records(context.Context, string, int) ([]models.CallRecord, error) {
	return nil, nil
}

func newRouter(secret string, admin room.Admin, history services.CallHistoryService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	admission := services.NewAdmissionService(services.AdmissionOptions{
		APIKey:    "key",
		APISecret: "a-very-long-test-secret-of-at-least-32-bytes",
		Ledger:    cache.NewMemoryLedger(),
	})
	calls := staticCalls{live: []models.CallSnapshot{{SessionID: "s1", Room: "call-main", Active: true}}}

	r := gin.New()
	RegisterRoutes(r, Deps{
		Admission: handlers.NewAdmissionHandler(admission),
		Ops:       handlers.NewOpsHandler(calls, admin, history),
		OpsSecret: secret,
	})
	return r
}

func opsToken(t *testing.T, role string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  "operator-1",
		"role": role,
		"exp":  time.Now().Add(ttl).Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(opsSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	w := get(newRouter(opsSecret, nil, nil), "/ping", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestOpsAuth(t *testing.T) {
	cases := []struct {
		name   string
		secret string
		token  func(t *testing.T) string
		want   int
	}{
		{"disabled", "", func(t *testing.T) string { return opsToken(t, "ops", time.Minute) }, http.StatusServiceUnavailable},
		{"no token", opsSecret, func(*testing.T) string { return "" }, http.StatusUnauthorized},
		{"expired", opsSecret, func(t *testing.T) string { return opsToken(t, "ops", -time.Minute) }, http.StatusUnauthorized},
		{"wrong role", opsSecret, func(t *testing.T) string { return opsToken(t, "viewer", time.Minute) }, http.StatusForbidden},
		{"ops role", opsSecret, func(t *testing.T) string { return opsToken(t, "ops", time.Minute) }, http.StatusOK},
		{"admin role", opsSecret, func(t *testing.T) string { return opsToken(t, "ADMIN", time.Minute) }, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := get(newRouter(tc.secret, nil, nil), "/api/ops/calls", tc.token(t))
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d body = %s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestOpsLiveCalls(t *testing.T) {
	w := get(newRouter(opsSecret, nil, nil), "/api/ops/calls", opsToken(t, "ops", time.Minute))

	var body struct {
		Calls []models.CallSnapshot `json:"calls"`
		Count int                   `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 1 || body.Calls[0].SessionID != "s1" {
		t.Fatalf("body = %+v", body)
	}
}

func TestOpsBackendsOptional(t *testing.T) {
	r := newRouter(opsSecret, nil, nil)
	tok := opsToken(t, "ops", time.Minute)

	for _, path := range []string{"/api/ops/rooms", "/api/ops/calls/s1/turns", "/api/ops/records"} {
		if w := get(r, path, tok); w.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s status = %d", path, w.Code)
		}
	}
}

func TestOpsWithBackends(t *testing.T) {
	admin := staticAdmin{rooms: []room.RoomInfo{{Name: "call-main", Participants: 2}}}
	history := staticHistory{turns: []models.TurnDoc{{SessionID: "s1", Seq: 1}}}
	r := newRouter(opsSecret, admin, history)
	tok := opsToken(t, "ops", time.Minute)

	if w := get(r, "/api/ops/rooms", tok); w.Code != http.StatusOK {
		t.Fatalf("rooms status = %d", w.Code)
	}
	if w := get(r, "/api/ops/calls/s1/turns", tok); w.Code != http.StatusOK {
		t.Fatalf("turns status = %d", w.Code)
	}
	if w := get(r, "/api/ops/calls/missing", tok); w.Code != http.StatusNotFound {
		t.Fatalf("session status = %d", w.Code)
	}
}
