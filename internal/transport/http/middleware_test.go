package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

// actorEcho отвечает 200 с исполнителем в теле или 204, если его нет
func actorEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(actor))
	})
}

// TestLoggingMiddleware_Success проверяет поля записи о запросе
func TestLoggingMiddleware_Success(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := RequestIDMiddleware(LoggingMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	})))

	req := httptest.NewRequest(http.MethodPut, "/api/shipments/1/status", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rw := httptest.NewRecorder()
	handler.ServeHTTP(rw, req)

	if rw.Code != http.StatusCreated || rw.Body.String() != "ok" {
		t.Fatalf("unexpected response %d %q", rw.Code, rw.Body.String())
	}
	if logs.Len() != 1 {
		t.Fatalf("expected 1 log entry, got %d", logs.Len())
	}
	fields := logs.All()[0].ContextMap()
	if fields["method"] != "PUT" || fields["path"] != "/api/shipments/1/status" {
		t.Errorf("unexpected fields %v", fields)
	}
	if fields["status"] != int64(201) {
		t.Errorf("status field = %v", fields["status"])
	}
	if fields["request_id"] != "req-1" {
		t.Errorf("request_id field = %v", fields["request_id"])
	}
}

// TestLoggingMiddleware_Panic проверяет, что паника логируется и пробрасывается дальше
func TestLoggingMiddleware_Panic(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := LoggingMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom error")
	}))

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	rw := httptest.NewRecorder()

	defer func() {
		if rec := recover(); rec == nil {
			t.Fatalf("ожидалась паника, но её не было")
		}
		entries := logs.FilterMessage("panic").All()
		if len(entries) != 1 || entries[0].ContextMap()["path"] != "/panic" {
			t.Errorf("ожидалось логирование паники, получили: %v", logs.All())
		}
	}()

	h.ServeHTTP(rw, req)
}

// TestRequestIDMiddleware_Generates проверяет генерацию идентификатора и заголовок ответа
func TestRequestIDMiddleware_Generates(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(seen) != 36 {
		t.Fatalf("expected uuid, got %q", seen)
	}
	if rw.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("response header = %q, want %q", rw.Header().Get(RequestIDHeader), seen)
	}
}

func TestActorMiddleware_UsernameClaim(t *testing.T) {
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"sub":      "42",
		"username": "jan",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rw := httptest.NewRecorder()
	ActorMiddleware(testSecret)(actorEcho()).ServeHTTP(rw, req)
	if rw.Code != http.StatusOK || rw.Body.String() != "jan" {
		t.Fatalf("got %d %q", rw.Code, rw.Body.String())
	}
}

func TestActorMiddleware_SubjectFallback(t *testing.T) {
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "piet"})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rw := httptest.NewRecorder()
	ActorMiddleware(testSecret)(actorEcho()).ServeHTTP(rw, req)
	if rw.Body.String() != "piet" {
		t.Fatalf("got %q", rw.Body.String())
	}
}

func TestActorMiddleware_Rejects(t *testing.T) {
	cases := map[string]string{
		"wrong secret": "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "jan"}),
		"expired":      "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "jan", "exp": time.Now().Add(-time.Hour).Unix()}),
		"wrong alg":    "Bearer " + signToken(t, jwt.SigningMethodHS512, []byte(testSecret), jwt.MapClaims{"sub": "jan"}),
		"no username":  "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"role": "driver"}),
		"not bearer":   "Basic amFuOnB3",
		"garbage":      "Bearer not-a-token",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", header)
			rw := httptest.NewRecorder()
			ActorMiddleware(testSecret)(actorEcho()).ServeHTTP(rw, req)
			if rw.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rw.Code)
			}
		})
	}
}

// TestActorMiddleware_Anonymous проверяет, что запрос без токена проходит без исполнителя
func TestActorMiddleware_Anonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DevActorHeader, "jan")
	rw := httptest.NewRecorder()
	ActorMiddleware(testSecret)(actorEcho()).ServeHTTP(rw, req)
	if rw.Code != http.StatusNoContent {
		t.Fatalf("X-Actor must be ignored when a secret is set, got %d", rw.Code)
	}
}

func TestActorMiddleware_DevHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DevActorHeader, " jan ")
	rw := httptest.NewRecorder()
	ActorMiddleware("")(actorEcho()).ServeHTTP(rw, req)
	if rw.Body.String() != "jan" {
		t.Fatalf("got %q", rw.Body.String())
	}
}

func TestActorFromContext_Empty(t *testing.T) {
	if _, ok := ActorFromContext(context.Background()); ok {
		t.Fatal("expected no actor")
	}
	if _, ok := ActorFromContext(WithActor(context.Background(), "")); ok {
		t.Fatal("empty actor must not count")
	}
}
