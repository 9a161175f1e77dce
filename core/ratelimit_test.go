package core

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*LoginLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLoginLimiter(client, limit, window), mr
}

func TestLoginLimiterBlocksAboveLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := limiter.Allow(ctx, "a@x.com"); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}
	if err := limiter.Allow(ctx, "a@x.com"); !errors.Is(err, ErrTooManyRequests) {
		t.Fatalf("expected ErrTooManyRequests, got %v", err)
	}

	// Other usernames have their own counters.
	if err := limiter.Allow(ctx, "b@x.com"); err != nil {
		t.Fatalf("unrelated user throttled: %v", err)
	}
}

func TestLoginLimiterCaseInsensitiveUsername(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2, time.Minute)
	ctx := context.Background()

	_ = limiter.Allow(ctx, "A@X.com")
	_ = limiter.Allow(ctx, "a@x.COM")
	if err := limiter.Allow(ctx, "a@x.com"); !errors.Is(err, ErrTooManyRequests) {
		t.Fatalf("case variants should share a counter, got %v", err)
	}
}

func TestLoginLimiterWindowExpires(t *testing.T) {
	limiter, mr := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	_ = limiter.Allow(ctx, "a@x.com")
	if err := limiter.Allow(ctx, "a@x.com"); !errors.Is(err, ErrTooManyRequests) {
		t.Fatalf("expected ErrTooManyRequests, got %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if err := limiter.Allow(ctx, "a@x.com"); err != nil {
		t.Fatalf("window should have reset: %v", err)
	}
}

func TestLoginEndpointRateLimited(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2, time.Minute)

	gin.SetMode(gin.TestMode)
	users := newMemUserRepo()
	router := NewRouter(Config{AppSecret: "test-secret"}, users, newMemGalleryRepo(), newMemPhotoRepo(), newMemBlobStore(), newMemQueue(), limiter, nil)

	login := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/login", nil)
		req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("a@x.com:wrong")))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	// Wrong-password attempts still count against the window.
	for i := 0; i < 2; i++ {
		if code := login(); code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, code)
		}
	}
	if code := login(); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once over the limit, got %d", code)
	}
}

func TestLoginLimiterDisabled(t *testing.T) {
	limiter := NewLoginLimiter(nil, 0, time.Minute)
	for i := 0; i < 100; i++ {
		if err := limiter.Allow(context.Background(), "a@x.com"); err != nil {
			t.Fatalf("disabled limiter throttled: %v", err)
		}
	}
}
