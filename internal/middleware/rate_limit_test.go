package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkghttp "github.com/BradenHooton/loginguard/pkg/http"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func loginRequest(peer, ip string) *http.Request {
	req := httptest.NewRequest("POST", "/v1/login/check", strings.NewReader(`{"uid":"alice","ip":"`+ip+`"}`))
	req.RemoteAddr = peer
	return req
}

// TestRateLimitByIP_EnforcesLimit verifies requests over the limit are rejected
func TestRateLimitByIP_EnforcesLimit(t *testing.T) {
	handler := RateLimitByIP(RateLimitConfig{RequestsPerMinute: 3}, nil)(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/v1/login/check", nil)
		req.RemoteAddr = "198.51.100.1:1234"
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Errorf("request %d failed with status %d, expected 200", i+1, recorder.Code)
		}
	}

	req := httptest.NewRequest("POST", "/v1/login/check", nil)
	req.RemoteAddr = "198.51.100.1:1234"
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusTooManyRequests {
		t.Errorf("expected status %d (too many requests), got %d", http.StatusTooManyRequests, recorder.Code)
	}
}

// TestRateLimitByIP_SeparateBucketsPerAddress verifies one address cannot exhaust another's budget
func TestRateLimitByIP_SeparateBucketsPerAddress(t *testing.T) {
	handler := RateLimitByIP(RateLimitConfig{RequestsPerMinute: 1}, nil)(okHandler())

	for _, addr := range []string{"198.51.100.2:1", "198.51.100.3:1"} {
		req := httptest.NewRequest("POST", "/v1/login/check", nil)
		req.RemoteAddr = addr
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", addr, recorder.Code)
		}
	}
}

// TestRateLimitByIP_IgnoresSpoofedForwardedFor verifies untrusted peers cannot rotate keys via headers
func TestRateLimitByIP_IgnoresSpoofedForwardedFor(t *testing.T) {
	ipConfig := pkghttp.NewIPConfig([]string{"10.0.0.0/8"})
	handler := RateLimitByIP(RateLimitConfig{RequestsPerMinute: 1}, ipConfig)(okHandler())

	codes := make([]int, 0, 2)
	for _, spoofed := range []string{"1.1.1.1", "2.2.2.2"} {
		req := httptest.NewRequest("POST", "/v1/login/check", nil)
		req.RemoteAddr = "203.0.113.50:1"
		req.Header.Set("X-Forwarded-For", spoofed)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)
		codes = append(codes, recorder.Code)
	}

	if codes[1] != http.StatusTooManyRequests {
		t.Errorf("expected second request to be limited, got %v", codes)
	}
}

// TestRateLimitByIP_TrustedProxyKeysByClient verifies clients behind a trusted proxy get their own bucket
func TestRateLimitByIP_TrustedProxyKeysByClient(t *testing.T) {
	ipConfig := pkghttp.NewIPConfig([]string{"10.0.0.0/8"})
	handler := RateLimitByIP(RateLimitConfig{RequestsPerMinute: 1}, ipConfig)(okHandler())

	for _, client := range []string{"192.0.2.10", "192.0.2.11"} {
		req := httptest.NewRequest("POST", "/v1/login/check", nil)
		req.RemoteAddr = "10.0.0.2:1"
		req.Header.Set("X-Forwarded-For", client)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", client, recorder.Code)
		}
	}
}

// TestRateLimitByLoginIP_SeparateBucketsPerEndUser verifies end users behind one front end do not share a bucket
func TestRateLimitByLoginIP_SeparateBucketsPerEndUser(t *testing.T) {
	handler := RateLimitByLoginIP(RateLimitConfig{RequestsPerMinute: 1}, nil)(okHandler())

	for _, ip := range []string{"192.0.2.10", "192.0.2.11", "2001:db8::1"} {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, loginRequest("10.0.0.2:1", ip))

		if recorder.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", ip, recorder.Code)
		}
	}
}

// TestRateLimitByLoginIP_LimitsOneEndUser verifies the same end-user address is limited
func TestRateLimitByLoginIP_LimitsOneEndUser(t *testing.T) {
	handler := RateLimitByLoginIP(RateLimitConfig{RequestsPerMinute: 2}, nil)(okHandler())

	codes := make([]int, 0, 3)
	for _, peer := range []string{"10.0.0.2:1", "10.0.0.3:1", "10.0.0.4:1"} {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, loginRequest(peer, "192.0.2.20"))
		codes = append(codes, recorder.Code)
	}

	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("expected third request to be limited, got %v", codes)
	}
}

// TestRateLimitByLoginIP_RestoresBody verifies the handler still sees the full request body
func TestRateLimitByLoginIP_RestoresBody(t *testing.T) {
	var got struct {
		UID string `json:"uid"`
		IP  string `json:"ip"`
	}
	handler := RateLimitByLoginIP(RateLimitConfig{RequestsPerMinute: 10}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), loginRequest("10.0.0.2:1", "192.0.2.30"))

	if got.UID != "alice" || got.IP != "192.0.2.30" {
		t.Errorf("body not restored: %+v", got)
	}
}

// TestRateLimitByLoginIP_FallsBackToPeer verifies bodies without a valid ip share the peer's bucket
func TestRateLimitByLoginIP_FallsBackToPeer(t *testing.T) {
	handler := RateLimitByLoginIP(RateLimitConfig{RequestsPerMinute: 1}, nil)(okHandler())

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, loginRequest("198.51.100.9:1", "not-an-ip"))
		codes = append(codes, recorder.Code)
	}

	if codes[1] != http.StatusTooManyRequests {
		t.Errorf("expected second request to be limited, got %v", codes)
	}
}
