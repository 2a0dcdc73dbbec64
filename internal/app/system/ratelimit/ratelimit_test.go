package ratelimit

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_Burst(t *testing.T) {
	l := New(60, 3)
	defer l.Stop()
	now := time.Now()
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !l.Allow("bob") {
			t.Fatalf("attempt %d: expected allowed within burst", i+1)
		}
	}
	if l.Allow("bob") {
		t.Error("expected 4th attempt to be limited")
	}
	if !l.Allow("alice") {
		t.Error("expected other key to have its own bucket")
	}

	// 60/min refills one token per second.
	now = now.Add(time.Second)
	if !l.Allow("bob") {
		t.Error("expected one token after a second")
	}
}

func TestLimiter_ResetAndSweep(t *testing.T) {
	l := New(1, 1)
	defer l.Stop()
	now := time.Now()
	l.now = func() time.Time { return now }

	l.Allow("a")
	l.Allow("b")
	if l.Allow("a") {
		t.Fatal("expected a to be limited")
	}
	l.Reset("a")
	if !l.Allow("a") {
		t.Error("expected a to be allowed after Reset")
	}

	now = now.Add(11 * time.Minute)
	l.sweep()
	if n := l.Len(); n != 0 {
		t.Errorf("expected idle buckets to be swept, %d left", n)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		trust  bool
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"trusted forwarded", true, "203.0.113.5, 10.0.0.1", "", "10.0.0.1:1234", "203.0.113.5"},
		{"trusted real ip", true, "", "198.51.100.7", "10.0.0.1:1234", "198.51.100.7"},
		{"untrusted forwarded ignored", false, "203.0.113.5", "", "10.0.0.1:1234", "10.0.0.1"},
		{"untrusted real ip ignored", false, "", "198.51.100.7", "10.0.0.1:1234", "10.0.0.1"},
		{"remote addr", false, "", "", "192.0.2.1:5555", "192.0.2.1"},
		{"remote no port", true, "", "", "192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ClientIP(r, tt.trust); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJoinLimiter_PerUser(t *testing.T) {
	jl := NewJoinLimiter(1, 2, false)
	defer jl.Stop()

	r := httptest.NewRequest("POST", "/api/circles/join", nil)
	for i := 0; i < 2; i++ {
		if ok, _ := jl.Check(r, "bob"); !ok {
			t.Fatalf("attempt %d: expected allowed", i+1)
		}
	}
	ok, msg := jl.Check(r, "bob")
	if ok || msg == "" {
		t.Errorf("expected bob to be limited with a message, got ok=%v msg=%q", ok, msg)
	}
	if ok, _ := jl.Check(r, "carol"); !ok {
		t.Error("expected carol to be allowed from the same IP")
	}
}

func TestJoinLimiter_ForwardedHeaderDoesNotResetIPLimit(t *testing.T) {
	jl := NewJoinLimiter(1, 1, false)
	defer jl.Stop()

	allowed := 0
	for i := 0; i < 20; i++ {
		r := httptest.NewRequest("POST", "/api/circles/join", nil)
		r.RemoteAddr = "203.0.113.9:4000"
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		if ok, _ := jl.Check(r, fmt.Sprintf("user-%d", i)); ok {
			allowed++
		}
	}
	// IP burst is four times the per-user burst.
	if allowed != 4 {
		t.Errorf("allowed %d joins from one address, want 4", allowed)
	}
}

func TestJoinLimiter_TrustedProxyKeysOnForwardedFor(t *testing.T) {
	jl := NewJoinLimiter(1, 1, true)
	defer jl.Stop()

	for i := 0; i < 8; i++ {
		r := httptest.NewRequest("POST", "/api/circles/join", nil)
		r.RemoteAddr = "10.0.0.1:4000"
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		if ok, _ := jl.Check(r, fmt.Sprintf("user-%d", i)); !ok {
			t.Fatalf("attempt %d from distinct forwarded client was limited", i+1)
		}
	}
}
