package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDetectSuspiciousRequest(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		agent  string
		xff    string
		want   bool
	}{
		{"plain api call", http.MethodGet, "/api/transactions?range=this_month", "Mozilla/5.0", "", false},
		{"curl is allowed", http.MethodGet, "/api/dashboard", "curl/8.4.0", "", false},
		{"path traversal", http.MethodGet, "/api/../../etc/passwd", "", "", true},
		{"dotenv probe", http.MethodGet, "/.env", "", "", true},
		{"sql injection in query", http.MethodGet, "/api/transactions?q=1%20union%20select", "", "", true},
		{"scanner agent", http.MethodGet, "/", "sqlmap/1.7", "", true},
		{"trace method", "TRACE", "/", "", "", true},
		{"long url", http.MethodGet, "/api?q=" + strings.Repeat("a", maxURLLength), "", "", true},
		{"many proxy hops", http.MethodGet, "/", "", "1.1.1.1,2.2.2.2,3.3.3.3,4.4.4.4,5.5.5.5,6.6.6.6,7.7.7.7", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector()
			r := httptest.NewRequest(tt.method, tt.target, nil)
			r.Header.Set("User-Agent", tt.agent)
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := d.DetectSuspiciousRequest(r); got != tt.want {
				t.Fatalf("DetectSuspiciousRequest() = %v, want %v", got, tt.want)
			}
			wantCount := int64(0)
			if tt.want {
				wantCount = 1
			}
			if d.GetMetrics().SuspiciousRequests != wantCount {
				t.Fatalf("unexpected metrics %+v", d.GetMetrics())
			}
		})
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		realIP     string
		want       string
	}{
		{"direct connection", "203.0.113.7:5000", "", "", "203.0.113.7"},
		{"untrusted proxy ignored", "203.0.113.7:5000", "198.51.100.1", "", "203.0.113.7"},
		{"trusted proxy forwarded", "10.0.0.2:5000", "198.51.100.1, 10.0.0.2", "", "198.51.100.1"},
		{"trusted proxy real ip", "127.0.0.1:5000", "", "198.51.100.9", "198.51.100.9"},
		{"invalid forwarded falls back", "192.168.1.1:5000", "not-an-ip", "", "192.168.1.1"},
		{"remote addr without port", "203.0.113.8", "", "", "203.0.113.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := d.ExtractClientIP(r); got != tt.want {
				t.Fatalf("ExtractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractClientIP_CountsInvalidForwardedIPs(t *testing.T) {
	d := NewDetector()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.1.1.1:80"
	r.Header.Set("X-Forwarded-For", "garbage")
	d.ExtractClientIP(r)
	if d.GetMetrics().InvalidIPAttempts != 1 {
		t.Fatalf("expected one invalid ip attempt, got %+v", d.GetMetrics())
	}
}

func TestAddTrustedProxy(t *testing.T) {
	d := NewDetector()
	if err := d.AddTrustedProxy("not-a-cidr"); err == nil {
		t.Fatal("expected error for invalid CIDR")
	}
	if err := d.AddTrustedProxy("203.0.113.0/24"); err != nil {
		t.Fatalf("AddTrustedProxy: %v", err)
	}
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.5:443"
	r.Header.Set("X-Forwarded-For", "198.51.100.3")
	if got := d.ExtractClientIP(r); got != "198.51.100.3" {
		t.Fatalf("expected forwarded ip via new proxy, got %q", got)
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	for name, want := range map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Cache-Control":           "no-store",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
	} {
		if got := rec.Header().Get(name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must only be sent over TLS")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Errorf("unexpected HSTS %q", got)
	}
}
