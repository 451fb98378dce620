package security

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
)

// DetectionMetrics tracks security detection events
type DetectionMetrics struct {
	SuspiciousRequests int64 `json:"suspiciousRequests"`
	InvalidIPAttempts  int64 `json:"invalidIpAttempts"`
}

// Detector flags probing requests and resolves client IPs behind trusted proxies.
type Detector struct {
	suspicious atomic.Int64
	invalidIPs atomic.Int64

	mu             sync.RWMutex
	trustedProxies []*net.IPNet
}

var (
	suspiciousPatterns = []string{
		"../", "..\\", ".env", "wp-admin", "phpmyadmin",
		"admin.php", "config.php", ".git", ".ssh",
		"eval(", "javascript:", "<script", "union select",
		"etc/passwd", "cmd.exe",
	}

	// Scripted API clients (curl and friends) are legitimate here; only
	// scanners are flagged.
	suspiciousAgents = []string{
		"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan", "zgrab",
	}

	unusualMethods = []string{"TRACE", "TRACK", "DEBUG", "CONNECT"}
)

const (
	maxURLLength    = 2048
	maxForwardedHop = 5
)

func NewDetector() *Detector {
	return &Detector{
		trustedProxies: []*net.IPNet{
			parseCIDR("127.0.0.0/8"),
			parseCIDR("::1/128"),
			parseCIDR("10.0.0.0/8"),
			parseCIDR("172.16.0.0/12"),
			parseCIDR("192.168.0.0/16"),
		},
	}
}

// parseCIDR is a helper to parse CIDR during initialization
func parseCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("failed to parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

// DetectSuspiciousRequest reports whether r looks like a probe.
func (d *Detector) DetectSuspiciousRequest(r *http.Request) bool {
	query := r.URL.RawQuery
	if unescaped, err := url.QueryUnescape(query); err == nil {
		query = unescaped
	}

	suspicious := containsAny(strings.ToLower(r.URL.Path), suspiciousPatterns) ||
		containsAny(strings.ToLower(query), suspiciousPatterns) ||
		containsAny(strings.ToLower(r.Header.Get("User-Agent")), suspiciousAgents) ||
		len(r.URL.String()) > maxURLLength ||
		strings.Count(r.Header.Get("X-Forwarded-For"), ",") > maxForwardedHop

	for _, method := range unusualMethods {
		if r.Method == method {
			suspicious = true
		}
	}

	if suspicious {
		d.suspicious.Add(1)
	}
	return suspicious
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// ExtractClientIP returns the connecting IP, or the forwarded client IP
// when the connection comes from a trusted proxy.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsedDirectIP := net.ParseIP(directIP)
	if parsedDirectIP == nil || !d.isTrustedProxy(parsedDirectIP) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		clientIP := strings.TrimSpace(first)
		if net.ParseIP(clientIP) != nil {
			return clientIP
		}
		d.invalidIPs.Add(1)
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
		d.invalidIPs.Add(1)
	}

	return directIP
}

func (d *Detector) isTrustedProxy(ip net.IP) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, network := range d.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// GetMetrics returns current security metrics
func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{
		SuspiciousRequests: d.suspicious.Load(),
		InvalidIPAttempts:  d.invalidIPs.Load(),
	}
}

// AddTrustedProxy adds a trusted proxy network
func (d *Detector) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.mu.Lock()
	d.trustedProxies = append(d.trustedProxies, network)
	d.mu.Unlock()
	return nil
}
