package session

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"strings"
)

// RequestContext is the client context the route layer extracts from a
// request. The subsystem never parses transport frames itself.
type RequestContext struct {
	UserAgent      string
	AcceptLanguage string
	AcceptEncoding string
	IP             string
}

// Fingerprint derives the device fingerprint hash from the client headers.
// It is a weak binding signal, not an identity proof.
func (c RequestContext) Fingerprint() string {
	sum := sha256.Sum256([]byte(c.UserAgent + "|" + c.AcceptLanguage + "|" + c.AcceptEncoding))
	return hex.EncodeToString(sum[:])
}

// ResolvableIP reports whether the client IP parses as an address.
func (c RequestContext) ResolvableIP() bool {
	return net.ParseIP(c.IP) != nil
}

// botMarkers are substrings of automated user agents.
var botMarkers = []string{"bot", "crawler", "spider", "scraper", "curl", "wget", "python-requests"}

// BotUserAgent reports whether the user agent looks automated.
func (c RequestContext) BotUserAgent() bool {
	ua := strings.ToLower(c.UserAgent)
	for _, marker := range botMarkers {
		if strings.Contains(ua, marker) {
			return true
		}
	}
	return false
}

// Platform returns a coarse platform name parsed from the user agent.
func (c RequestContext) Platform() string {
	ua := strings.ToLower(c.UserAgent)
	switch {
	case strings.Contains(ua, "windows"):
		return "windows"
	case strings.Contains(ua, "android"):
		return "android"
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"):
		return "ios"
	case strings.Contains(ua, "mac os"), strings.Contains(ua, "macintosh"):
		return "macos"
	case strings.Contains(ua, "linux"):
		return "linux"
	default:
		return "unknown"
	}
}

// Browser returns a coarse browser name parsed from the user agent.
func (c RequestContext) Browser() string {
	ua := strings.ToLower(c.UserAgent)
	switch {
	case strings.Contains(ua, "edg/"):
		return "edge"
	case strings.Contains(ua, "chrome"):
		return "chrome"
	case strings.Contains(ua, "firefox"):
		return "firefox"
	case strings.Contains(ua, "safari"):
		return "safari"
	default:
		return "unknown"
	}
}
