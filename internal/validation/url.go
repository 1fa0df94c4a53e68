package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// URLValidator checks URLs before the client talks to them or hands them to
// a browser.
type URLValidator struct {
	// AllowLocal permits localhost and private addresses, needed for the
	// local API environment and for tests.
	AllowLocal bool
	MaxLength  int
}

func NewURLValidator(allowLocal bool) *URLValidator {
	return &URLValidator{
		AllowLocal: allowLocal,
		MaxLength:  2048,
	}
}

// ValidateBaseURL accepts an absolute http(s) URL without query or fragment.
func (v *URLValidator) ValidateBaseURL(input string) error {
	u, err := v.parse(input)
	if err != nil {
		return err
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("base URL must not carry a query or fragment")
	}
	return nil
}

// ValidateExternal checks a URL that came from content records before it is
// opened or fetched. Only http and https are followed.
func (v *URLValidator) ValidateExternal(input string) (string, error) {
	u, err := v.parse(input)
	if err != nil {
		return "", err
	}
	if strings.Contains(u.RawQuery, "<script") || strings.Contains(strings.ToLower(u.RawQuery), "javascript:") {
		return "", fmt.Errorf("suspicious query parameters detected")
	}
	return u.String(), nil
}

func (v *URLValidator) parse(input string) (*url.URL, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return nil, fmt.Errorf("URL cannot be empty")
	}
	if v.MaxLength > 0 && len(input) > v.MaxLength {
		return nil, fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"`") {
		return nil, fmt.Errorf("URL contains invalid characters")
	}

	u, err := url.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("URL must use http or https protocol")
	}
	if u.Host == "" {
		return nil, fmt.Errorf("URL must have a valid hostname")
	}

	if err := v.validateHost(u.Hostname()); err != nil {
		return nil, err
	}
	return u, nil
}

func (v *URLValidator) validateHost(hostname string) error {
	if hostname == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}
	if v.AllowLocal {
		return nil
	}
	if isLocalhost(hostname) {
		return fmt.Errorf("localhost URLs are not permitted")
	}
	if ip := net.ParseIP(hostname); ip != nil && (isPrivateIP(ip) || ip.IsUnspecified()) {
		return fmt.Errorf("private IP addresses are not permitted")
	}
	return nil
}

func isLocalhost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	return hostname == "localhost" ||
		hostname == "127.0.0.1" ||
		hostname == "::1" ||
		strings.HasSuffix(hostname, ".localhost")
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast()
}
