package ftprobe

import (
	"net"
	"net/url"
	"regexp"
	"strings"
)

// hostnameRegex is a simplified RFC 1123 hostname check.
var hostnameRegex = regexp.MustCompile(`^(([a-zA-Z0-9]|[a-zA-Z0-9][a-zA-Z0-9\-]*[a-zA-Z0-9])\.)*([A-Za-z0-9]|[A-Za-z0-9][A-Za-z0-9\-]*[A-Za-z0-9])$`)

// Normalize reduces a raw host token to its bare host component. URL-style
// tokens such as "ftp://203.0.113.5:21/pub" lose scheme, credentials, port
// and path; anything that does not parse as a URL with a host component is
// returned trimmed but otherwise unchanged. Normalize never fails and is
// idempotent.
func Normalize(raw string) string {
	host := strings.TrimSpace(raw)
	if host == "" {
		return host
	}

	// Only tokens carrying an explicit scheme go through the URL parser.
	// "203.0.113.5:21" on its own is not a valid URL scheme and must come
	// back unchanged.
	if strings.Contains(host, "://") {
		if u, err := url.Parse(host); err == nil && u.Hostname() != "" {
			return u.Hostname()
		}
	}

	return host
}

// IsValidIP validates if a given string is a valid IP address.
func IsValidIP(ip string) bool {
	return net.ParseIP(ip) != nil
}

// IsValidCIDR validates if a given string is a valid CIDR notation.
func IsValidCIDR(cidr string) bool {
	_, _, err := net.ParseCIDR(cidr)
	return err == nil
}

// IsValidHostname validates if a given string is a valid hostname.
func IsValidHostname(hostname string) bool {
	if len(hostname) == 0 || len(hostname) > 253 {
		return false
	}
	return hostnameRegex.MatchString(hostname)
}

// IsValidHost accepts either an IP address or a hostname.
func IsValidHost(host string) bool {
	return IsValidIP(host) || IsValidHostname(host)
}
