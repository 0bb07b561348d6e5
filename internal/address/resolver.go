// Package address resolves service addresses against the server domain.
package address

import "strings"

// Resolved is the outcome of Resolve.
type Resolved struct {
	// Path is the address as given, set only when it had no scheme.
	Path string
	// HasPath reports whether Path is set.
	HasPath bool
	// Full is the absolute address.
	Full string
}

// Resolve treats an address with a URI scheme as absolute and returns it
// unchanged. Any other address is a path: it is returned as Path and
// appended to domain verbatim, without slash normalisation.
func Resolve(domain, addr string) Resolved {
	if HasScheme(addr) {
		return Resolved{Full: addr}
	}
	return Resolved{Path: addr, HasPath: true, Full: domain + addr}
}

// HasScheme reports whether addr starts with an RFC 3986 scheme such as
// "http:" or "urn:". A prefix followed only by digits is a host and port
// ("localhost:8080"), not a scheme, except for "http".
func HasScheme(addr string) bool {
	for i := 0; i < len(addr); i++ {
		c := addr[i]
		switch {
		case 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' || c == '+' || c == '-' || c == '.':
			if i == 0 {
				return false
			}
		case c == ':':
			if i == 0 {
				return false
			}
			return strings.EqualFold(addr[:i], "http") || !isPort(addr[i+1:])
		default:
			return false
		}
	}
	return false
}

// isPort reports whether s is a non-empty run of digits.
func isPort(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
