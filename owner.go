package mfa

import (
	"net"
	"net/http"
	"strings"
)

// OwnerRef identifies the account a set of MFA records belongs to. Realm
// distinguishes owner types in hosts with more than one protected principal
// class (e.g. "users" and "admins"); ID is the opaque identifier within that
// realm. The pair is the composite key for every record in storage.
type OwnerRef struct {
	Realm string
	ID    string
}

// IsZero reports whether the reference is empty.
func (r OwnerRef) IsZero() bool {
	return r.Realm == "" && r.ID == ""
}

func (r OwnerRef) String() string {
	return r.Realm + "/" + r.ID
}

// Account is the capability the host's user model must provide to be
// protected by this library. Everything else about the account stays opaque.
type Account interface {
	MFAOwner() OwnerRef
}

// EmailAddressProvider is an optional capability consumed by the email
// channel. Accounts that do not implement it (or return an empty address)
// simply cannot receive email challenges; channels degrade to a no-op.
type EmailAddressProvider interface {
	MFAEmailAddress() string
}

// PhoneNumberProvider is an optional capability consumed by the SMS channel.
type PhoneNumberProvider interface {
	MFAPhoneNumber() string
}

// RequestMeta carries best-effort request context for remembered-device
// bookkeeping: the user agent and originating address stored alongside the
// trust grant, and whether the request arrived over a secure transport (used
// to resolve the cookie Secure flag in "auto" mode).
type RequestMeta struct {
	UserAgent string
	IPAddress string
	Secure    bool
}

// RequestMetaFromHTTP extracts RequestMeta from an HTTP request. The client
// address honors X-Forwarded-For and X-Real-IP before falling back to
// RemoteAddr, so grants recorded behind a reverse proxy keep a useful origin.
func RequestMetaFromHTTP(r *http.Request) RequestMeta {
	if r == nil {
		return RequestMeta{}
	}
	return RequestMeta{
		UserAgent: r.UserAgent(),
		IPAddress: clientIP(r),
		Secure:    r.TLS != nil,
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// X-Forwarded-For may contain multiple hops, take the first valid one.
		for ip := range strings.SplitSeq(forwarded, ",") {
			if parsed := parseIP(strings.TrimSpace(ip)); parsed != "" {
				return parsed
			}
		}
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		if parsed := parseIP(ip); parsed != "" {
			return parsed
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

// parseIP validates and normalizes an IP address string, returning "" when
// the input is not an IP.
func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return ""
	}
	return ip.String()
}
