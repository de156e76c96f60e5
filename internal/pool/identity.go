package pool

import "strings"

const sessionField = "sso="

// BuildCredential derives the cookie credential for a bare session value.
func BuildCredential(session string) string {
	return "sso-rw=" + session + ";" + sessionField + session
}

// Identity returns the session-identifying part of a credential, the value of
// its sso= field. Credentials without that field are their own identity.
func Identity(credential string) string {
	for _, part := range strings.Split(credential, ";") {
		part = strings.TrimSpace(part)
		if v, ok := strings.CutPrefix(part, sessionField); ok {
			return v
		}
	}
	return credential
}

// MaskCredential renders a credential for logs without leaking the session.
func MaskCredential(credential string) string {
	id := Identity(credential)
	if len(id) <= 8 {
		return "***"
	}
	return id[:8] + "..."
}
