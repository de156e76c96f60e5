package pool

import "testing"

func TestIdentity(t *testing.T) {
	tests := []struct {
		name       string
		credential string
		want       string
	}{
		{"built credential", BuildCredential("abc123"), "abc123"},
		{"reversed order", "sso=xyz;sso-rw=xyz", "xyz"},
		{"with clearance", "sso-rw=k;sso=k;cf_clearance=zz", "k"},
		{"no sso field", "opaque-token", "opaque-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Identity(tt.credential); got != tt.want {
				t.Errorf("Identity(%q) = %q, want %q", tt.credential, got, tt.want)
			}
		})
	}
}

func TestMaskCredential(t *testing.T) {
	if got := MaskCredential(BuildCredential("eyJhbGciOiJIUzI1NiJ9")); got != "eyJhbGci..." {
		t.Errorf("MaskCredential = %q", got)
	}
	if got := MaskCredential(BuildCredential("short")); got != "***" {
		t.Errorf("MaskCredential(short) = %q, want ***", got)
	}
}
