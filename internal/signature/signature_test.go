package signature

import (
	"strings"
	"testing"
)

func TestVerify_RoundTrip(t *testing.T) {
	secrets := []string{"s3cret", "another-secret", "with spaces inside"}
	bodies := [][]byte{
		[]byte(`{"action":"opened"}`),
		[]byte(""),
		[]byte("not json at all"),
	}

	for _, secret := range secrets {
		for _, body := range bodies {
			header := Compute(secret, body)
			if !Verify(secret, body, header) {
				t.Errorf("Verify(%q, %q, computed) = false, want true", secret, body)
			}
		}
	}
}

func TestVerify_TamperedBody(t *testing.T) {
	secret := "s3cret"
	body := []byte(`{"action":"opened"}`)
	header := Compute(secret, body)

	tampered := []byte(`{"action":"opened" }`)
	if Verify(secret, tampered, header) {
		t.Error("Verify() accepted a signature computed over different bytes")
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	body := []byte(`{"action":"opened"}`)
	header := Compute("right-secret", body)

	if Verify("wrong-secret", body, header) {
		t.Error("Verify() accepted a signature under a different secret")
	}
}

func TestVerify_CaseInsensitiveHex(t *testing.T) {
	secret := "s3cret"
	body := []byte("payload")
	header := Compute(secret, body)

	upper := "sha256=" + strings.ToUpper(strings.TrimPrefix(header, "sha256="))
	if !Verify(secret, body, upper) {
		t.Error("Verify() rejected an uppercase hex digest")
	}
}

func TestVerify_Rejections(t *testing.T) {
	secret := "s3cret"
	body := []byte("payload")
	valid := Compute(secret, body)
	digest := strings.TrimPrefix(valid, "sha256=")

	tests := []struct {
		name   string
		secret string
		header string
	}{
		{"empty secret", "", valid},
		{"whitespace secret", "   ", valid},
		{"missing header", secret, ""},
		{"wrong prefix", secret, "sha1=" + digest},
		{"no prefix", secret, digest},
		{"truncated digest", secret, "sha256=" + digest[:40]},
		{"overlong digest", secret, "sha256=" + digest + "ab"},
		{"non-hex digest", secret, "sha256=" + strings.Repeat("zz", 32)},
		{"all zero digest", secret, "sha256=" + strings.Repeat("0", 64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Verify(tt.secret, body, tt.header) {
				t.Errorf("Verify() = true, want false")
			}
		})
	}
}

func TestCompute_HeaderForm(t *testing.T) {
	header := Compute("s3cret", []byte("payload"))
	if !strings.HasPrefix(header, "sha256=") {
		t.Fatalf("Compute() = %q, want sha256= prefix", header)
	}
	if len(header) != len("sha256=")+64 {
		t.Errorf("Compute() digest length = %d, want 64", len(header)-len("sha256="))
	}
}
