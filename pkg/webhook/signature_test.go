package webhook

import "testing"

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"event":"call_ended","call":{"call_id":"call_1"}}`)

	if err := VerifySignature(secret, body, Sign(secret, body)); err != nil {
		t.Errorf("VerifySignature() error = %v, want nil for valid signature", err)
	}

	if err := VerifySignature(secret, body, "deadbeef"); err == nil {
		t.Error("VerifySignature() error = nil, want error for wrong signature")
	}

	if err := VerifySignature(secret, body, ""); err == nil {
		t.Error("VerifySignature() error = nil, want error for missing signature")
	}

	// Blank secret disables verification
	if err := VerifySignature("", body, ""); err != nil {
		t.Errorf("VerifySignature() error = %v, want nil when secret unset", err)
	}
}

func TestSignatureHeader(t *testing.T) {
	if got := SignatureHeader("retell"); got != "X-Retell-Signature" {
		t.Errorf("SignatureHeader(retell) = %q", got)
	}
	if got := SignatureHeader("unknown"); got != "" {
		t.Errorf("SignatureHeader(unknown) = %q, want empty", got)
	}
}
