package otp

import (
	"testing"
	"time"

	"github.com/aquametrics/aquametrics/models"
)

var issuedAt = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func TestGenerateCodeIsSixDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := GenerateCode()
		if len(code) != 6 {
			t.Fatalf("expected six digits, got %q", code)
		}
		if code[0] == '0' {
			t.Fatalf("code must not have a leading zero: %q", code)
		}
	}
}

func TestIssueSetsCodeAndExpiryTogether(t *testing.T) {
	rec := &models.User{}
	code := Issue(rec, issuedAt)
	if !rec.HasOtp() {
		t.Fatalf("expected a pending code after issue")
	}
	if *rec.Otp != code {
		t.Fatalf("returned code %q differs from stored %q", code, *rec.Otp)
	}
	if !rec.OtpExpiration.Equal(issuedAt.Add(Validity)) {
		t.Fatalf("expected expiry %v, got %v", issuedAt.Add(Validity), *rec.OtpExpiration)
	}
}

func TestIssueReplacesPendingCode(t *testing.T) {
	rec := &models.User{}
	first := Issue(rec, issuedAt)
	second := Issue(rec, issuedAt.Add(time.Minute))
	if first == second {
		t.Skip("codes collided")
	}

	if err := Verify(rec, first, issuedAt.Add(2*time.Minute)); err != ErrMismatch {
		t.Fatalf("superseded code must mismatch, got %v", err)
	}
	if err := Verify(rec, second, issuedAt.Add(2*time.Minute)); err != nil {
		t.Fatalf("latest code must verify, got %v", err)
	}
}

func TestVerifyWithinWindow(t *testing.T) {
	rec := &models.User{}
	code := Issue(rec, issuedAt)

	// One second before expiry still passes.
	if err := Verify(rec, code, issuedAt.Add(Validity-time.Second)); err != nil {
		t.Fatalf("verify inside window failed: %v", err)
	}
	if rec.HasOtp() {
		t.Fatalf("verify must clear the code and expiry")
	}
	if !rec.IsVerified {
		t.Fatalf("verify must set the verification flag")
	}
}

func TestVerifyPastWindow(t *testing.T) {
	rec := &models.User{}
	code := Issue(rec, issuedAt)

	if err := Verify(rec, code, issuedAt.Add(Validity+time.Second)); err != ErrExpired {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	// The expired code stays on the record until reissued or consumed.
	if !rec.HasOtp() {
		t.Fatalf("expired verify must not clear the code")
	}
	if rec.IsVerified {
		t.Fatalf("expired verify must not mark verified")
	}
}

func TestVerifyMismatchBeforeExpiry(t *testing.T) {
	rec := &models.User{}
	Issue(rec, issuedAt)

	// A wrong code past the window still reports mismatch, not expiry.
	if err := Verify(rec, "000000", issuedAt.Add(Validity+time.Hour)); err != ErrMismatch {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}
}

func TestVerifyIsSingleUse(t *testing.T) {
	rec := &models.User{}
	code := Issue(rec, issuedAt)
	if err := Verify(rec, code, issuedAt.Add(time.Minute)); err != nil {
		t.Fatalf("first verify failed: %v", err)
	}
	if err := Verify(rec, code, issuedAt.Add(2*time.Minute)); err != ErrNotFound {
		t.Fatalf("second verify must find nothing pending, got %v", err)
	}
}

func TestVerifiedFlagIsSticky(t *testing.T) {
	rec := &models.User{}
	code := Issue(rec, issuedAt)
	if err := Verify(rec, code, issuedAt.Add(time.Minute)); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	// A later cycle that expires must not unset the flag.
	Issue(rec, issuedAt.Add(time.Hour))
	Consume(rec)
	if !rec.IsVerified {
		t.Fatalf("verification flag must survive later cycles")
	}
}

func TestConsumeClearsWithoutVerifying(t *testing.T) {
	rec := &models.User{}
	Issue(rec, issuedAt)
	Consume(rec)
	if rec.HasOtp() {
		t.Fatalf("consume must clear the pending code")
	}
	if rec.IsVerified {
		t.Fatalf("consume must not mark verified")
	}
}
