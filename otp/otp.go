// Package otp manages the one-time-password lifecycle on a user record:
// NONE -> ISSUED -> VERIFIED | EXPIRED | NONE. Codes and expiries live and
// die together; a code is usable at most once.
package otp

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
	"time"

	"github.com/aquametrics/aquametrics/models"
	"github.com/aquametrics/aquametrics/rewards"
)

const (
	codeMin = 100000
	codeMax = 999999

	// Validity is the issuance-to-expiry window.
	Validity = 10 * time.Minute
)

var (
	// ErrNotFound means no code is pending on the record.
	ErrNotFound = errors.New("no otp pending")
	// ErrMismatch means the supplied code does not equal the pending one.
	ErrMismatch = errors.New("otp mismatch")
	// ErrExpired means the pending code's validity window has passed.
	ErrExpired = errors.New("otp expired")
)

// GenerateCode returns a uniformly random six-digit code in
// [100000, 999999].
func GenerateCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		// crypto/rand failure is effectively unrecoverable; fall back to a
		// time-derived code rather than refuse issuance.
		return strconv.FormatInt(codeMin+time.Now().UnixNano()%(codeMax-codeMin+1), 10)
	}
	return strconv.FormatInt(codeMin+n.Int64(), 10)
}

// Issue puts a fresh code on the record, replacing any pending one, and
// returns it. The caller persists the record.
func Issue(rec *models.User, now time.Time) string {
	code := GenerateCode()
	rec.SetOtp(code, now.Add(Validity))
	return code
}

// Verify checks supplied against the pending code at now. Mismatch is
// reported before expiry, matching how verification has always behaved
// here. On success the code and expiry are cleared together and the
// record's verification flag is set; the flag is sticky and later OTP
// cycles never unset it. The caller persists the record.
func Verify(rec *models.User, supplied string, now time.Time) error {
	if !rec.HasOtp() {
		return ErrNotFound
	}
	if *rec.Otp != supplied {
		return ErrMismatch
	}
	if rewards.Expired(*rec.OtpExpiration, now) {
		return ErrExpired
	}
	rec.ClearOtp()
	rec.IsVerified = true
	return nil
}

// Consume clears any pending code without verifying it, used when a
// password reset supersedes the OTP cycle.
func Consume(rec *models.User) {
	rec.ClearOtp()
}
