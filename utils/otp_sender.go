package utils

import (
	"fmt"
	"time"
)

// OtpSender delivers verification codes over SMTP. It satisfies the
// engine's sender contract; delivery failures are the caller's to log, not
// to fail on.
type OtpSender struct{}

// Send emails the code with a per-address cooldown so a stuck client cannot
// flood an inbox. A cooled-down send is treated as delivered.
func (OtpSender) Send(email, code string) error {
	if !EmailCooldownTrySet(email, 60*time.Second) {
		Sugar.Warnw("otp email suppressed by cooldown", "email", email)
		return nil
	}
	subject := "Email Verification OTP"
	body := fmt.Sprintf("Welcome to AquaMetrics!\n\nYour One-Time Password is: %s\n\nThis OTP is valid for 10 minutes. If you did not request this verification, please ignore this email.", code)
	return SendMail(email, subject, body)
}
