package otp

import (
	"context"

	"github.com/rs/zerolog"
)

// Mailer delivers a one-time code to an email address.
type Mailer interface {
	SendCode(ctx context.Context, email, code string) error
}

// LogMailer writes codes to the log instead of sending email.
type LogMailer struct {
	Logger zerolog.Logger
}

// SendCode implements Mailer.
func (m LogMailer) SendCode(_ context.Context, email, code string) error {
	m.Logger.Info().Str("email", email).Str("code", code).Msg("One-time code issued")
	return nil
}
