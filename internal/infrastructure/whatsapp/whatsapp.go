// Package whatsapp delivers OTP messages over WhatsApp providers.
package whatsapp

import (
	"errors"
	"net"
	"strings"
)

// ErrUnreachable marks failures where the provider could not be contacted at
// all, as opposed to the provider rejecting the message.
var ErrUnreachable = errors.New("delivery provider unreachable")

// digits strips everything but 0-9 from a phone number.
func digits(number string) string {
	var b strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsUnreachable reports whether err means the provider was never reached.
func IsUnreachable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnreachable) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}
