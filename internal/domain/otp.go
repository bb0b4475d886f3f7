package domain

import "time"

// OtpRecord is the outstanding one-time code of a recovery session.
type OtpRecord struct {
	Code        string    `json:"code"`
	Destination string    `json:"destination"`
	IssuedAt    time.Time `json:"issued_at"`
}
