package dynamo

// DynamoDB attribute names used in key, condition and update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldToken          = "token"
	fieldEmail          = "email"
	fieldExpiresAt      = "expires_at"
	fieldUsedAt         = "used_at"
	fieldID             = "id"
	fieldUserID         = "user_id"
	fieldPasswordHash   = "password_hash"
	fieldEmailConfirmed = "email_confirmed"
	fieldUpdatedAt      = "updated_at"
	fieldResetHash      = "reset_token_hash"
	fieldResetExpiresAt = "reset_expires_at"
)
