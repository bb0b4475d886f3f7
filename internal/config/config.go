package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

const envProduction = "production"

// Store and delivery drivers selectable through the environment.
const (
	DriverDynamo    = "dynamo"
	DriverSupabase  = "supabase"
	DriverCallMeBot = "callmebot"
	DriverTwilio    = "twilio"
	DriverSNS       = "sns"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string
	AppEnv         string
	OrgName        string
	PortalURL      string // base URL of the recovery portal, used in claim links
	AllowedOrigins []string
	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-Ip. Only enable it behind a proxy that overwrites those headers.
	TrustProxyHeaders bool

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	// CredentialDriver selects the identity store: "supabase" or "dynamo".
	CredentialDriver string
	// StoreDriver selects where tokens, questions and answers live: "dynamo" or "supabase".
	StoreDriver        string
	SupabaseURL        string
	SupabaseServiceKey string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	RedisURL   string // empty selects the in-process store
	SessionTTL time.Duration

	VerificationTokenTTL time.Duration

	RecaptchaSecret    string
	RecaptchaVerifyURL string

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	// ChannelDriver selects the OTP delivery channel: "callmebot", "twilio" or "sns".
	ChannelDriver    string
	CallMeBotBaseURL string
	CallMeBotAPIKey  string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
	SNSRegion        string
	// SimulateDeliveryOnUnreachable reports success when the delivery provider
	// cannot be reached. Refused in production by Validate.
	SimulateDeliveryOnUnreachable bool
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users              string
	VerificationTokens string
	SecurityQuestions  string
	SecurityAnswers    string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	sessionTTL := time.Duration(getEnvInt("RECOVERY_SESSION_TTL_MINUTES", 30)) * time.Minute
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		OrgName:        getEnv("ORG_NAME", "MTI"),
		PortalURL:      strings.TrimRight(getEnv("PORTAL_URL", "http://localhost:5173"), "/"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),

		TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:              getEnv("DYNAMO_TABLE_USERS", "users"),
			VerificationTokens: getEnv("DYNAMO_TABLE_VERIFICATION_TOKENS", "verification_tokens"),
			SecurityQuestions:  getEnv("DYNAMO_TABLE_SECURITY_QUESTIONS", "security_questions"),
			SecurityAnswers:    getEnv("DYNAMO_TABLE_USER_SECURITY_ANSWERS", "user_security_answers"),
		},

		CredentialDriver:   getEnv("CREDENTIAL_DRIVER", DriverSupabase),
		StoreDriver:        getEnv("STORE_DRIVER", DriverDynamo),
		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         sessionTTL,

		RedisURL:   getEnv("REDIS_URL", ""),
		SessionTTL: sessionTTL,

		VerificationTokenTTL: time.Duration(getEnvInt("VERIFICATION_TOKEN_TTL_HOURS", 24)) * time.Hour,

		RecaptchaSecret:    getEnv("RECAPTCHA_SECRET_KEY", ""),
		RecaptchaVerifyURL: getEnv("RECAPTCHA_VERIFY_URL", "https://www.google.com/recaptcha/api/siteverify"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		ChannelDriver:    getEnv("CHANNEL_DRIVER", DriverCallMeBot),
		CallMeBotBaseURL: getEnv("CALLMEBOT_BASE_URL", "https://api.callmebot.com"),
		CallMeBotAPIKey:  getEnv("CALLMEBOT_API_KEY", ""),
		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFrom:       getEnv("TWILIO_WHATSAPP_FROM", ""),
		SNSRegion:        getEnv("SNS_REGION", "us-east-1"),

		SimulateDeliveryOnUnreachable: getEnvBool("DELIVERY_SIMULATE_ON_UNREACHABLE", false),
	}
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == envProduction
}

// Validate rejects configurations that must never reach a production deployment.
func (c *Config) Validate() error {
	var errs []error
	if c.IsProduction() {
		if c.SimulateDeliveryOnUnreachable {
			errs = append(errs, errors.New("DELIVERY_SIMULATE_ON_UNREACHABLE cannot be enabled in production"))
		}
		if c.RecaptchaSecret == "" {
			errs = append(errs, errors.New("RECAPTCHA_SECRET_KEY is required in production"))
		}
	}
	switch c.CredentialDriver {
	case DriverSupabase, DriverDynamo:
	default:
		errs = append(errs, errors.New("CREDENTIAL_DRIVER must be supabase or dynamo"))
	}
	switch c.StoreDriver {
	case DriverSupabase, DriverDynamo:
	default:
		errs = append(errs, errors.New("STORE_DRIVER must be dynamo or supabase"))
	}
	switch c.ChannelDriver {
	case DriverCallMeBot, DriverTwilio, DriverSNS:
	default:
		errs = append(errs, errors.New("CHANNEL_DRIVER must be callmebot, twilio or sns"))
	}
	if (c.CredentialDriver == DriverSupabase || c.StoreDriver == DriverSupabase) &&
		(c.SupabaseURL == "" || c.SupabaseServiceKey == "") {
		errs = append(errs, errors.New("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required for the supabase driver"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
