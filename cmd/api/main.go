package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/account-recovery/internal/application/credentials"
	"github.com/account-recovery/internal/application/otp"
	"github.com/account-recovery/internal/application/questions"
	"github.com/account-recovery/internal/application/recovery"
	"github.com/account-recovery/internal/application/verification"
	"github.com/account-recovery/internal/config"
	"github.com/account-recovery/internal/infrastructure/dynamo"
	jwtinfra "github.com/account-recovery/internal/infrastructure/jwt"
	"github.com/account-recovery/internal/infrastructure/kv"
	"github.com/account-recovery/internal/infrastructure/metrics"
	"github.com/account-recovery/internal/infrastructure/recaptcha"
	"github.com/account-recovery/internal/infrastructure/smtp"
	"github.com/account-recovery/internal/infrastructure/sns"
	"github.com/account-recovery/internal/infrastructure/supabase"
	"github.com/account-recovery/internal/infrastructure/whatsapp"
	transporthttp "github.com/account-recovery/internal/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	supa "github.com/supabase-community/supabase-go"
)

// stores groups the persistence backends selected by STORE_DRIVER.
type stores struct {
	tokens    verification.TokenStore
	questions questions.Store
	answers   recovery.AnswerStore
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	ctx := context.Background()

	var dynamoClient *dynamodb.Client
	if cfg.StoreDriver == config.DriverDynamo || cfg.CredentialDriver == config.DriverDynamo {
		c, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			log.Fatalf("dynamo client: %v", err)
		}
		dynamoClient = c
		// Bootstrap DynamoDB tables (creates them if they don't exist).
		dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables, cfg.CredentialDriver == config.DriverDynamo)
	}

	var supaClient *supa.Client
	if cfg.StoreDriver == config.DriverSupabase || cfg.CredentialDriver == config.DriverSupabase {
		c, err := supabase.NewClient(cfg)
		if err != nil {
			log.Fatalf("supabase client: %v", err)
		}
		supaClient = c
	}

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("jwt provider: %v", err)
	}

	mailer := smtp.NewMailer(cfg)

	st := buildStores(cfg, dynamoClient, supaClient)
	creds := buildCredentials(cfg, dynamoClient, supaClient, mailer)

	sender, err := buildSender(ctx, cfg)
	if err != nil {
		log.Fatalf("otp channel: %v", err)
	}

	var challenge recovery.Challenge = recaptcha.NewVerifier(cfg.RecaptchaSecret, cfg.RecaptchaVerifyURL)
	if cfg.RecaptchaSecret == "" {
		log.Println("WARN: RECAPTCHA_SECRET_KEY not set, bot verification disabled")
		challenge = recaptcha.Disabled{}
	}

	sessionKV, closeKV, err := buildKV(ctx, cfg)
	if err != nil {
		log.Fatalf("session store: %v", err)
	}
	defer closeKV()

	recorder := metrics.New()
	questionSvc := questions.NewService(st.questions)

	recoverySvc := recovery.NewService(recovery.ServiceDeps{
		Sessions:    recovery.NewSessionStore(sessionKV, cfg.SessionTTL),
		Credentials: creds,
		Challenge:   challenge,
		Verification: verification.NewService(verification.ServiceDeps{
			Tokens:    st.tokens,
			Mailer:    mailer,
			PortalURL: cfg.PortalURL,
			OrgName:   cfg.OrgName,
			TTL:       cfg.VerificationTokenTTL,
		}),
		OTP:       otp.NewService(otp.ServiceDeps{Sender: sender, OrgName: cfg.OrgName}),
		Questions: questionSvc,
		Answers:   st.answers,
		Metrics:   recorder,
	})

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		Recovery:    recoverySvc,
		Questions:   questionSvc,
		JWTProvider: jwtProvider,
		Metrics:     recorder.Handler(),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s, store=%s, credentials=%s, channel=%s)",
			cfg.AppPort, cfg.AppEnv, cfg.StoreDriver, cfg.CredentialDriver, cfg.ChannelDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

func buildStores(cfg *config.Config, dynamoClient *dynamodb.Client, supaClient *supa.Client) stores {
	if cfg.StoreDriver == config.DriverSupabase {
		return stores{
			tokens:    supabase.NewTokenRepo(supaClient),
			questions: supabase.NewQuestionRepo(supaClient),
			answers:   supabase.NewAnswerRepo(supaClient),
		}
	}
	return stores{
		tokens:    dynamo.NewVerificationTokenRepo(dynamoClient, cfg.DynamoTables.VerificationTokens),
		questions: dynamo.NewSecurityQuestionRepo(dynamoClient, cfg.DynamoTables.SecurityQuestions),
		answers:   dynamo.NewSecurityAnswerRepo(dynamoClient, cfg.DynamoTables.SecurityAnswers),
	}
}

func buildCredentials(cfg *config.Config, dynamoClient *dynamodb.Client, supaClient *supa.Client, mailer smtp.Mailer) recovery.CredentialStore {
	if cfg.CredentialDriver == config.DriverDynamo {
		users := dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users)
		return credentials.NewLocalStore(users, mailer, cfg.OrgName, cfg.PortalURL)
	}
	return supabase.NewCredentialStore(supaClient.Auth)
}

func buildSender(ctx context.Context, cfg *config.Config) (otp.Sender, error) {
	var sender whatsapp.Sender
	switch cfg.ChannelDriver {
	case config.DriverTwilio:
		sender = whatsapp.NewTwilio(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom)
	case config.DriverSNS:
		s, err := sns.NewSender(ctx, cfg)
		if err != nil {
			return nil, err
		}
		sender = s
	default:
		sender = whatsapp.NewCallMeBot(cfg.CallMeBotBaseURL, cfg.CallMeBotAPIKey)
	}
	if cfg.SimulateDeliveryOnUnreachable && !cfg.IsProduction() {
		log.Println("WARN: unreachable delivery providers will be reported as delivered")
		return whatsapp.NewSimulated(sender), nil
	}
	return sender, nil
}

func buildKV(ctx context.Context, cfg *config.Config) (recovery.KV, func(), error) {
	if cfg.RedisURL == "" {
		log.Println("REDIS_URL not set, recovery sessions are kept in process memory")
		return kv.NewMemory(), func() {}, nil
	}
	r, err := kv.NewRedisFromURL(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return r, func() { _ = r.Close() }, nil
}
