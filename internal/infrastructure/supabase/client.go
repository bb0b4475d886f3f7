// Package supabase binds the recovery flow to a hosted Supabase project:
// GoTrue admin for identities and PostgREST for the recovery tables.
package supabase

import (
	"fmt"

	"github.com/account-recovery/internal/config"
	postgrest "github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"
)

// Table names used by the PostgREST repositories.
const (
	tableVerificationTokens = "verification_tokens"
	tableSecurityQuestions  = "security_questions"
	tableSecurityAnswers    = "user_security_answers"
)

// Rest is the PostgREST entry point shared by *supa.Client and *postgrest.Client.
type Rest interface {
	From(table string) *postgrest.QueryBuilder
}

// NewClient builds a service-role client for cfg.SupabaseURL.
func NewClient(cfg *config.Config) (*supa.Client, error) {
	client, err := supa.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return client, nil
}
