package http

import (
	"net/http"

	"github.com/account-recovery/internal/application/questions"
	"github.com/account-recovery/internal/application/recovery"
	jwtinfra "github.com/account-recovery/internal/infrastructure/jwt"
)

// Deps holds the services and infrastructure the router wires into handlers.
type Deps struct {
	Recovery    recovery.Service
	Questions   questions.Service
	JWTProvider *jwtinfra.Provider
	// Metrics serves /metrics when set.
	Metrics http.Handler
}
