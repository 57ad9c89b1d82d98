package handler

import (
	"context"

	"github.com/breemind-dev/breemind/internal/config"
	"github.com/breemind-dev/breemind/internal/mailer"
	"github.com/breemind-dev/breemind/internal/service"
	"github.com/breemind-dev/breemind/internal/session"
)

// Pinger reports storage health for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	auth    service.AuthService
	session session.TokenIssuer
	mailer  mailer.Mailer // nil when SMTP is not configured
	health  Pinger
	cfg     *config.Config
}

func New(auth service.AuthService, session session.TokenIssuer, mailer mailer.Mailer, health Pinger, cfg *config.Config) *Handler {
	return &Handler{auth, session, mailer, health, cfg}
}
