package setup

import (
	"context"

	"github.com/breemind-dev/breemind/internal/config"
	"github.com/breemind-dev/breemind/internal/handler"
	"github.com/breemind-dev/breemind/internal/mailer"
	"github.com/breemind-dev/breemind/internal/password"
	"github.com/breemind-dev/breemind/internal/service"
	"github.com/breemind-dev/breemind/internal/session"
	"github.com/breemind-dev/breemind/internal/signing"
	"github.com/breemind-dev/breemind/internal/storage/pg"
)

// Dependencies holds all initialized application collaborators.
type Dependencies struct {
	Config  *config.Config
	Storage *pg.Storage
	Handler *handler.Handler
	Session session.TokenIssuer
}

// SetupDependencies wires storage, token machinery, the auth service and the
// HTTP handler together. The caller owns Storage.Cleanup.
func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	signer := signing.New(cfg.SigningKey())
	policy := &password.DefaultPolicy{MinLength: cfg.Public.PasswordMinLength}
	hasher := &password.Bcrypt{}
	auth := service.NewAuth(storage, signer, policy, hasher, &cfg.Public)

	sess := session.New(cfg.JwtKey(), cfg.Public.SessionTTL)

	var m mailer.Mailer
	if cfg.SMTPConfigured() {
		m = mailer.New(&cfg.Private.Email)
	}

	h := handler.New(auth, sess, m, storage, cfg)

	return &Dependencies{
		Config:  cfg,
		Storage: storage,
		Handler: h,
		Session: sess,
	}, nil
}
