package http

import (
	"github.com/rs/zerolog"

	"github.com/verso-press/verso-backend/internal/session"
)

// CookieConfig describes the side-channel cookie the handlers write.
type CookieConfig struct {
	Name   string
	Secure bool
}

type Handler struct {
	resolver *session.Resolver
	flow     *session.SignInFlow
	verifier session.TokenVerifier
	cookie   CookieConfig
	log      zerolog.Logger
}

func New(resolver *session.Resolver, flow *session.SignInFlow, verifier session.TokenVerifier, cookie CookieConfig, log zerolog.Logger) *Handler {
	return &Handler{
		resolver: resolver,
		flow:     flow,
		verifier: verifier,
		cookie:   cookie,
		log:      log,
	}
}
