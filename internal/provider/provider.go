// Package provider defines the interface for upstream stream resolvers
// and their implementations.
package provider

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"cinestream/internal/config"
	"cinestream/internal/media"
)

// Provider resolves a title into a playable stream.
//
// Resolve never returns an error: missing data, transport failures and
// malformed responses all come back as a Result with OK set to false.
// Callers must serialize or tag concurrent calls themselves.
type Provider interface {
	// Name returns the provider family name, e.g. "8stream".
	Name() string

	// Resolve fetches the stream for ref in the requested language.
	Resolve(ctx context.Context, ref media.Ref, lang media.LanguageTag) media.Result
}

// Set maps provider family names to providers.
type Set map[string]Provider

// Lookup returns the provider registered under name (case-insensitive).
func (s Set) Lookup(name string) (Provider, bool) {
	p, ok := s[strings.ToLower(name)]
	return p, ok
}

// NewSet builds both provider families from configuration.
func NewSet(cfg *config.Config, client *http.Client, logger *zap.Logger) Set {
	return Set{
		config.APIEightStream: NewEightStream(cfg.EightStreamBase, client, logger),
		config.APIConsumet:    NewConsumet(cfg.ConsumetBase, client, logger),
	}
}
