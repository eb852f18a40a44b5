package provider

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"cinestream/internal/config"
	"cinestream/internal/httputil"
	"cinestream/internal/logging"
	"cinestream/internal/media"
)

// EightStream implements the Provider interface for the 8stream API.
type EightStream struct {
	base   string // e.g., "https://8stream-api.vercel.app"
	client *http.Client
	logger *zap.Logger
}

// NewEightStream creates a new 8stream provider.
func NewEightStream(base string, client *http.Client, logger *zap.Logger) *EightStream {
	return &EightStream{
		base:   strings.TrimRight(base, "/"),
		client: client,
		logger: logging.Component(logger, "provider.8stream"),
	}
}

// Name returns the provider family name.
func (e *EightStream) Name() string { return config.APIEightStream }

// eightStreamResponse is the upstream shape:
// {"success":true,"data":{"link":"https://..."},"availableLang":["en","es"]}
type eightStreamResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Link string `json:"link"`
	} `json:"data"`
	AvailableLang []string `json:"availableLang"`
}

// Resolve fetches the stream link for a movie or an episode.
func (e *EightStream) Resolve(ctx context.Context, ref media.Ref, lang media.LanguageTag) media.Result {
	endpoint, err := e.endpoint(ref, lang)
	if err != nil {
		e.logger.Warn("rejecting request", zap.String("imdb", ref.IMDbID), zap.Error(err))
		return media.Miss()
	}

	var resp eightStreamResponse
	status, err := httputil.GetJSON(ctx, e.client, endpoint, &resp)
	if err != nil {
		e.logger.Warn("upstream request failed",
			zap.String("imdb", ref.IMDbID), zap.Int("status", status), zap.Error(err))
		return media.Miss()
	}

	// Success is judged on the body alone, whatever the status code.
	if !resp.Success || resp.Data.Link == "" {
		e.logger.Debug("no link in response",
			zap.String("imdb", ref.IMDbID), zap.Int("status", status), zap.Bool("success", resp.Success))
		return media.Miss()
	}

	langs := make([]media.LanguageTag, 0, len(resp.AvailableLang))
	for _, l := range resp.AvailableLang {
		if l != "" {
			langs = append(langs, media.LanguageTag(l))
		}
	}

	return media.Result{
		OK:        true,
		StreamURL: resp.Data.Link,
		Languages: langs,
	}
}

// endpoint builds the movie or episode URL. Movies carry no season/episode.
func (e *EightStream) endpoint(ref media.Ref, lang media.LanguageTag) (string, error) {
	if err := httputil.ValidateIMDbID(ref.IMDbID); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("id", ref.IMDbID)
	if !lang.Unset() {
		q.Set("lang", string(lang))
	}

	if ref.Kind == media.Movie {
		return httputil.BuildURL(e.base, q, "api", "v1", "movie"), nil
	}

	q.Set("season", strconv.Itoa(ref.Season))
	q.Set("episode", strconv.Itoa(ref.Episode))
	return httputil.BuildURL(e.base, q, "api", "v1", "episode"), nil
}
