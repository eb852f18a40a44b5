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

// Consumet implements the Provider interface for the consumet play API.
// It has no notion of language: the requested tag is ignored and no
// language list is reported.
type Consumet struct {
	base   string
	client *http.Client
	logger *zap.Logger
}

// NewConsumet creates a new consumet provider.
func NewConsumet(base string, client *http.Client, logger *zap.Logger) *Consumet {
	return &Consumet{
		base:   strings.TrimRight(base, "/"),
		client: client,
		logger: logging.Component(logger, "provider.consumet"),
	}
}

// Name returns the provider family name.
func (c *Consumet) Name() string { return config.APIConsumet }

// consumetResponse is the upstream shape:
// {"success":true,"data":{"sources":[{"url":"..."}],"subtitles":[{"language":"English","url":"...","format":"vtt"}]}}
type consumetResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Sources []struct {
			URL string `json:"url"`
		} `json:"sources"`
		Subtitles []struct {
			Language string `json:"language"`
			URL      string `json:"url"`
			Format   string `json:"format"`
		} `json:"subtitles"`
	} `json:"data"`
}

// Resolve fetches the source list and picks the last entry.
func (c *Consumet) Resolve(ctx context.Context, ref media.Ref, _ media.LanguageTag) media.Result {
	endpoint, err := c.endpoint(ref)
	if err != nil {
		c.logger.Warn("rejecting request", zap.String("id", ref.ProviderID), zap.Error(err))
		return media.Miss()
	}

	var resp consumetResponse
	status, err := httputil.GetJSON(ctx, c.client, endpoint, &resp)
	if err != nil {
		c.logger.Warn("upstream request failed",
			zap.String("id", ref.ProviderID), zap.Int("status", status), zap.Error(err))
		return media.Miss()
	}

	sources := resp.Data.Sources
	if !resp.Success || len(sources) == 0 {
		c.logger.Debug("no sources in response",
			zap.String("id", ref.ProviderID), zap.Int("status", status), zap.Bool("success", resp.Success))
		return media.Miss()
	}

	// Upstream lists sources in ascending preference; the last one wins.
	streamURL := sources[len(sources)-1].URL
	if streamURL == "" {
		c.logger.Debug("last source has no url", zap.String("id", ref.ProviderID))
		return media.Miss()
	}

	subtitles := make([]media.SubtitleTrack, 0, len(resp.Data.Subtitles))
	for _, s := range resp.Data.Subtitles {
		format := s.Format
		if format == "" {
			format = media.FormatVTT
		}
		subtitles = append(subtitles, media.SubtitleTrack{
			Language: media.LanguageTag(s.Language),
			URL:      s.URL,
			Format:   format,
		})
	}

	return media.Result{
		OK:        true,
		StreamURL: streamURL,
		Subtitles: subtitles,
	}
}

// endpoint builds the play URL. Movies carry no season/episode.
func (c *Consumet) endpoint(ref media.Ref) (string, error) {
	if err := httputil.ValidateID(ref.ProviderID); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("id", ref.ProviderID)
	q.Set("type", ref.Kind.String())
	if ref.Kind == media.Series {
		q.Set("episode", strconv.Itoa(ref.Episode))
		q.Set("season", strconv.Itoa(ref.Season))
	}

	return httputil.BuildURL(c.base, q, "api", "consumet", "play"), nil
}
