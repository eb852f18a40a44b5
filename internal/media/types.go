// Package media defines shared types for the cinestream application.
package media

import (
	"fmt"
	"strings"
)

// Kind represents whether a title is a movie or a series.
type Kind int

const (
	Movie Kind = iota
	Series
)

func (k Kind) String() string {
	switch k {
	case Movie:
		return "movie"
	case Series:
		return "series"
	default:
		return "unknown"
	}
}

// ParseKind maps a route or flag value onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies":
		return Movie, nil
	case "series", "tv", "show":
		return Series, nil
	default:
		return Movie, fmt.Errorf("unknown media kind %q (valid: movie, series)", s)
	}
}

// Ref identifies the title being played. It is fixed for the lifetime of a mount.
type Ref struct {
	IMDbID     string // e.g., "tt0111161"
	Kind       Kind
	Provider   string // Provider family, e.g., "8stream" or "consumet"
	ProviderID string // Opaque id understood by the consumet family
	Season     int    // 0 when absent
	Episode    int    // 0 when absent
}

// Key returns a stable identity for the title, used for persistence.
func (r Ref) Key() string {
	if r.Kind == Series {
		return fmt.Sprintf("%s:%d-%d", r.IMDbID, r.Season, r.Episode)
	}
	return r.IMDbID
}

// Title returns a short display title: the IMDb id, with SxxEyy for episodes.
func (r Ref) Title() string {
	if r.Kind == Series {
		return fmt.Sprintf("%s S%02dE%02d", r.IMDbID, r.Season, r.Episode)
	}
	return r.IMDbID
}

// LanguageTag identifies an audio/subtitle track language. Empty means unset.
type LanguageTag string

// Unset reports whether no language has been chosen.
func (l LanguageTag) Unset() bool { return l == "" }

// SubtitleTrack is a single subtitle file offered by a provider.
type SubtitleTrack struct {
	Language LanguageTag `json:"language"`
	URL      string      `json:"url"`
	Format   string      `json:"format"` // Always "vtt" for the supported providers
}

// FormatVTT is the only subtitle format consumers accept.
const FormatVTT = "vtt"

// Result is the normalized outcome of one resolution attempt.
// It replaces any previous result wholesale.
type Result struct {
	OK        bool
	StreamURL string
	Subtitles []SubtitleTrack
	Languages []LanguageTag
}

// Miss returns the failed result used for every kind of provider failure.
func Miss() Result {
	return Result{}
}

// Origin records who set the current language.
type Origin string

const (
	OriginURL     Origin = "url"
	OriginDefault Origin = "default"
	OriginUser    Origin = "user"
)

// Selection is the currently selected language and where it came from.
type Selection struct {
	Language LanguageTag `json:"language"`
	Origin   Origin      `json:"origin"`
}

// Contains reports whether tag is in langs.
func Contains(langs []LanguageTag, tag LanguageTag) bool {
	for _, l := range langs {
		if l == tag {
			return true
		}
	}
	return false
}
