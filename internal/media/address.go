package media

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrMissingEpisode is returned when a series address names no season/episode.
var ErrMissingEpisode = errors.New("series address needs a season and episode")

// Address is a parsed watch address such as
// "watch/series/tt0903747/1-2?lang=en".
type Address struct {
	Ref   Ref
	Query url.Values // Remaining addressable state; "lang" lives here
}

// ParseAddress parses "[watch/]<kind>/<imdb>[/<season>-<episode>][?query]".
// When the composite segment is absent, the "season" and "episode" query
// parameters are used instead. The "id" query parameter carries the
// consumet-family id and defaults to the IMDb id.
func ParseAddress(raw string) (Address, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Address{}, fmt.Errorf("malformed address: %w", err)
	}

	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if len(segments) > 0 && segments[0] == "watch" {
		segments = segments[1:]
	}
	if len(segments) < 2 || len(segments) > 3 {
		return Address{}, fmt.Errorf("address %q: want <kind>/<imdb>[/<season>-<episode>]", raw)
	}

	kind, err := ParseKind(segments[0])
	if err != nil {
		return Address{}, err
	}

	query := u.Query()
	ref := Ref{
		IMDbID:     segments[1],
		Kind:       kind,
		ProviderID: query.Get("id"),
	}
	if ref.ProviderID == "" {
		ref.ProviderID = ref.IMDbID
	}

	var seasonStr, episodeStr string
	if len(segments) == 3 {
		parts := strings.Split(segments[2], "-")
		if len(parts) != 2 {
			return Address{}, fmt.Errorf("season-episode segment %q: want <season>-<episode>", segments[2])
		}
		seasonStr, episodeStr = parts[0], parts[1]
	} else {
		seasonStr, episodeStr = query.Get("season"), query.Get("episode")
	}

	if kind == Series {
		if seasonStr == "" || episodeStr == "" {
			return Address{}, ErrMissingEpisode
		}
		if ref.Season, err = parsePositive("season", seasonStr); err != nil {
			return Address{}, err
		}
		if ref.Episode, err = parsePositive("episode", episodeStr); err != nil {
			return Address{}, err
		}
	}

	return Address{Ref: ref, Query: query}, nil
}

// Path renders the address path without the query.
func (a Address) Path() string {
	p := fmt.Sprintf("watch/%s/%s", a.Ref.Kind, a.Ref.IMDbID)
	if a.Ref.Kind == Series {
		p += fmt.Sprintf("/%d-%d", a.Ref.Season, a.Ref.Episode)
	}
	return p
}

// String renders the full address including the query.
func (a Address) String() string {
	if enc := a.Query.Encode(); enc != "" {
		return a.Path() + "?" + enc
	}
	return a.Path()
}

func parsePositive(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return n, nil
}
