package media

import (
	"errors"
	"testing"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantKind    Kind
		wantIMDb    string
		wantSeason  int
		wantEpisode int
		wantLang    string
		wantErr     bool
	}{
		{"movie", "movie/tt0111161", Movie, "tt0111161", 0, 0, "", false},
		{"movie with watch prefix", "/watch/movie/tt0111161?lang=fr", Movie, "tt0111161", 0, 0, "fr", false},
		{"series composite", "series/tt0903747/1-2", Series, "tt0903747", 1, 2, "", false},
		{"tv alias", "tv/tt0903747/3-10?lang=en", Series, "tt0903747", 3, 10, "en", false},
		{"series query fallback", "series/tt0903747?season=2&episode=5", Series, "tt0903747", 2, 5, "", false},
		{"composite wins over query", "series/tt0903747/1-2?season=9&episode=9", Series, "tt0903747", 1, 2, "", false},
		{"series missing episode", "series/tt0903747", Series, "", 0, 0, "", true},
		{"bad composite", "series/tt0903747/1x2", Series, "", 0, 0, "", true},
		{"zero season", "series/tt0903747/0-2", Series, "", 0, 0, "", true},
		{"unknown kind", "anime/tt1", Movie, "", 0, 0, "", true},
		{"too short", "movie", Movie, "", 0, 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := ParseAddress(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAddress(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if addr.Ref.Kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", addr.Ref.Kind, tt.wantKind)
			}
			if addr.Ref.IMDbID != tt.wantIMDb {
				t.Errorf("imdb = %q, want %q", addr.Ref.IMDbID, tt.wantIMDb)
			}
			if addr.Ref.Season != tt.wantSeason || addr.Ref.Episode != tt.wantEpisode {
				t.Errorf("season/episode = %d/%d, want %d/%d",
					addr.Ref.Season, addr.Ref.Episode, tt.wantSeason, tt.wantEpisode)
			}
			if got := addr.Query.Get("lang"); got != tt.wantLang {
				t.Errorf("lang = %q, want %q", got, tt.wantLang)
			}
		})
	}
}

func TestParseAddressMissingEpisodeSentinel(t *testing.T) {
	_, err := ParseAddress("series/tt0903747")
	if !errors.Is(err, ErrMissingEpisode) {
		t.Errorf("error = %v, want ErrMissingEpisode", err)
	}
}

func TestParseAddressProviderID(t *testing.T) {
	addr, err := ParseAddress("movie/tt0111161")
	if err != nil {
		t.Fatal(err)
	}
	if addr.Ref.ProviderID != "tt0111161" {
		t.Errorf("provider id = %q, want imdb fallback", addr.Ref.ProviderID)
	}

	addr, err = ParseAddress("movie/tt0111161?id=movie-278")
	if err != nil {
		t.Fatal(err)
	}
	if addr.Ref.ProviderID != "movie-278" {
		t.Errorf("provider id = %q, want movie-278", addr.Ref.ProviderID)
	}
}

func TestAddressString(t *testing.T) {
	addr, err := ParseAddress("tv/tt0903747/1-2?lang=en&t=30")
	if err != nil {
		t.Fatal(err)
	}
	want := "watch/series/tt0903747/1-2?lang=en&t=30"
	if got := addr.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestRefKey(t *testing.T) {
	movie := Ref{IMDbID: "tt1", Kind: Movie}
	if movie.Key() != "tt1" {
		t.Errorf("movie key = %q", movie.Key())
	}
	ep := Ref{IMDbID: "tt2", Kind: Series, Season: 1, Episode: 2}
	if ep.Key() != "tt2:1-2" {
		t.Errorf("episode key = %q", ep.Key())
	}
	if ep.Title() != "tt2 S01E02" {
		t.Errorf("episode title = %q", ep.Title())
	}
}
