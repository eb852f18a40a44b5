package subtitle

import (
	"testing"

	"cinestream/internal/media"
)

func TestFilter(t *testing.T) {
	subs := []media.SubtitleTrack{
		{Language: "English"},
		{Language: "English - SDH"},
		{Language: "Spanish"},
		{Language: "fr"},
	}

	tests := []struct {
		lang     media.LanguageTag
		expected int
	}{
		{"english", 2},
		{"en", 2},
		{"spanish", 1},
		{"french", 1},
		{"fr", 1},
		{"german", 0},
		{"", 4},
	}

	for _, tt := range tests {
		t.Run(string(tt.lang), func(t *testing.T) {
			got := Filter(subs, tt.lang)
			if len(got) != tt.expected {
				t.Errorf("Filter(%q) returned %d subs, want %d", tt.lang, len(got), tt.expected)
			}
		})
	}
}

func TestBestMatch(t *testing.T) {
	subs := []media.SubtitleTrack{
		{Language: "English - SDH", URL: "https://example.com/sdh.vtt"},
		{Language: "English", URL: "https://example.com/en.vtt"},
		{Language: "Spanish", URL: "https://example.com/es.vtt"},
	}

	// Should prefer non-SDH English
	best := BestMatch(subs, "en")
	if best == nil {
		t.Fatal("BestMatch returned nil for en")
	}
	if best.URL != "https://example.com/en.vtt" {
		t.Errorf("BestMatch preferred %q, want the non-SDH track", best.URL)
	}

	// Spanish
	best = BestMatch(subs, "spanish")
	if best == nil {
		t.Fatal("BestMatch returned nil for spanish")
	}
	if best.Language != "Spanish" {
		t.Errorf("got language %q, want Spanish", best.Language)
	}

	// No match
	best = BestMatch(subs, "japanese")
	if best != nil {
		t.Error("BestMatch should return nil for unmatched language")
	}
}

func TestPick(t *testing.T) {
	subs := []media.SubtitleTrack{
		{Language: "English", URL: "https://example.com/en.vtt", Format: "vtt"},
		{Language: "Spanish", URL: "https://example.com/es.srt", Format: "srt"},
		{Language: "French", URL: "https://example.com/fr.vtt", Format: "vtt"},
	}

	tests := []struct {
		name      string
		current   media.LanguageTag
		preferred media.LanguageTag
		want      string
	}{
		{"current language wins", "fr", "english", "https://example.com/fr.vtt"},
		{"falls back to preference", "de", "english", "https://example.com/en.vtt"},
		{"non-vtt tracks skipped", "es", "", ""},
		{"nothing requested", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Pick(subs, tt.current, tt.preferred)
			gotURL := ""
			if got != nil {
				gotURL = got.URL
			}
			if gotURL != tt.want {
				t.Errorf("Pick(%q, %q) = %q, want %q", tt.current, tt.preferred, gotURL, tt.want)
			}
		})
	}
}
