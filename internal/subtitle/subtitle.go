// Package subtitle picks the subtitle track to hand to the player.
package subtitle

import (
	"strings"

	"cinestream/internal/media"
)

// Filter returns subtitles matching the preferred language. Codes and English
// names are interchangeable, so "en" matches a track labelled "English".
func Filter(subtitles []media.SubtitleTrack, language media.LanguageTag) []media.SubtitleTrack {
	if language.Unset() {
		return subtitles
	}

	want := strings.ToLower(language.Label())
	var matched []media.SubtitleTrack

	for _, sub := range subtitles {
		if sub.Language.Matches(language) ||
			strings.Contains(strings.ToLower(string(sub.Language)), want) {
			matched = append(matched, sub)
		}
	}

	return matched
}

// BestMatch returns the best matching subtitle for the given language.
// Prefers tracks not marked SDH or forced, then the first match.
func BestMatch(subtitles []media.SubtitleTrack, language media.LanguageTag) *media.SubtitleTrack {
	filtered := Filter(subtitles, language)
	if len(filtered) == 0 {
		return nil
	}

	for _, sub := range filtered {
		label := strings.ToLower(string(sub.Language))
		if !strings.Contains(label, "sdh") && !strings.Contains(label, "forced") {
			return &sub
		}
	}

	return &filtered[0]
}

// Pick chooses the track for playback: the current language first, then the
// configured preference. Only VTT tracks are considered.
func Pick(subtitles []media.SubtitleTrack, current, preferred media.LanguageTag) *media.SubtitleTrack {
	var vtt []media.SubtitleTrack
	for _, sub := range subtitles {
		if sub.URL != "" && (sub.Format == "" || strings.EqualFold(sub.Format, media.FormatVTT)) {
			vtt = append(vtt, sub)
		}
	}

	for _, lang := range []media.LanguageTag{current, preferred} {
		if lang.Unset() {
			continue
		}
		if best := BestMatch(vtt, lang); best != nil {
			return best
		}
	}
	return nil
}
