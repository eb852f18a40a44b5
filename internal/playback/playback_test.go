package playback

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"cinestream/internal/media"
)

func TestSettled(t *testing.T) {
	require.False(t, Snapshot{Phase: Pending}.Settled())
	require.False(t, Snapshot{Phase: Resolved, InFlight: true}.Settled())
	require.True(t, Snapshot{Phase: Resolved}.Settled())
	require.True(t, Snapshot{Phase: Error}.Settled())
}

func TestJSONSinkWritesOneObjectPerSnapshot(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONSink(&buf)

	sink.Render(Snapshot{Title: "tt0111161", Phase: Pending, InFlight: true, Generation: 1})
	sink.Render(Snapshot{
		Title:      "tt0111161",
		Phase:      Resolved,
		StreamURL:  "https://x.m3u8",
		Languages:  []media.LanguageTag{"en"},
		Selection:  media.Selection{Language: "en", Origin: media.OriginDefault},
		Generation: 1,
	})

	var got []map[string]any
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		got = append(got, m)
	}
	require.Len(t, got, 2)
	require.Equal(t, "pending", got[0]["phase"])
	require.NotContains(t, got[0], "stream_url")
	require.Equal(t, "https://x.m3u8", got[1]["stream_url"])
	require.Equal(t, map[string]any{"language": "en", "origin": "default"}, got[1]["selection"])
}

func TestObserverFunc(t *testing.T) {
	var got media.LanguageTag
	var obs LanguageObserver = ObserverFunc(func(tag media.LanguageTag) { got = tag })
	obs.OnLanguageSelected("fr")
	require.Equal(t, media.LanguageTag("fr"), got)
}
