package registry

import (
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"cinestream/internal/media"
	"cinestream/internal/state"
)

// countingStore records reads and writes so tests can check there is no
// read-back after the initial mount.
type countingStore struct {
	mu     sync.Mutex
	values map[string]string
	reads  int
	writes []string
}

func newCountingStore(initial map[string]string) *countingStore {
	s := &countingStore{values: map[string]string{}}
	for k, v := range initial {
		s.values[k] = v
	}
	return s
}

func (s *countingStore) Read(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	return s.values[key]
}

func (s *countingStore) Write(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.writes = append(s.writes, value)
}

func TestNewSeedsFromStore(t *testing.T) {
	r := New(newCountingStore(map[string]string{"lang": "fr"}))
	require.Equal(t, media.Selection{Language: "fr", Origin: media.OriginURL}, r.Current())
}

func TestNewWithoutStoredLanguage(t *testing.T) {
	r := New(newCountingStore(nil))
	require.True(t, r.Current().Language.Unset())
	require.Empty(t, r.Available())
}

func TestSetAvailableAssignsDefault(t *testing.T) {
	nav := state.NavigatorFunc(func(string) {})
	q := state.NewQuery(url.Values{}, nav, 0)
	r := New(q)

	var seen []media.Selection
	r.OnChange(func(sel media.Selection) { seen = append(seen, sel) })

	sel, assigned := r.SetAvailable([]media.LanguageTag{"en", "fr"})
	require.True(t, assigned)
	require.Equal(t, media.Selection{Language: "en", Origin: media.OriginDefault}, sel)
	require.Equal(t, "en", q.Read(LangKey), "default must be written through")
	require.Equal(t, []media.Selection{sel}, seen)
}

func TestSetAvailableKeepsMemberSelection(t *testing.T) {
	store := newCountingStore(map[string]string{"lang": "fr"})
	r := New(store)

	sel, assigned := r.SetAvailable([]media.LanguageTag{"en", "fr"})
	require.False(t, assigned)
	require.Equal(t, media.LanguageTag("fr"), sel.Language)
	require.Equal(t, media.OriginURL, sel.Origin)
	require.Empty(t, store.writes, "no write when nothing changed")
}

func TestSetAvailableReplacesForeignSelection(t *testing.T) {
	store := newCountingStore(map[string]string{"lang": "de"})
	r := New(store)

	sel, assigned := r.SetAvailable([]media.LanguageTag{"en", "es"})
	require.True(t, assigned)
	require.Equal(t, media.LanguageTag("en"), sel.Language)
	require.Equal(t, []string{"en"}, store.writes)
}

func TestSetAvailableEmptyLeavesSelection(t *testing.T) {
	r := New(newCountingStore(map[string]string{"lang": "de"}))

	sel, assigned := r.SetAvailable(nil)
	require.False(t, assigned)
	require.Equal(t, media.LanguageTag("de"), sel.Language, "stale value tolerated before languages are known")
}

func TestSetAvailableReplacesSet(t *testing.T) {
	r := New(nil)
	r.SetAvailable([]media.LanguageTag{"en", "fr"})
	r.SetAvailable([]media.LanguageTag{"es"})
	require.Equal(t, []media.LanguageTag{"es"}, r.Available())
	require.Equal(t, media.LanguageTag("es"), r.Current().Language)
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name      string
		available []media.LanguageTag
		lang      media.LanguageTag
		wantErr   error
	}{
		{"empty rejected", nil, "", ErrEmptyLanguage},
		{"any tag before languages are known", nil, "fr", nil},
		{"member accepted", []media.LanguageTag{"en", "fr"}, "fr", nil},
		{"non-member rejected", []media.LanguageTag{"en", "fr"}, "de", ErrUnknownLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(newCountingStore(nil))
			r.SetAvailable(tt.available)

			err := r.Select(tt.lang, media.OriginUser)
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr), "error = %v, want %v", err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, media.Selection{Language: tt.lang, Origin: media.OriginUser}, r.Current())
		})
	}
}

func TestSelectWritesThroughWithoutReadBack(t *testing.T) {
	store := newCountingStore(nil)
	r := New(store)
	readsAtMount := store.reads

	var notified int
	r.OnChange(func(media.Selection) { notified++ })

	require.NoError(t, r.Select("fr", media.OriginUser))
	require.NoError(t, r.Select("es", media.OriginUser))

	require.Equal(t, []string{"fr", "es"}, store.writes)
	require.Equal(t, readsAtMount, store.reads, "registry must not read external state after mount")
	require.Equal(t, 2, notified)
}

func TestSelectSameLanguageIsNoop(t *testing.T) {
	store := newCountingStore(map[string]string{"lang": "fr"})
	r := New(store)

	var notified int
	r.OnChange(func(media.Selection) { notified++ })

	require.NoError(t, r.Select("fr", media.OriginUser))
	require.Zero(t, notified)
	require.Empty(t, store.writes)
}

func TestObserversAddedDuringNotifyWaitForNextChange(t *testing.T) {
	r := New(newCountingStore(nil))

	var late []media.LanguageTag
	var once sync.Once
	r.OnChange(func(media.Selection) {
		once.Do(func() {
			r.OnChange(func(sel media.Selection) { late = append(late, sel.Language) })
		})
	})

	require.NoError(t, r.Select("fr", media.OriginUser))
	require.Empty(t, late, "observer registered mid-notify misses the current change")

	require.NoError(t, r.Select("es", media.OriginUser))
	require.Equal(t, []media.LanguageTag{"es"}, late)
}

func TestRemountRoundTrip(t *testing.T) {
	// First mount: the user picks French, which lands in the address.
	var address string
	nav := state.NavigatorFunc(func(q string) { address = q })
	first := New(state.NewQuery(url.Values{}, nav, 0))
	first.SetAvailable([]media.LanguageTag{"en", "fr"})
	require.NoError(t, first.Select("fr", media.OriginUser))
	require.Equal(t, "lang=fr", address)

	// Remount from the same address.
	values, err := url.ParseQuery(address)
	require.NoError(t, err)
	second := New(state.NewQuery(values, nav, 0))
	require.Equal(t, media.LanguageTag("fr"), second.Current().Language)

	_, assigned := second.SetAvailable([]media.LanguageTag{"en", "fr"})
	require.False(t, assigned, "resolution must not overwrite the restored selection")
	require.Equal(t, media.LanguageTag("fr"), second.Current().Language)
	require.Equal(t, "lang=fr", address)
}
