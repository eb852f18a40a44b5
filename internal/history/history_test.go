package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cinestream/internal/media"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// fixedClock returns successive timestamps one second apart.
func fixedClock() func() time.Time {
	t := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

var (
	movie   = media.Ref{IMDbID: "tt0111161", Kind: media.Movie, Provider: "8stream", ProviderID: "tt0111161"}
	episode = media.Ref{IMDbID: "tt0903747", Kind: media.Series, Provider: "consumet", ProviderID: "breaking-bad-1399", Season: 1, Episode: 3}
)

func TestSaveAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sess := Session{
		Ref:       episode,
		Language:  "en",
		Query:     "lang=en",
		StreamURL: "https://x.m3u8",
		Position:  1234.5,
	}
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := store.Get(ctx, episode)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Ref != episode {
		t.Errorf("Ref = %+v, want %+v", got.Ref, episode)
	}
	if got.Language != "en" || got.Query != "lang=en" {
		t.Errorf("Language/Query = %q/%q, want en/lang=en", got.Language, got.Query)
	}
	if got.Position != 1234.5 {
		t.Errorf("Position = %f, want 1234.5", got.Position)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}
}

func TestGetMissing(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Get(context.Background(), movie); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestEpisodesAreDistinct(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	next := episode
	next.Episode = 4
	if err := store.Save(ctx, Session{Ref: episode, Position: 10}); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, Session{Ref: next, Position: 20}); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, episode)
	if err != nil {
		t.Fatal(err)
	}
	if got.Position != 10 {
		t.Errorf("episode 3 position = %f, want 10", got.Position)
	}
}

func TestUpdateQueryKeepsPlayback(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.UpdatePlayback(ctx, movie, "https://x.m3u8", 300); err != nil {
		t.Fatalf("UpdatePlayback() error: %v", err)
	}
	if err := store.UpdateQuery(ctx, movie, "fr", "lang=fr&t=1"); err != nil {
		t.Fatalf("UpdateQuery() error: %v", err)
	}

	got, err := store.Get(ctx, movie)
	if err != nil {
		t.Fatal(err)
	}
	if got.Query != "lang=fr&t=1" || got.Language != "fr" {
		t.Errorf("Query/Language = %q/%q", got.Query, got.Language)
	}
	if got.StreamURL != "https://x.m3u8" || got.Position != 300 {
		t.Errorf("playback lost: %q at %f", got.StreamURL, got.Position)
	}

	// And the other way round.
	if err := store.UpdatePlayback(ctx, movie, "https://y.m3u8", 400); err != nil {
		t.Fatal(err)
	}
	got, _ = store.Get(ctx, movie)
	if got.Query != "lang=fr&t=1" {
		t.Errorf("query lost: %q", got.Query)
	}
}

func TestListNewestFirst(t *testing.T) {
	store := openTestStore(t)
	store.now = fixedClock()
	ctx := context.Background()

	if err := store.Save(ctx, Session{Ref: movie}); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, Session{Ref: episode}); err != nil {
		t.Fatal(err)
	}
	// Touching the movie again moves it to the front.
	if err := store.UpdateQuery(ctx, movie, "en", "lang=en"); err != nil {
		t.Fatal(err)
	}

	sessions, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].Ref.IMDbID != movie.IMDbID {
		t.Errorf("first session = %s, want %s", sessions[0].Ref.IMDbID, movie.IMDbID)
	}
	if sessions[1].Ref.Kind != media.Series {
		t.Errorf("second session kind = %v, want series", sessions[1].Ref.Kind)
	}
}

func TestRemove(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, Session{Ref: movie}); err != nil {
		t.Fatal(err)
	}
	if err := store.Remove(ctx, movie); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if err := store.Remove(ctx, movie); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove() error = %v, want ErrNotFound", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(context.Background(), Session{Ref: movie, Query: "lang=es"}); err != nil {
		t.Fatal(err)
	}
	store.Close()

	store, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	got, err := store.Get(context.Background(), movie)
	if err != nil {
		t.Fatal(err)
	}
	if got.Query != "lang=es" {
		t.Errorf("Query = %q, want lang=es", got.Query)
	}
}
