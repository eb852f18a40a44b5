// Package registry tracks the languages offered for the current title and
// the selected one, and writes the selection through to external state.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"cinestream/internal/media"
	"cinestream/internal/state"
)

// LangKey is the external state key holding the selected language.
const LangKey = "lang"

var (
	// ErrEmptyLanguage is returned when selecting the empty tag.
	ErrEmptyLanguage = errors.New("language cannot be empty")
	// ErrUnknownLanguage is returned when selecting a tag the provider does not offer.
	ErrUnknownLanguage = errors.New("language not offered for this title")
)

// Registry is the single source of truth for the selected and available languages.
type Registry struct {
	store state.Store

	mu        sync.Mutex
	current   media.Selection
	available []media.LanguageTag
	observers []func(media.Selection)
}

// New creates a Registry seeded from the store's initial value.
// The store is not read again afterwards.
func New(store state.Store) *Registry {
	r := &Registry{store: store}
	if lang := r.Initial(); !lang.Unset() {
		r.current = media.Selection{Language: lang, Origin: media.OriginURL}
	}
	return r
}

// Initial reads the language recorded in external state at mount.
func (r *Registry) Initial() media.LanguageTag {
	if r.store == nil {
		return ""
	}
	return media.LanguageTag(r.store.Read(LangKey))
}

// OnChange registers fn to be called after every selection change.
// Observers run on the caller's goroutine, outside the registry lock.
func (r *Registry) OnChange(fn func(media.Selection)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
}

// Current returns the current selection.
func (r *Registry) Current() media.Selection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Available returns a copy of the known languages.
func (r *Registry) Available() []media.LanguageTag {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]media.LanguageTag(nil), r.available...)
}

// SetAvailable replaces the known languages. When nothing is selected, or the
// selection is a value the new set does not contain, the first language is
// selected with OriginDefault. It reports the resulting selection and whether
// a default was assigned.
func (r *Registry) SetAvailable(langs []media.LanguageTag) (media.Selection, bool) {
	r.mu.Lock()
	r.available = append([]media.LanguageTag(nil), langs...)

	needsDefault := len(langs) > 0 &&
		(r.current.Language.Unset() || !media.Contains(langs, r.current.Language))
	if !needsDefault {
		sel := r.current
		r.mu.Unlock()
		return sel, false
	}

	r.current = media.Selection{Language: langs[0], Origin: media.OriginDefault}
	r.persist(r.current)
	sel, observers := r.current, r.snapshotObservers()
	r.mu.Unlock()

	notify(observers, sel)
	return sel, true
}

// Select sets the language. It only updates state; resolution is left to
// whoever observes the change.
func (r *Registry) Select(lang media.LanguageTag, origin media.Origin) error {
	if lang.Unset() {
		return ErrEmptyLanguage
	}

	r.mu.Lock()
	if len(r.available) > 0 && !media.Contains(r.available, lang) {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
	}
	if r.current.Language == lang {
		r.mu.Unlock()
		return nil
	}
	r.current = media.Selection{Language: lang, Origin: origin}
	r.persist(r.current)
	sel, observers := r.current, r.snapshotObservers()
	r.mu.Unlock()

	notify(observers, sel)
	return nil
}

// persist writes sel to the store; it is called with r.mu held so writes land
// in selection order.
func (r *Registry) persist(sel media.Selection) {
	if r.store != nil {
		r.store.Write(LangKey, string(sel.Language))
	}
}

// snapshotObservers must be called with r.mu held.
func (r *Registry) snapshotObservers() []func(media.Selection) {
	return append([]func(media.Selection){}, r.observers...)
}

func notify(observers []func(media.Selection), sel media.Selection) {
	for _, fn := range observers {
		fn(sel)
	}
}
