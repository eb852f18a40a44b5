package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cinestream/internal/config"
	"cinestream/internal/history"
	"cinestream/internal/httputil"
	"cinestream/internal/media"
	"cinestream/internal/playback"
	"cinestream/internal/player"
	"cinestream/internal/provider"
	"cinestream/internal/registry"
	"cinestream/internal/resolver"
	"cinestream/internal/state"
	"cinestream/internal/ui"
)

var (
	flagKind     string
	flagIMDb     string
	flagSeason   int
	flagEpisode  int
	flagLang     string
	flagID       string
	flagContinue bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [address]",
	Short: "Resolve a title and play it",
	Long: `Resolve a movie or episode and open the stream.

The address has the form <kind>/<imdb>[/<season>-<episode>][?lang=<tag>],
for example "movie/tt0111161" or "series/tt0903747/1-2?lang=en". The same
title can be given with --kind, --imdb, --season and --episode instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: watchRun,
}

func init() {
	watchCmd.Flags().StringVarP(&flagKind, "kind", "k", "movie", "Title kind: movie | series")
	watchCmd.Flags().StringVar(&flagIMDb, "imdb", "", "IMDb id, e.g. tt0111161")
	watchCmd.Flags().IntVarP(&flagSeason, "season", "s", 0, "Season number")
	watchCmd.Flags().IntVarP(&flagEpisode, "episode", "e", 0, "Episode number")
	watchCmd.Flags().StringVar(&flagLang, "lang", "", "Stream language, overrides the address and history")
	watchCmd.Flags().StringVar(&flagID, "id", "", "Consumet title id (defaults to the IMDb id)")
	watchCmd.Flags().BoolVarP(&flagContinue, "continue", "c", false, "Resume from the saved position")
}

func watchRun(cmd *cobra.Command, args []string) error {
	addr, err := watchAddress(args)
	if err != nil {
		return err
	}
	ref := addr.Ref
	ref.Provider = cfg.API
	if err := httputil.ValidateIMDbID(ref.IMDbID); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *history.Store
	var session *history.Session
	if cfg.History {
		store, session = openHistory(ctx, ref)
		if store != nil {
			defer store.Close()
		}
	}

	values := seedQuery(addr.Query, session, flagLang)
	if store != nil && session == nil {
		first := history.Session{
			Ref:      ref,
			Language: media.LanguageTag(values.Get(registry.LangKey)),
			Query:    values.Encode(),
		}
		if err := store.Save(ctx, first); err != nil {
			logger.Warn("recording session", zap.Error(err))
		}
	}
	nav := state.NavigatorFunc(func(query string) {
		logger.Debug("address replaced", zap.String("address", addr.Path()+"?"+query))
		if store == nil {
			return
		}
		lang := ""
		if q, err := url.ParseQuery(query); err == nil {
			lang = q.Get(registry.LangKey)
		}
		if err := store.UpdateQuery(context.Background(), ref, media.LanguageTag(lang), query); err != nil {
			logger.Warn("saving address to history", zap.Error(err))
		}
	})
	query := state.NewQuery(values, nav, cfg.Debounce())
	defer query.Close()

	reg := registry.New(query)
	providers := provider.NewSet(cfg, httputil.NewClient(cfg.Timeout(), cfg.Retries), logger)

	if !useTUI() {
		return watchJSON(ctx, cmd, providers, reg, ref)
	}

	opts := ui.Options{
		Observer:         resolver.UserSelection(reg, logger),
		Player:           player.New(cfg.Player),
		SubtitleLanguage: media.LanguageTag(cfg.SubsLanguage),
	}
	if !opts.Player.Available() {
		return fmt.Errorf("%s not found in PATH", opts.Player.Name())
	}
	if flagContinue && session != nil {
		opts.StartPos = session.Position
	}
	if store != nil {
		opts.OnPlayed = func(ref media.Ref, streamURL string, position float64) {
			if err := store.UpdatePlayback(context.Background(), ref, streamURL, position); err != nil {
				logger.Warn("saving playback to history", zap.Error(err))
			}
		}
	}

	sink := ui.New(opts)
	ctrl := resolver.New(providers, reg, sink, logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go ctrl.Run(runCtx)
	ctrl.Mount(ref)

	return sink.Run(runCtx)
}

// watchJSON prints every snapshot until the resolution settles.
func watchJSON(ctx context.Context, cmd *cobra.Command, providers resolver.Providers, reg *registry.Registry, ref media.Ref) error {
	ctrl := resolver.New(providers, reg, playback.NewJSONSink(cmd.OutOrStdout()), logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go ctrl.Run(runCtx)
	ctrl.Mount(ref)

	snap, err := ctrl.Wait(runCtx)
	if err != nil {
		return err
	}
	if snap.Phase == playback.Error {
		return errors.New(snap.Err)
	}
	return nil
}

// watchAddress builds the address from the positional argument or flags.
func watchAddress(args []string) (media.Address, error) {
	if len(args) == 1 {
		return media.ParseAddress(args[0])
	}
	if flagIMDb == "" {
		return media.Address{}, errors.New("an address or --imdb is required")
	}

	q := url.Values{}
	if flagID != "" {
		q.Set("id", flagID)
	}
	if flagSeason > 0 {
		q.Set("season", strconv.Itoa(flagSeason))
	}
	if flagEpisode > 0 {
		q.Set("episode", strconv.Itoa(flagEpisode))
	}

	raw := flagKind + "/" + flagIMDb
	if enc := q.Encode(); enc != "" {
		raw += "?" + enc
	}
	return media.ParseAddress(raw)
}

// seedQuery picks the address state to mount with. An explicit language
// wins; otherwise a stored session is resumed when the address has no
// language of its own.
func seedQuery(query url.Values, session *history.Session, lang string) url.Values {
	values := url.Values{}
	for k, v := range query {
		values[k] = append([]string(nil), v...)
	}

	if values.Get(registry.LangKey) == "" && session != nil && session.Query != "" {
		if stored, err := url.ParseQuery(session.Query); err == nil {
			for k, v := range stored {
				if _, ok := values[k]; !ok {
					values[k] = v
				}
			}
		}
	}

	if lang != "" {
		values.Set(registry.LangKey, lang)
	}
	return values
}

// openHistory opens the history database and loads the session for ref.
// Failures are logged and leave history disabled for this run.
func openHistory(ctx context.Context, ref media.Ref) (*history.Store, *history.Session) {
	path, err := config.HistoryPath()
	if err != nil {
		logger.Warn("locating history", zap.Error(err))
		return nil, nil
	}
	store, err := history.Open(path)
	if err != nil {
		logger.Warn("opening history", zap.Error(err))
		return nil, nil
	}

	sess, err := store.Get(ctx, ref)
	if err != nil {
		if !errors.Is(err, history.ErrNotFound) {
			logger.Warn("reading history", zap.Error(err))
		}
		return store, nil
	}
	logger.Debug("resuming session", zap.String("title", ref.Title()), zap.String("query", sess.Query))
	return store, &sess
}
