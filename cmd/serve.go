package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cinestream/internal/httputil"
	"cinestream/internal/provider"
	"cinestream/internal/server"
)

var flagListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stream resolution over HTTP",
	Long: `Serve GET /stream/:kind/:imdb (query: season, episode, lang, provider, id),
GET /health and GET /metrics.`,
	Args: cobra.NoArgs,
	RunE: serveRun,
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "Listen address (default from config)")
}

func serveRun(cmd *cobra.Command, args []string) error {
	addr := cfg.Listen
	if flagListen != "" {
		addr = flagListen
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers := provider.NewSet(cfg, httputil.NewClient(cfg.Timeout(), cfg.Retries), logger)
	srv := server.New(server.Options{
		Providers:  providers,
		DefaultAPI: cfg.API,
		Timeout:    cfg.Timeout() * 2,
	}, logger)

	return srv.Listen(ctx, addr)
}
