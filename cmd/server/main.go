package main

import (
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/0x0806/securechat/internal/config"
	"github.com/0x0806/securechat/internal/logging"
	"github.com/0x0806/securechat/internal/matchmaking"
	"github.com/0x0806/securechat/internal/server"
)

var opts config.Options

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "securechat-server",
	Short: "Anonymous 1:1 matchmaking and signaling relay server",
	Long: `SecureChat pairs anonymous strangers for end-to-end encrypted text and
video chat. The server brokers partner matching and relays chat, typing
and WebRTC call-negotiation payloads between the two sides of a session
without ever inspecting them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(opts)
		if err != nil {
			return err
		}
		log := logging.Init(cfg.LogLevel)

		hub := matchmaking.NewHub(matchmaking.Settings{
			MaxMessageLength: cfg.MaxMessageLength,
			DedupWindow:      cfg.DedupWindow,
			TypingExpiry:     cfg.TypingExpiry,
		}, log)

		// The hub's main event loop; the single goroutine that owns all
		// matchmaking state.
		go hub.Run()

		http.HandleFunc("/health", server.Health)
		http.HandleFunc("/stats", server.Stats(hub))
		http.HandleFunc("/ws", server.ServeWs(hub, cfg.AllowedOrigins))

		log.Info("starting SecureChat server", "addr", cfg.Addr())
		return http.ListenAndServe(cfg.Addr(), nil)
	},
}

func main() {
	rootCmd.Flags().IntVarP(&opts.Port, "port", "p", 0, "listen port (overrides PORT)")
	rootCmd.Flags().StringSliceVar(&opts.Origin, "origin", nil, "allowed websocket origins (overrides ALLOWED_ORIGINS)")
	rootCmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")

	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
