package main

import (
	"github.com/spf13/cobra"

	"github.com/timgluz/soilflag/secret"
	"github.com/timgluz/soilflag/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the stored flags over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadAppComponent(configPath)
		if err != nil {
			return err
		}
		defer app.Close()

		var secretStore secret.Store
		if len(app.config.Server.Tokens) > 0 {
			tokens, err := secret.NewInMemoryStoreFromTokens(app.config.Server.Tokens)
			if err != nil {
				return err
			}
			defer tokens.Close()
			secretStore = tokens
		} else {
			app.logger.Warn("No server tokens configured, flag endpoints are public")
		}

		addr := app.config.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		srv := server.New(app.flagRepository, secretStore, app.recorder, app.logger.With("component", "server"))
		return srv.ListenAndServe(cmd.Context(), addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address, overrides server.addr")
}
