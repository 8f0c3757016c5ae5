package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cabird/gpt-chrome-latex-ext/server"
	"github.com/cabird/gpt-chrome-latex-ext/settings"
)

func newServeCmd(a *app) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local bridge for the browser extension",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sess, store, closeFn, err := a.newSession(ctx)
			defer closeFn()
			if err != nil {
				return err
			}

			srv := server.New(sess, server.WithLogger(a.logger))

			if watch {
				o, _ := store.(*overrideStore)
				if fs, ok := o.unwrap().(*settings.FileStore); ok {
					updates, err := fs.Watch(ctx)
					if err != nil {
						return err
					}
					go srv.FollowSettings(ctx, o.follow(ctx, updates))
					a.logger.Info("watching settings", slog.String("path", fs.Path()))
				}
			}

			return srv.ListenAndServe(ctx, a.v.GetString(keyAddr))
		},
	}
	cmd.Flags().String(keyAddr, server.DefaultAddr, "loopback address to listen on")
	cmd.Flags().BoolVar(&watch, "watch", true, "reload settings when the settings file changes")
	_ = a.v.BindPFlag(keyAddr, cmd.Flags().Lookup(keyAddr))
	return cmd
}
