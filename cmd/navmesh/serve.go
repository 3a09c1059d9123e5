package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gorustyt/navcore/navigation"
	"github.com/gorustyt/navcore/server"
)

func ServeCmd() *cobra.Command {
	var (
		in   inputFlags
		addr string
	)
	c := &cobra.Command{
		Use:   "serve",
		Short: "build navmeshes and serve path queries over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, g, logger, err := in.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			mgr := navigation.NewManager(logger)
			if err := mgr.Build(ctx, g, s); err != nil {
				return err
			}
			return server.New(mgr, logger).ListenAndServe(ctx, addr)
		},
	}
	in.register(c)
	c.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return c
}
