package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/epsio/internal/api"
	"github.com/samcharles93/epsio/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		dataDir     string
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve a product directory over HTTP",
		Flags: append(commonLogFlags(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Aliases:     []string{"d"},
				Usage:       "directory holding .nat products",
				Value:       ".",
				Destination: &dataDir,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyServeConfig(cmd, LoadConfig(), &addr, &dataDir)
			log := newLogger()
			ctx = logger.WithContext(ctx, log)

			store := api.NewProductStore(dataDir)
			defer func() { _ = store.Close() }()

			server := api.NewServer(store, log)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)

			log.Info("starting server", "address", addr, "data_dir", dataDir)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
