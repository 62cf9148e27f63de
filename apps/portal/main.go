package main

import (
	"context"
	"fmt"
	"log"

	dig_container "github.com/trezcool/campus/apps/portal/di/dig"
	echoportal "github.com/trezcool/campus/apps/portal/echo"
	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/session"
)

func main() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		logger core.Logger,
		ctrl *session.Controller,
		closeTokens dig_container.TokenStoreCloser,
		server *echoportal.Server,
	) {
		// =========================================================================
		// Initialize App

		logger.Info(fmt.Sprintf("Portal initializing : version %q, identity API %s", conf.Build, conf.API.BaseURL))
		defer logger.Info("Portal stopped")
		defer func() {
			if err := closeTokens(); err != nil {
				logger.Error(fmt.Sprintf("closing token store: %v", err), err)
			}
		}()

		// resolve a remembered session before serving the first page
		sess := ctrl.Start(context.Background())
		logger.Info(fmt.Sprintf("session %s", sess.Status))

		// =========================================================================
		// Start Portal Service

		go server.Start()

		// =========================================================================
		// Shutdown

		select {
		case err := <-server.Errors():
			logger.Fatal(fmt.Sprintf("server error: %v", err), err)

		case sig := <-server.ShutdownSignal():
			logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), conf.Portal.ShutdownTimeout)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

				if err = server.Close(); err != nil {
					logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
				}
			}
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
