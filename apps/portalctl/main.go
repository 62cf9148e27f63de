package main

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/guard"
	"github.com/trezcool/campus/core/session"
	"github.com/trezcool/campus/services/authclient"
	logsvc "github.com/trezcool/campus/services/logger"
	notifysvc "github.com/trezcool/campus/services/notify"
	"github.com/trezcool/campus/storage/tokenstore"
)

func main() {
	conf := core.NewConfig()

	// logs stay quiet unless asked for; the notifier talks to the user
	var logOut io.Writer = io.Discard
	if os.Getenv("PORTALCTL_VERBOSE") != "" {
		logOut = os.Stderr
	}
	logger := logsvc.NewStdLogger(log.New(logOut, "PORTALCTL : ", log.LstdFlags|log.Lmicroseconds), conf.Debug)

	// the credential must outlive the process
	if conf.Tokens.Backend == "" || conf.Tokens.Backend == tokenstore.BackendMemory {
		conf.Tokens.Backend = tokenstore.BackendFile
	}
	tokens, closeTokens, err := tokenstore.New(context.Background(), conf)
	if err != nil {
		log.Fatalf("opening token store: %v", err)
	}

	notifier := notifysvc.NewConsoleNotifier(os.Stdout, os.Stderr, notifysvc.ColorsEnabled())
	client := authclient.NewFromConfig(conf, tokens, logger, func() {
		notifier.Info("Your session has expired, please log in again")
	})

	cli := commandLine{
		ctrl: session.NewController(session.NewStore(), session.Options{
			Client:   client,
			Tokens:   tokens,
			Notifier: notifier,
			Logger:   logger,
		}),
		routes: guard.RoutesFromConfig(conf),
		out:    os.Stdout,
	}

	code := 0
	if err := cli.run(os.Args); err != nil {
		if err != errHelp && err != errReported {
			notifier.Error(err.Error())
		}
		code = 1
	}
	if err := closeTokens(); err != nil {
		logger.Error("closing token store", err)
	}
	os.Exit(code)
}
