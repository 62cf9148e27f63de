package dig_container

import (
	"context"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoportal "github.com/trezcool/campus/apps/portal/echo"
	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/session"
	"github.com/trezcool/campus/services/authclient"
	logsvc "github.com/trezcool/campus/services/logger"
	notifysvc "github.com/trezcool/campus/services/notify"
	"github.com/trezcool/campus/storage/tokenstore"
)

const msgSessionExpired = "Your session has expired, please log in again"

// TokenStoreCloser releases the configured token store.
type TokenStoreCloser func() error

func newLogger(conf *core.Config) core.Logger {
	return logsvc.New(log.New(os.Stdout, "PORTAL : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
}

func newFlash() *notifysvc.Flash {
	return notifysvc.NewFlash(0)
}

func newNotifier(flash *notifysvc.Flash, logger core.Logger) core.Notifier {
	return notifysvc.Multi{flash, notifysvc.NewLogNotifier(logger)}
}

func newTokenStore(conf *core.Config) (session.TokenStore, TokenStoreCloser, error) {
	tokens, closeFn, err := tokenstore.New(context.Background(), conf)
	if err != nil {
		return nil, nil, err
	}
	return tokens, TokenStoreCloser(closeFn), nil
}

func newAuthClient(conf *core.Config, tokens session.TokenStore, logger core.Logger, flash *notifysvc.Flash) *authclient.Client {
	return authclient.NewFromConfig(conf, tokens, logger, func() { flash.Info(msgSessionExpired) })
}

func newController(
	client *authclient.Client,
	tokens session.TokenStore,
	notifier core.Notifier,
	logger core.Logger,
	validate *validator.Validate,
	translator ut.Translator,
) *session.Controller {
	return session.NewController(session.NewStore(), session.Options{
		Client:     client,
		Tokens:     tokens,
		Notifier:   notifier,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
	})
}

func newServerDeps(conf *core.Config, logger core.Logger, ctrl *session.Controller, flash *notifysvc.Flash) echoportal.ServerDeps {
	return echoportal.ServerDeps{Conf: conf, Logger: logger, Controller: ctrl, Flash: flash}
}

// New returns a new dependency injection dig.Container for the portal.
// newConfig defaults to core.NewConfig.
func New(newConfig ...func() *core.Config) *dig.Container {
	c := dig.New()

	confFn := core.NewConfig
	if len(newConfig) > 0 && newConfig[0] != nil {
		confFn = newConfig[0]
	}

	must(c.Provide(confFn))
	must(c.Provide(newLogger))
	must(c.Provide(newFlash))
	must(c.Provide(newNotifier))
	must(c.Provide(newTokenStore))
	must(c.Provide(core.NewValidator))
	must(c.Provide(newAuthClient))
	must(c.Provide(newController))
	must(c.Provide(newServerDeps))
	must(c.Provide(echoportal.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
