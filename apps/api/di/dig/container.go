package dig_container

import (
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/campus/apps/api/echo"
	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
	emailsvc "github.com/trezcool/campus/services/email"
	logsvc "github.com/trezcool/campus/services/logger"
	inmemdb "github.com/trezcool/campus/storage/database/inmem"
)

type MailLoggerParam struct {
	dig.In
	Logger core.Logger `name:"mailLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	return logsvc.New(log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
}

func newMailLogger(conf *core.Config) core.Logger {
	return logsvc.New(log.New(os.Stdout, "MAIL : ", log.LstdFlags), conf)
}

func newEmailService(conf *core.Config, loggerParam MailLoggerParam) core.EmailService {
	return emailsvc.New(conf, loggerParam.Logger)
}

func newServerDeps(
	conf *core.Config,
	logger core.Logger,
	usrSvc *user.Service,
	issuer *echoapi.TokenIssuer,
	validate *validator.Validate,
	translator ut.Translator,
) echoapi.ServerDeps {
	return echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		UserSvc:    usrSvc,
		Issuer:     issuer,
		Validate:   validate,
		Translator: translator,
	}
}

// New returns a new dependency injection dig.Container for the identity API.
// newConfig defaults to core.NewConfig.
func New(newConfig ...func() *core.Config) *dig.Container {
	c := dig.New()

	confFn := core.NewConfig
	if len(newConfig) > 0 && newConfig[0] != nil {
		confFn = newConfig[0]
	}

	must(c.Provide(confFn))
	must(c.Provide(newLogger))
	must(c.Provide(newMailLogger, dig.Name("mailLogger")))
	must(c.Provide(inmemdb.NewDB))
	must(c.Provide(inmemdb.NewUserRepository))
	must(c.Provide(newEmailService))
	must(c.Provide(core.NewValidator))
	must(c.Provide(user.NewService))
	must(c.Provide(echoapi.NewTokenIssuer))
	must(c.Provide(newServerDeps))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
