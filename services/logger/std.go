package logsvc

import (
	"log"

	"github.com/trezcool/campus/core"
)

// StdLogger only writes to a std logger; used by the CLI and in tests.
type StdLogger struct {
	std   *log.Logger
	debug bool
}

var _ core.Logger = (*StdLogger)(nil)

func NewStdLogger(std *log.Logger, debug bool) *StdLogger {
	return &StdLogger{std: std, debug: debug}
}

func (l StdLogger) Debug(msg string, args ...interface{}) {
	if l.debug {
		printEntry(l.std, "DEBUG", msg, args)
	}
}

func (l StdLogger) Info(msg string, args ...interface{})  { printEntry(l.std, "INFO", msg, args) }
func (l StdLogger) Warn(msg string, args ...interface{})  { printEntry(l.std, "WARN", msg, args) }
func (l StdLogger) Error(msg string, args ...interface{}) { printEntry(l.std, "ERROR", msg, args) }

func (l StdLogger) Fatal(msg string, args ...interface{}) {
	printEntry(l.std, "FATAL", msg, args)
	l.std.Fatal(msg)
}

// New picks the Rollbar logger when a token is configured outside debug mode.
func New(std *log.Logger, conf *core.Config) core.Logger {
	if conf.Debug || conf.RollbarToken == "" {
		return NewStdLogger(std, conf.Debug)
	}
	return NewRollbarLogger(std, conf)
}

// splitPerson returns the first core.Person in args and passes the rest to keep.
func splitPerson(args []interface{}, keep func(interface{})) (core.Person, bool) {
	var (
		person core.Person
		found  bool
	)
	for _, arg := range args {
		p, ok := arg.(core.Person)
		if !ok {
			keep(arg)
			continue
		}
		if !found {
			person, found = p, true
		}
	}
	return person, found
}

func printEntry(std *log.Logger, level, msg string, args []interface{}) {
	person, ok := splitPerson(args, func(arg interface{}) {})
	if ok && person.ID != "" {
		std.Printf("%s: %s [user=%s]\n", level, msg, person.ID)
	} else {
		std.Printf("%s: %s\n", level, msg)
	}
	for _, arg := range args {
		if _, isPerson := arg.(core.Person); isPerson {
			continue
		}
		std.Printf("%+v\n", arg)
	}
}
