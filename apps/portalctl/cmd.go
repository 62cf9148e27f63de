package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/campus/core/guard"
	"github.com/trezcool/campus/core/role"
	"github.com/trezcool/campus/core/session"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
	// errReported means the failure was already shown by the notifier.
	errReported = errors.New("failure reported")
)

type commandLine struct {
	ctrl   *session.Controller
	routes guard.Routes
	out    io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -email EMAIL [-remember] [-next PATH]  - log in; the password is prompted")
	fmt.Fprintln(cli.out, "  register -name NAME -email EMAIL -role ROLE  - create an account; the password is prompted")
	fmt.Fprintln(cli.out, "  logout                                       - end the session")
	fmt.Fprintln(cli.out, "  whoami                                       - show the current session")
	fmt.Fprintln(cli.out, "  open PATH                                    - show where the portal would send you for PATH")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	loginCmd := cli.flagSet("login")
	loginEmail := loginCmd.String("email", "", "The account email. The password will be prompted next.")
	loginRemember := loginCmd.Bool("remember", false, "Keep the refresh token to stay logged in.")
	loginNext := loginCmd.String("next", "", "The page to land on after logging in.")

	registerCmd := cli.flagSet("register")
	registerName := registerCmd.String("name", "", "Full name.")
	registerEmail := registerCmd.String("email", "", "The account email.")
	registerRole := registerCmd.String("role", "", "One of student, faculty, librarian.")
	registerPhone := registerCmd.String("phone", "", "Phone number (optional).")
	registerDept := registerCmd.String("department", "", "Department (optional).")

	switch args[1] {
	case "login":
		if err := parse(loginCmd, args[2:]); err != nil {
			return err
		}
		if *loginEmail == "" {
			loginCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			loginCmd.Usage()
			return errHelp
		}
		return cli.login(ctx, session.Credentials{Email: *loginEmail, Password: pwd, RememberMe: *loginRemember}, *loginNext)

	case "register":
		if err := parse(registerCmd, args[2:]); err != nil {
			return err
		}
		if *registerName == "" || *registerEmail == "" || *registerRole == "" {
			registerCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword("Enter password:")
		if err != nil {
			return err
		}
		confirm, err := cli.readPassword("Confirm password:")
		if err != nil {
			return err
		}
		return cli.register(ctx, session.Registration{
			Name:            *registerName,
			Email:           *registerEmail,
			Password:        pwd,
			PasswordConfirm: confirm,
			Role:            role.Role(*registerRole),
			Phone:           *registerPhone,
			Department:      *registerDept,
		})

	case "logout":
		cli.ctrl.Logout(ctx)
		return nil

	case "whoami":
		return cli.whoami(ctx)

	case "open":
		if len(args) < 3 || args[2] == "" {
			cli.printUsage()
			return errHelp
		}
		return cli.open(ctx, args[2])

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

func (cli *commandLine) readPassword(prompt string) (string, error) {
	fmt.Fprint(cli.out, prompt)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) login(ctx context.Context, creds session.Credentials, next string) error {
	out := cli.ctrl.Login(ctx, creds)
	if !out.OK {
		return errReported
	}
	fmt.Fprintf(cli.out, "-> %s\n", cli.routes.SafeReturnPath(next, cli.routes.DashboardFor(out.Session.Role())))
	return nil
}

func (cli *commandLine) register(ctx context.Context, reg session.Registration) error {
	out := cli.ctrl.Register(ctx, reg)
	if !out.OK {
		return errReported
	}
	fmt.Fprintf(cli.out, "-> %s\n", cli.routes.DashboardFor(out.Session.Role()))
	return nil
}

// current resolves the stored credential, as the portal does on its first page.
func (cli *commandLine) current(ctx context.Context) session.Session {
	if s := cli.ctrl.Session(); s.Status.Settled() {
		return s
	}
	return cli.ctrl.CheckSession(ctx)
}

func (cli *commandLine) whoami(ctx context.Context) error {
	s := cli.current(ctx)
	if !s.IsAuthenticated() {
		fmt.Fprintln(cli.out, "not logged in")
		return nil
	}

	fmt.Fprintf(cli.out, "%s <%s> (%s)\n", s.Identity.DisplayName, s.Identity.Email, s.Identity.Role)
	keys := make([]string, 0, len(s.Profile))
	for k := range s.Profile {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(cli.out, "  %s: %v\n", k, s.Profile[k])
	}
	return nil
}

func (cli *commandLine) open(ctx context.Context, path string) error {
	g := cli.routes.GuardFor(path)
	if g == nil {
		fmt.Fprintf(cli.out, "allow %s\n", path)
		return nil
	}

	d := g.Evaluate(cli.current(ctx), path)
	switch d.Kind {
	case guard.KindAllow:
		if path == cli.routes.Dashboard {
			fmt.Fprintf(cli.out, "redirect %s\n", cli.routes.DashboardFor(cli.ctrl.Session().Role()))
			return nil
		}
		fmt.Fprintf(cli.out, "allow %s\n", path)
	case guard.KindRedirect:
		fmt.Fprintf(cli.out, "redirect %s\n", d.Location())
	default:
		fmt.Fprintln(cli.out, "wait")
	}
	return nil
}
