package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
)

var errNetwork = errors.New("dial tcp 127.0.0.1:8000: connect: connection refused")

// serverError mimics an identity API failure carrying a message.
type serverError struct {
	status  int
	message string
}

func (e *serverError) Error() string         { return "identity API error" }
func (e *serverError) ServerMessage() string { return e.message }

type fakeClient struct {
	mu sync.Mutex

	meRes       *AuthResult
	meErr       error
	loginRes    *AuthResult
	loginErr    error
	registerRes *AuthResult
	registerErr error
	logoutErr   error

	meCalls       int
	loginCalls    int
	registerCalls int
	logoutCalls   int

	lastCreds Credentials
	lastReg   Registration

	// block, when set, holds Me until closed
	block chan struct{}
}

var _ AuthClient = (*fakeClient)(nil)

func (f *fakeClient) Me(context.Context) (*AuthResult, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls++
	return f.meRes, f.meErr
}

func (f *fakeClient) Login(_ context.Context, creds Credentials) (*AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	f.lastCreds = creds
	return f.loginRes, f.loginErr
}

func (f *fakeClient) Register(_ context.Context, reg Registration) (*AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registerCalls++
	f.lastReg = reg
	return f.registerRes, f.registerErr
}

func (f *fakeClient) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	return f.logoutErr
}

func (f *fakeClient) calls() (me, login, register, logout int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meCalls, f.loginCalls, f.registerCalls, f.logoutCalls
}

type fakeTokens struct {
	mu      sync.Mutex
	tokens  map[string]string
	getErr  error
	setErr  error
	removes int
}

var _ TokenStore = (*fakeTokens)(nil)

func newFakeTokens(kv ...string) *fakeTokens {
	ft := &fakeTokens{tokens: make(map[string]string)}
	for i := 0; i+1 < len(kv); i += 2 {
		ft.tokens[kv[i]] = kv[i+1]
	}
	return ft
}

func (f *fakeTokens) Get(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", f.getErr
	}
	return f.tokens[name], nil
}

func (f *fakeTokens) Set(_ context.Context, name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.tokens[name] = value
	return nil
}

func (f *fakeTokens) Remove(_ context.Context, names ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removes++
	for _, n := range names {
		delete(f.tokens, n)
	}
	return nil
}

func (f *fakeTokens) get(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens[name]
}

type note struct {
	level string
	msg   string
}

type fakeNotifier struct {
	mu    sync.Mutex
	notes []note
}

func (n *fakeNotifier) add(level, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note{level, msg})
}

func (n *fakeNotifier) Success(msg string) { n.add("success", msg) }
func (n *fakeNotifier) Error(msg string)   { n.add("error", msg) }
func (n *fakeNotifier) Info(msg string)    { n.add("info", msg) }

func (n *fakeNotifier) last() note {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notes) == 0 {
		return note{}
	}
	return n.notes[len(n.notes)-1]
}

type fakeLogger struct {
	mu     sync.Mutex
	errors []string
}

var _ core.Logger = (*fakeLogger)(nil)

func (l *fakeLogger) Debug(string, ...interface{}) {}
func (l *fakeLogger) Info(string, ...interface{})  {}
func (l *fakeLogger) Warn(string, ...interface{})  {}
func (l *fakeLogger) Fatal(string, ...interface{}) {}

func (l *fakeLogger) Error(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *fakeLogger) logged() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.errors...)
}
