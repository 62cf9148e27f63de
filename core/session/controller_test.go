package session

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core/role"
)

var (
	facultyUser = &Identity{ID: "f-1", DisplayName: "Grace Hopper", Role: role.Faculty, Email: "grace@campus.test"}
	studentUser = &Identity{ID: "s-1", DisplayName: "Ada Lovelace", Role: role.Student, Email: "ada@campus.test"}
)

func newTestController(client *fakeClient, tokens *fakeTokens) (*Controller, *fakeNotifier) {
	n := &fakeNotifier{}
	return NewController(NewStore(), Options{Client: client, Tokens: tokens, Notifier: n}), n
}

func recordStatuses(store *Store) func() []Status {
	var (
		mu  sync.Mutex
		got []Status
	)
	store.Subscribe(func(s Session) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, s.Status)
	})
	return func() []Status {
		mu.Lock()
		defer mu.Unlock()
		return append([]Status(nil), got...)
	}
}

func TestController_CheckSession(t *testing.T) {
	ctx := context.Background()

	t.Run("no token settles unauthenticated without network", func(t *testing.T) {
		client := &fakeClient{meRes: &AuthResult{User: studentUser}}
		ctrl, _ := newTestController(client, newFakeTokens())
		statuses := recordStatuses(ctrl.Store())

		s := ctrl.CheckSession(ctx)

		assert.Equal(t, StatusUnauthenticated, s.Status)
		assert.Nil(t, s.Identity)
		me, _, _, _ := client.calls()
		assert.Equal(t, 0, me)
		assert.Equal(t, []Status{StatusLoading, StatusUnauthenticated}, statuses())
	})

	t.Run("valid token authenticates", func(t *testing.T) {
		client := &fakeClient{meRes: &AuthResult{User: studentUser, Profile: Profile{"rollNumber": "CS-001"}}}
		tokens := newFakeTokens(TokenAccess, "t0", TokenRefresh, "r0")
		ctrl, _ := newTestController(client, tokens)
		statuses := recordStatuses(ctrl.Store())

		s := ctrl.Start(ctx)

		require.True(t, s.IsAuthenticated())
		assert.Equal(t, *studentUser, *s.Identity)
		assert.Equal(t, "CS-001", s.Profile["rollNumber"])
		assert.Equal(t, "t0", tokens.get(TokenAccess))
		assert.Equal(t, "r0", tokens.get(TokenRefresh))
		assert.Equal(t, []Status{StatusLoading, StatusAuthenticated}, statuses())
	})

	t.Run("rejected token clears both tokens", func(t *testing.T) {
		client := &fakeClient{meErr: &serverError{status: 401, message: "Invalid token"}}
		tokens := newFakeTokens(TokenAccess, "expired", TokenRefresh, "r0")
		ctrl, _ := newTestController(client, tokens)

		s := ctrl.CheckSession(ctx)
		assert.Equal(t, StatusUnauthenticated, s.Status)
		assert.Empty(t, tokens.get(TokenAccess))
		assert.Empty(t, tokens.get(TokenRefresh))

		s = ctrl.CheckSession(ctx)
		assert.Equal(t, StatusUnauthenticated, s.Status)
		me, _, _, _ := client.calls()
		assert.Equal(t, 1, me, "second check must not reach the network")
	})

	t.Run("unsuccessful envelope is treated as failure", func(t *testing.T) {
		client := &fakeClient{meRes: &AuthResult{Message: "User not found"}}
		tokens := newFakeTokens(TokenAccess, "t0")
		ctrl, _ := newTestController(client, tokens)

		s := ctrl.CheckSession(ctx)
		assert.Equal(t, StatusUnauthenticated, s.Status)
		assert.Empty(t, tokens.get(TokenAccess))
	})

	t.Run("network error", func(t *testing.T) {
		client := &fakeClient{meErr: errNetwork}
		tokens := newFakeTokens(TokenAccess, "t0")
		ctrl, _ := newTestController(client, tokens)

		s := ctrl.CheckSession(ctx)
		assert.Equal(t, StatusUnauthenticated, s.Status)
		assert.Empty(t, s.LastError)
		assert.Empty(t, tokens.get(TokenAccess))
	})

	t.Run("unreadable token store", func(t *testing.T) {
		client := &fakeClient{meRes: &AuthResult{User: studentUser}}
		tokens := newFakeTokens(TokenAccess, "t0")
		tokens.getErr = errors.New("disk on fire")
		ctrl, _ := newTestController(client, tokens)

		s := ctrl.CheckSession(ctx)
		assert.Equal(t, StatusUnauthenticated, s.Status)
		me, _, _, _ := client.calls()
		assert.Equal(t, 0, me)
	})

	t.Run("concurrent checks share one request", func(t *testing.T) {
		client := &fakeClient{meRes: &AuthResult{User: studentUser}, block: make(chan struct{})}
		ctrl, _ := newTestController(client, newFakeTokens(TokenAccess, "t0"))

		started := make(chan struct{})
		var once sync.Once
		ctrl.Store().Subscribe(func(s Session) {
			if s.Status == StatusLoading {
				once.Do(func() { close(started) })
			}
		})

		var wg sync.WaitGroup
		results := make([]Session, 5)
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[0] = ctrl.CheckSession(ctx)
		}()
		<-started
		for i := 1; i < len(results); i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = ctrl.CheckSession(ctx)
			}(i)
		}
		close(client.block)
		wg.Wait()

		me, _, _, _ := client.calls()
		assert.LessOrEqual(t, me, len(results))
		assert.GreaterOrEqual(t, me, 1)
		for _, s := range results {
			assert.Equal(t, StatusAuthenticated, s.Status)
		}
	})
}

func TestController_Login(t *testing.T) {
	ctx := context.Background()
	creds := Credentials{Email: " Grace@Campus.test ", Password: "s3cret!"}

	tests := []struct {
		name        string
		client      *fakeClient
		creds       Credentials
		wantOK      bool
		wantMessage string
		wantCalls   int
	}{
		{
			name:        "success with default greeting",
			client:      &fakeClient{loginRes: &AuthResult{User: facultyUser, Token: "t1", RefreshToken: "r1"}},
			creds:       creds,
			wantOK:      true,
			wantMessage: "Welcome back, Grace Hopper!",
			wantCalls:   1,
		},
		{
			name:        "success with server message",
			client:      &fakeClient{loginRes: &AuthResult{User: facultyUser, Token: "t1", Message: "Login successful"}},
			creds:       creds,
			wantOK:      true,
			wantMessage: "Login successful",
			wantCalls:   1,
		},
		{
			name:        "server message wins",
			client:      &fakeClient{loginErr: &serverError{status: 401, message: "Invalid credentials"}},
			creds:       creds,
			wantMessage: "Invalid credentials",
			wantCalls:   1,
		},
		{
			name:        "transport message when server is silent",
			client:      &fakeClient{loginErr: errNetwork},
			creds:       creds,
			wantMessage: errNetwork.Error(),
			wantCalls:   1,
		},
		{
			name:        "generic fallback",
			client:      &fakeClient{loginErr: &serverError{status: 500}},
			creds:       creds,
			wantMessage: "identity API error",
			wantCalls:   1,
		},
		{
			name:        "missing token is malformed",
			client:      &fakeClient{loginRes: &AuthResult{User: facultyUser}},
			creds:       creds,
			wantMessage: ErrMalformedResponse.Error(),
			wantCalls:   1,
		},
		{
			name:        "invalid email never reaches the API",
			client:      &fakeClient{loginRes: &AuthResult{User: facultyUser, Token: "t1"}},
			creds:       Credentials{Email: "grace", Password: "x"},
			wantMessage: "email must be a valid email address",
			wantCalls:   0,
		},
		{
			name:        "missing password",
			client:      &fakeClient{loginRes: &AuthResult{User: facultyUser, Token: "t1"}},
			creds:       Credentials{Email: "grace@campus.test"},
			wantMessage: "password: this field is required",
			wantCalls:   0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tokens := newFakeTokens()
			ctrl, notes := newTestController(tc.client, tokens)
			statuses := recordStatuses(ctrl.Store())

			out := ctrl.Login(ctx, tc.creds)

			assert.Equal(t, tc.wantOK, out.OK)
			assert.Equal(t, tc.wantMessage, out.Message)
			_, login, _, _ := tc.client.calls()
			assert.Equal(t, tc.wantCalls, login)

			if tc.wantOK {
				assert.Equal(t, StatusAuthenticated, out.Session.Status)
				assert.Empty(t, out.Session.LastError)
				assert.Equal(t, "t1", tokens.get(TokenAccess))
				assert.Equal(t, note{"success", tc.wantMessage}, notes.last())
				assert.Equal(t, []Status{StatusLoading, StatusAuthenticated}, statuses())
			} else {
				assert.Equal(t, StatusUnauthenticated, out.Session.Status)
				assert.Nil(t, out.Session.Identity)
				assert.Equal(t, tc.wantMessage, out.Session.LastError)
				assert.Empty(t, tokens.get(TokenAccess))
				assert.Equal(t, note{"error", tc.wantMessage}, notes.last())
				assert.Equal(t, []Status{StatusLoading, StatusUnauthenticated}, statuses())
			}
		})
	}
}

func TestController_Login_normalizesEmail(t *testing.T) {
	client := &fakeClient{loginRes: &AuthResult{User: facultyUser, Token: "t1"}}
	ctrl, _ := newTestController(client, newFakeTokens())

	ctrl.Login(context.Background(), Credentials{Email: " Grace@Campus.TEST ", Password: "pw"})
	assert.Equal(t, "grace@campus.test", client.lastCreds.Email)
}

func TestController_Login_rememberMe(t *testing.T) {
	ctx := context.Background()
	res := &AuthResult{User: facultyUser, Token: "t1", RefreshToken: "r1"}

	t.Run("kept", func(t *testing.T) {
		tokens := newFakeTokens()
		ctrl, _ := newTestController(&fakeClient{loginRes: res}, tokens)
		ctrl.Login(ctx, Credentials{Email: "grace@campus.test", Password: "pw", RememberMe: true})
		assert.Equal(t, "r1", tokens.get(TokenRefresh))
	})

	t.Run("dropped", func(t *testing.T) {
		tokens := newFakeTokens(TokenRefresh, "stale")
		ctrl, _ := newTestController(&fakeClient{loginRes: res}, tokens)
		ctrl.Login(ctx, Credentials{Email: "grace@campus.test", Password: "pw"})
		assert.Equal(t, "t1", tokens.get(TokenAccess))
		assert.Empty(t, tokens.get(TokenRefresh))
	})
}

func TestController_Login_tokenStoreFailure(t *testing.T) {
	tokens := newFakeTokens()
	tokens.setErr = errors.New("read-only file system")
	ctrl, _ := newTestController(&fakeClient{loginRes: &AuthResult{User: facultyUser, Token: "t1"}}, tokens)

	out := ctrl.Login(context.Background(), Credentials{Email: "grace@campus.test", Password: "pw"})
	assert.False(t, out.OK)
	assert.Equal(t, msgStoreFailed, out.Message)
	assert.Equal(t, StatusUnauthenticated, ctrl.Session().Status)
}

func TestController_Login_failureAfterLoginClearsTokens(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{loginRes: &AuthResult{User: facultyUser, Token: "t1", RefreshToken: "r1"}}
	tokens := newFakeTokens()
	ctrl, _ := newTestController(client, tokens)

	require.True(t, ctrl.Login(ctx, Credentials{Email: "grace@campus.test", Password: "pw", RememberMe: true}).OK)
	require.Equal(t, "r1", tokens.get(TokenRefresh))

	client.mu.Lock()
	client.loginRes, client.loginErr = nil, &serverError{status: 401, message: "Invalid credentials"}
	client.mu.Unlock()

	out := ctrl.Login(ctx, Credentials{Email: "grace@campus.test", Password: "wrong"})
	assert.False(t, out.OK)
	assert.Equal(t, StatusUnauthenticated, out.Session.Status)
	assert.Empty(t, tokens.get(TokenAccess))
	assert.Empty(t, tokens.get(TokenRefresh))

	// a new process over the same storage does not resurrect the old session
	restored, _ := newTestController(&fakeClient{meRes: &AuthResult{User: facultyUser}}, tokens)
	assert.Equal(t, StatusUnauthenticated, restored.CheckSession(ctx).Status)
}

func TestController_Login_facultyRoles(t *testing.T) {
	client := &fakeClient{loginRes: &AuthResult{User: facultyUser, Token: "t1"}}
	tokens := newFakeTokens()
	ctrl, _ := newTestController(client, tokens)

	out := ctrl.Login(context.Background(), Credentials{Email: "grace@campus.test", Password: "pw"})
	require.True(t, out.OK)

	assert.Equal(t, "t1", tokens.get(TokenAccess))
	assert.True(t, ctrl.HasRole(role.Faculty))
	assert.False(t, ctrl.HasRole(role.Admin))
	assert.True(t, ctrl.HasAnyRole(role.Admin, role.Faculty))
	assert.False(t, ctrl.HasAnyRole())
	assert.False(t, ctrl.HasRole("Faculty"))
}

func TestController_Register(t *testing.T) {
	ctx := context.Background()
	valid := Registration{
		Name:            "  Alan   Turing ",
		Email:           "Alan@Campus.test",
		Password:        "Enigma#1912",
		PasswordConfirm: "Enigma#1912",
		Role:            role.Student,
	}

	t.Run("success keeps refresh token", func(t *testing.T) {
		alan := &Identity{ID: "s-2", DisplayName: "Alan Turing", Role: role.Student, Email: "alan@campus.test"}
		client := &fakeClient{registerRes: &AuthResult{User: alan, Token: "t2", RefreshToken: "r2"}}
		tokens := newFakeTokens()
		ctrl, notes := newTestController(client, tokens)

		out := ctrl.Register(ctx, valid)

		require.True(t, out.OK)
		assert.Equal(t, "Welcome, Alan Turing!", out.Message)
		assert.Equal(t, note{"success", out.Message}, notes.last())
		assert.Equal(t, "Alan Turing", client.lastReg.Name)
		assert.Equal(t, "alan@campus.test", client.lastReg.Email)
		assert.Equal(t, "t2", tokens.get(TokenAccess))
		assert.Equal(t, "r2", tokens.get(TokenRefresh))
		assert.True(t, ctrl.HasRole(role.Student))
	})

	t.Run("server rejection", func(t *testing.T) {
		client := &fakeClient{registerErr: &serverError{status: 400, message: "User already exists"}}
		ctrl, _ := newTestController(client, newFakeTokens())

		out := ctrl.Register(ctx, valid)
		assert.False(t, out.OK)
		assert.Equal(t, "User already exists", out.Message)
		assert.Equal(t, "User already exists", ctrl.Session().LastError)
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name    string
			mutate  func(*Registration)
			wantMsg string
		}{
			{"passwords differ", func(r *Registration) { r.PasswordConfirm = "other" }, "passwordConfirm must be equal to Password"},
			{"unknown role", func(r *Registration) { r.Role = "janitor" }, "role: invalid role"},
			{"missing name", func(r *Registration) { r.Name = "   " }, "name: this field is required"},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				client := &fakeClient{}
				ctrl, _ := newTestController(client, newFakeTokens())
				reg := valid
				tc.mutate(&reg)

				out := ctrl.Register(ctx, reg)
				assert.False(t, out.OK)
				assert.Equal(t, tc.wantMsg, out.Message)
				_, _, register, _ := client.calls()
				assert.Equal(t, 0, register)
			})
		}
	})
}

func TestController_Logout(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		logoutErr error
	}{
		{"remote logout succeeds", nil},
		{"remote logout fails", errNetwork},
		{"remote logout rejected", &serverError{status: 500, message: "boom"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := &fakeClient{
				loginRes:  &AuthResult{User: facultyUser, Token: "t1", RefreshToken: "r1"},
				logoutErr: tc.logoutErr,
			}
			tokens := newFakeTokens()
			ctrl, notes := newTestController(client, tokens)

			require.True(t, ctrl.Login(ctx, Credentials{Email: "grace@campus.test", Password: "pw", RememberMe: true}).OK)
			s := ctrl.Logout(ctx)

			assert.Equal(t, StatusUnauthenticated, s.Status)
			assert.Nil(t, s.Identity)
			assert.Empty(t, tokens.get(TokenAccess))
			assert.Empty(t, tokens.get(TokenRefresh))
			assert.Equal(t, note{"info", msgLoggedOut}, notes.last())
			_, _, _, logout := client.calls()
			assert.Equal(t, 1, logout)
			for _, r := range role.All {
				assert.False(t, ctrl.HasRole(r))
			}
		})
	}

	t.Run("unreadable token is logged", func(t *testing.T) {
		client := &fakeClient{}
		tokens := newFakeTokens(TokenAccess, "t1")
		tokens.getErr = errors.New("disk on fire")
		logger := &fakeLogger{}
		ctrl := NewController(NewStore(), Options{Client: client, Tokens: tokens, Notifier: &fakeNotifier{}, Logger: logger})

		s := ctrl.Logout(ctx)
		assert.Equal(t, StatusUnauthenticated, s.Status)
		assert.Empty(t, tokens.get(TokenAccess))
		_, _, _, logout := client.calls()
		assert.Equal(t, 0, logout)
		assert.Equal(t, []string{"reading stored token: disk on fire"}, logger.logged())
	})

	t.Run("no token skips remote call", func(t *testing.T) {
		client := &fakeClient{}
		ctrl, _ := newTestController(client, newFakeTokens())

		s := ctrl.Logout(ctx)
		assert.Equal(t, StatusUnauthenticated, s.Status)
		_, _, _, logout := client.calls()
		assert.Equal(t, 0, logout)
	})
}

func TestController_HasRole_requiresAuthentication(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{
		meErr:    &serverError{status: 401},
		loginErr: &serverError{status: 401, message: "Invalid credentials"},
	}
	ctrl, _ := newTestController(client, newFakeTokens(TokenAccess, "t0"))

	check := func(stage string) {
		for _, r := range role.All {
			assert.False(t, ctrl.HasRole(r), "%s: %s", stage, r)
		}
		assert.False(t, ctrl.HasAnyRole(role.All...), stage)
	}

	check("unknown")
	ctrl.CheckSession(ctx)
	check("after failed check")
	ctrl.Login(ctx, Credentials{Email: "x@campus.test", Password: "pw"})
	check("after failed login")
}

func TestMessageOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "Login failed"},
		{"server", &serverError{message: "Account disabled"}, "Account disabled"},
		{"wrapped server", errors.Wrap(&serverError{message: "Account disabled"}, "POST /auth/login"), "Account disabled"},
		{"transport", errNetwork, errNetwork.Error()},
		{"empty transport", errors.New(""), "Login failed"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MessageOf(tc.err, msgLoginFailed))
		})
	}
}
