package dig_container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoportal "github.com/trezcool/campus/apps/portal/echo"
	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/session"
	"github.com/trezcool/campus/storage/tokenstore"
)

func TestNew(t *testing.T) {
	conf := &core.Config{AppName: "Campus", Debug: true, TestMode: true}
	conf.API.BaseURL = "http://127.0.0.1:1/api"
	conf.Tokens.Backend = tokenstore.BackendMemory

	c := New(func() *core.Config { return conf })
	err := c.Invoke(func(ctrl *session.Controller, server *echoportal.Server, closeTokens TokenStoreCloser) {
		assert.NotNil(t, server)
		assert.Equal(t, session.StatusUnknown, ctrl.Session().Status)
		assert.NoError(t, closeTokens())
	})
	require.NoError(t, err)
}

func TestNew_unknownTokenBackend(t *testing.T) {
	conf := &core.Config{AppName: "Campus", Debug: true, TestMode: true}
	conf.Tokens.Backend = "cookie"

	err := New(func() *core.Config { return conf }).Invoke(func(*session.Controller) {})
	assert.Error(t, err)
}
