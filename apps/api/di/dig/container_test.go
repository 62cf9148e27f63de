package dig_container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/campus/apps/api/echo"
	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

func TestNew(t *testing.T) {
	conf := &core.Config{AppName: "Campus", Debug: true, TestMode: true, SecretKey: "secret"}
	c := New(func() *core.Config { return conf })

	err := c.Invoke(func(svc *user.Service, server *echoapi.Server, logger core.Logger) {
		assert.NotNil(t, svc)
		assert.NotNil(t, server)
		assert.NotNil(t, logger)

		created, err := user.Seed(svc)
		require.NoError(t, err)
		assert.Len(t, created, len(user.DemoUsers))
	})
	require.NoError(t, err)
}
