package smoke

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/samvad-hq/bookcart-smoke/pkg/bookcart"
	"github.com/samvad-hq/bookcart-smoke/pkg/endpoints"
	"github.com/stretchr/testify/require"
)

// Live tests against a real storefront. They run only with BOOKCART_E2E=1;
// BOOKCART_API_CONFIG overrides the endpoint file. Both tests share one
// client and run in file order, the second reusing the first one's user.

var (
	liveRunner  *Runner
	liveSession Session
)

func requireLive(t *testing.T) *Runner {
	t.Helper()
	if os.Getenv("BOOKCART_E2E") != "1" {
		t.Skip("BOOKCART_E2E not set")
	}
	if liveRunner != nil {
		return liveRunner
	}

	path := os.Getenv("BOOKCART_API_CONFIG")
	if path == "" {
		path = "../../configs/config.json"
	}
	cfg, err := endpoints.Load(path)
	require.NoError(t, err, "load endpoint config")
	require.NoError(t, cfg.Require(bookcart.Operations...))

	opts := DefaultOptions()
	opts.CheckDuplicateRegister = false
	liveRunner = NewRunner(bookcart.New(cfg), nil, opts, nil)
	return liveRunner
}

func liveContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestRegisterAndLogin(t *testing.T) {
	runner := requireLive(t)

	sess, err := runner.RegisterAndLogin(liveContext(t))
	require.NoError(t, err)
	require.False(t, sess.UserID.IsZero(), "User ID not returned")
	require.NotEmpty(t, sess.Token, "Token not returned")
	liveSession = sess
}

func TestBrowseAndAddToCart(t *testing.T) {
	runner := requireLive(t)
	ctx := liveContext(t)

	if liveSession.UserID.IsZero() {
		sess, err := runner.RegisterAndLogin(ctx)
		require.NoError(t, err)
		liveSession = sess
	}

	sel, err := runner.BrowseAndAddToCart(ctx, liveSession.UserID)
	require.NoError(t, err)
	require.False(t, sel.BookID.IsZero())
}
