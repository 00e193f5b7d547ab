package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCmd_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("addr")
	require.NotNil(t, flag)
	assert.Equal(t, ":8080", flag.DefValue)

	assert.NotNil(t, serveCmd.Flags().Lookup("mcp"))
	assert.NotNil(t, serveCmd.Flags().Lookup("watch"))
}

func TestServeCmd_NoServices(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	brainService = nil

	_, err := run(t, "serve")

	assert.ErrorIs(t, err, errBrainNotConfigured)
}

func TestServeCmd_StopsWithContext(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	janitorRan := make(chan struct{}, 1)
	watchRan := make(chan struct{}, 1)
	SetServeConfig(&ServeConfig{
		Janitor: func(ctx context.Context) {
			<-ctx.Done()
			janitorRan <- struct{}{}
		},
		Watch: func(ctx context.Context) error {
			<-ctx.Done()
			watchRan <- struct{}{}
			return ctx.Err()
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rootCmd.SetArgs([]string{"serve", "--addr", "127.0.0.1:0", "--mcp", "--watch"})
	err := rootCmd.ExecuteContext(ctx)

	require.NoError(t, err)
	assert.Len(t, janitorRan, 1)
	assert.Len(t, watchRan, 1)
}

func TestServeCmd_WatchNeedsFlag(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	watched := false
	SetServeConfig(&ServeConfig{
		Watch: func(context.Context) error {
			watched = true
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rootCmd.SetArgs([]string{"serve", "--addr", "127.0.0.1:0"})
	require.NoError(t, rootCmd.ExecuteContext(ctx))

	assert.False(t, watched)
}

func TestMCPServeCmd_NoBrain(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	brainService = nil

	_, err := run(t, "mcp", "serve")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "validating ports")
}

func TestMCPServeCmd_PortFlag(t *testing.T) {
	flag := mcpServeCmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Equal(t, "p", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
}
