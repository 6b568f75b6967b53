package rpc

import (
	"bufio"
	"context"
	"io"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdk "github.com/hemmer-sh/provider-sdk"
)

func startServer(t *testing.T, p *memProvider) (addr string, cancel context.CancelFunc, done chan error) {
	t.Helper()

	pr, pw := io.Pipe()
	handshake := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(pr)
		if scanner.Scan() {
			handshake <- scanner.Text()
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	done = make(chan error, 1)
	go func() {
		done <- ServeContext(ctx, &ServeConfig{
			Provider:        p,
			Logger:          hclog.NewNullLogger(),
			HandshakeOutput: pw,
			ShutdownTimeout: 2 * time.Second,
		})
	}()

	select {
	case line := <-handshake:
		version, address, err := ParseHandshake(line)
		require.NoError(t, err)
		assert.Equal(t, uint(sdk.ProtocolVersion), version)
		return address, cancel, done
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("no handshake line within 5s")
		return "", nil, nil
	}
}

func TestServeHandshakeAndRoundTrip(t *testing.T) {
	p := newMemProvider()
	addr, cancel, done := startServer(t, p)
	defer cancel()

	client, err := Connect(addr, hclog.NewNullLogger())
	require.NoError(t, err)

	meta, err := client.GetMetadata()
	require.NoError(t, err)
	assert.Equal(t, "mem", meta.Name)
	assert.Equal(t, []string{"mem_widget"}, meta.Resources)

	ps, err := client.Schema()
	require.NoError(t, err)
	assert.Contains(t, ps.Resources, "mem_widget")

	diags, err := client.ValidateResourceConfig("mem_widget", map[string]any{"name": "web"})
	require.NoError(t, err)
	assert.Empty(t, diags)

	planResp, err := client.Plan("mem_widget", nil, map[string]any{"name": "web"}, nil)
	require.NoError(t, err)
	assert.Len(t, planResp.Changes, 1)

	state, diags, err := client.Create("mem_widget", map[string]any{"name": "web"})
	require.NoError(t, err)
	require.Empty(t, diags)
	assert.Equal(t, "widget-1", state.(map[string]any)["id"])

	require.NoError(t, client.conn.Close())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down within 5s")
	}
	assert.Equal(t, 1, p.stopCalls)
}

func TestServeStopExactlyOnceAcrossPaths(t *testing.T) {
	p := newMemProvider()
	addr, cancel, done := startServer(t, p)
	defer cancel()

	client, err := Connect(addr, hclog.NewNullLogger())
	require.NoError(t, err)

	// The Stop RPC and the shutdown path share one Stop invocation.
	stopErr, err := client.Stop()
	require.NoError(t, err)
	assert.Empty(t, stopErr)
	require.NoError(t, client.conn.Close())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down within 5s")
	}
	assert.Equal(t, 1, p.stopCalls)
}

func TestServeRequiresProvider(t *testing.T) {
	require.Error(t, Serve(nil))
	require.Error(t, Serve(&ServeConfig{}))
}
