package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/rpc"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"

	sdk "github.com/hemmer-sh/provider-sdk"
	"github.com/hemmer-sh/provider-sdk/logging"
	"github.com/hemmer-sh/provider-sdk/provider"
)

// DefaultShutdownTimeout bounds the drain phase during shutdown.
const DefaultShutdownTimeout = 30 * time.Second

// ServeConfig configures Serve.
type ServeConfig struct {
	Provider provider.Provider

	// Logger defaults to the stderr logger from the logging package.
	Logger hclog.Logger

	// Address to listen on. Empty means a loopback address with an
	// auto-assigned port.
	Address string

	// ShutdownTimeout bounds how long Serve waits for in-flight calls
	// after a termination signal. Zero means DefaultShutdownTimeout.
	ShutdownTimeout time.Duration

	// HandshakeOutput receives the handshake line. Defaults to stdout,
	// which must carry nothing else.
	HandshakeOutput io.Writer
}

// Serve runs the provider until a SIGTERM or SIGINT arrives, then drains
// in-flight calls and stops the provider. It is the main entry point of a
// provider binary.
func Serve(config *ServeConfig) error {
	return ServeContext(context.Background(), config)
}

// ServeContext is Serve with caller-controlled lifetime: cancelling ctx
// triggers the same graceful shutdown as a termination signal.
func ServeContext(ctx context.Context, config *ServeConfig) error {
	if config == nil || config.Provider == nil {
		return sdk.Configurationf("serve config requires a provider")
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.Default()
	}
	address := config.Address
	if address == "" {
		address = "127.0.0.1:0"
	}
	timeout := config.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	handshakeOut := config.HandshakeOutput
	if handshakeOut == nil {
		handshakeOut = os.Stdout
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return sdk.WrapError(sdk.ErrTransport, err, "listen on %s", address)
	}
	defer listener.Close()

	server := NewProviderServer(config.Provider, logger)
	rpcServer := rpc.NewServer()
	if err := rpcServer.RegisterName("Provider", server); err != nil {
		return sdk.WrapError(sdk.ErrInternal, err, "register rpc service")
	}

	meta := provider.EffectiveMetadata(config.Provider)
	logger.Info("starting provider",
		"name", meta.Name,
		"version", meta.Version,
		"protocol_version", sdk.ProtocolVersion,
		"address", listener.Addr().String(),
	)

	// The handshake is the only line the launcher reads from stdout, and
	// it must precede the first accepted connection.
	if _, err := fmt.Fprintf(handshakeOut, "%s|%d|%s\n",
		sdk.HandshakePrefix, sdk.ProtocolVersion, listener.Addr().String()); err != nil {
		return sdk.WrapError(sdk.ErrTransport, err, "write handshake")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	var inflight sync.WaitGroup
	acceptDone := make(chan struct{})
	go func() {
		defer close(acceptDone)
		for {
			conn, err := listener.Accept()
			if err != nil {
				if !errors.Is(err, net.ErrClosed) {
					logger.Error("accept failed", "error", err)
				}
				return
			}
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				rpcServer.ServeConn(conn)
			}()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown requested, draining in-flight calls", "timeout", timeout)

	// Stop accepting new connections; in-flight calls keep running until
	// they finish or the timeout elapses.
	listener.Close()
	<-acceptDone

	drained := make(chan struct{})
	go func() {
		inflight.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		logger.Debug("all connections drained")
	case <-time.After(timeout):
		logger.Warn("shutdown timeout elapsed with calls still in flight", "timeout", timeout)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.stopProvider(stopCtx); err != nil {
		logger.Error("provider stop failed", "error", err)
	}

	logger.Info("provider stopped")
	return nil
}
