package rpc

import (
	"net/rpc"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	sdk "github.com/hemmer-sh/provider-sdk"
	"github.com/hemmer-sh/provider-sdk/logging"
	"github.com/hemmer-sh/provider-sdk/provider"
)

// Handshake is the go-plugin handshake configuration used when a provider
// is hosted by a go-plugin launcher instead of Serve.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  uint(sdk.ProtocolVersion),
	MagicCookieKey:   "HEMMER_PLUGIN",
	MagicCookieValue: "hemmer-provider-plugin",
}

// PluginName is the key providers register under in the go-plugin map.
const PluginName = "provider"

// Plugin adapts a provider to the go-plugin net/rpc plugin interface.
type Plugin struct {
	Provider provider.Provider
	Logger   hclog.Logger
}

// Server returns the dispatch server go-plugin serves.
func (p *Plugin) Server(*plugin.MuxBroker) (any, error) {
	return NewProviderServer(p.Provider, p.Logger), nil
}

// Client wraps the go-plugin connection in the typed client.
func (p *Plugin) Client(_ *plugin.MuxBroker, c *rpc.Client) (any, error) {
	logger := p.Logger
	if logger == nil {
		logger = logging.New("hemmer-client")
	}
	return &Client{
		conn:            c,
		logger:          logger,
		protocolVersion: sdk.ProtocolVersion,
	}, nil
}

// ServePlugin serves a provider under a go-plugin host. Providers launched
// by Serve do not need this; it exists for hosts that standardize on
// go-plugin's lifecycle and its own handshake.
func ServePlugin(p provider.Provider, logger hclog.Logger) {
	if logger == nil {
		logger = logging.Default()
	}
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins: map[string]plugin.Plugin{
			PluginName: &Plugin{Provider: p, Logger: logger},
		},
		Logger: logger,
	})
}
