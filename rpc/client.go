package rpc

import (
	"bufio"
	"context"
	"net/rpc"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	sdk "github.com/hemmer-sh/provider-sdk"
	"github.com/hemmer-sh/provider-sdk/logging"
	"github.com/hemmer-sh/provider-sdk/schema"
)

// ParseHandshake parses a provider's startup line. The grammar is
// "HEMMER_PROVIDER|<version>|<host:port>" with no surrounding content.
func ParseHandshake(line string) (version uint, address string, err error) {
	line = strings.TrimRight(line, "\r\n")
	parts := strings.Split(line, "|")
	if len(parts) != 3 || parts[0] != sdk.HandshakePrefix {
		return 0, "", sdk.NewError(sdk.ErrTransport, "malformed handshake line: %q", line)
	}
	v, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, "", sdk.WrapError(sdk.ErrTransport, err, "malformed protocol version in handshake: %q", parts[1])
	}
	if parts[2] == "" {
		return 0, "", sdk.NewError(sdk.ErrTransport, "handshake line missing address: %q", line)
	}
	return uint(v), parts[2], nil
}

// Client talks to a running provider over its RPC surface. It is safe for
// concurrent use.
type Client struct {
	conn   *rpc.Client
	logger hclog.Logger
	cmd    *exec.Cmd

	protocolVersion uint
	address         string
}

// ProtocolVersion reports the protocol version the provider announced.
func (c *Client) ProtocolVersion() uint { return c.protocolVersion }

// Address reports the address the provider is serving on.
func (c *Client) Address() string { return c.address }

// Connect dials a provider that is already serving at address.
func Connect(address string, logger hclog.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.New("hemmer-client")
	}
	conn, err := rpc.Dial("tcp", address)
	if err != nil {
		return nil, sdk.WrapError(sdk.ErrTransport, err, "dial provider at %s", address)
	}
	return &Client{
		conn:            conn,
		logger:          logger,
		protocolVersion: sdk.ProtocolVersion,
		address:         address,
	}, nil
}

// Launch starts the provider binary at path, reads and verifies its
// handshake, and connects. The provider's stderr is passed through.
func Launch(ctx context.Context, path string, logger hclog.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.New("hemmer-client")
	}

	cmd := exec.CommandContext(ctx, path)
	cmd.Stderr = os.Stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, sdk.WrapError(sdk.ErrTransport, err, "open stdout pipe for %s", path)
	}
	if err := cmd.Start(); err != nil {
		return nil, sdk.WrapError(sdk.ErrTransport, err, "start provider %s", path)
	}

	scanner := bufio.NewScanner(stdout)
	if !scanner.Scan() {
		_ = cmd.Process.Kill()
		return nil, sdk.NewError(sdk.ErrTransport, "provider %s exited before handshake", path)
	}

	version, address, err := ParseHandshake(scanner.Text())
	if err != nil {
		_ = cmd.Process.Kill()
		return nil, err
	}
	if err := sdk.CheckProtocolVersion(version); err != nil {
		_ = cmd.Process.Kill()
		return nil, err
	}
	if version > sdk.ProtocolVersion {
		logger.Warn("provider speaks a newer protocol version",
			"provider_version", version, "client_version", sdk.ProtocolVersion)
	}

	logger.Debug("provider handshake complete", "path", path, "address", address, "protocol_version", version)

	conn, err := rpc.Dial("tcp", address)
	if err != nil {
		_ = cmd.Process.Kill()
		return nil, sdk.WrapError(sdk.ErrTransport, err, "dial provider at %s", address)
	}

	return &Client{
		conn:            conn,
		logger:          logger,
		cmd:             cmd,
		protocolVersion: version,
		address:         address,
	}, nil
}

// Close asks the provider to stop, closes the connection, and waits for a
// launched process to exit.
func (c *Client) Close() error {
	if _, err := c.Stop(); err != nil {
		c.logger.Warn("stop call failed during close", "error", err)
	}
	err := c.conn.Close()
	if c.cmd != nil {
		if waitErr := c.cmd.Wait(); waitErr != nil && err == nil {
			err = waitErr
		}
	}
	return err
}

// Kill closes the connection and force-kills a launched provider process
// without a graceful stop.
func (c *Client) Kill() {
	_ = c.conn.Close()
	if c.cmd != nil {
		_ = c.cmd.Process.Kill()
		_, _ = c.cmd.Process.Wait()
	}
}

func (c *Client) call(method string, req, resp any) error {
	if err := c.conn.Call("Provider."+method, req, resp); err != nil {
		return sdk.WrapError(sdk.ErrTransport, err, "call %s", method)
	}
	return nil
}

// GetMetadata fetches the provider's identity and capability summary.
func (c *Client) GetMetadata() (*GetMetadataResponse, error) {
	var resp GetMetadataResponse
	if err := c.call("GetMetadata", &GetMetadataRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSchema fetches the raw schema response.
func (c *Client) GetSchema() (*GetSchemaResponse, error) {
	var resp GetSchemaResponse
	if err := c.call("GetSchema", &GetSchemaRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Schema fetches the provider schema decoded into the schema model.
func (c *Client) Schema() (schema.ProviderSchema, error) {
	resp, err := c.GetSchema()
	if err != nil {
		return schema.ProviderSchema{}, err
	}
	return providerSchemaFromMsg(resp), nil
}

// ValidateProviderConfig validates a provider configuration value.
func (c *Client) ValidateProviderConfig(config any) (schema.Diagnostics, error) {
	var resp ValidateProviderConfigResponse
	err := c.call("ValidateProviderConfig", &ValidateProviderConfigRequest{Config: encodeValue(config)}, &resp)
	return resp.Diagnostics, err
}

// Configure configures the provider.
func (c *Client) Configure(config any) (schema.Diagnostics, error) {
	var resp ConfigureResponse
	err := c.call("Configure", &ConfigureRequest{Config: encodeValue(config)}, &resp)
	return resp.Diagnostics, err
}

// Stop asks the provider to release its resources.
func (c *Client) Stop() (string, error) {
	var resp StopResponse
	err := c.call("Stop", &StopRequest{}, &resp)
	return resp.Error, err
}

// ValidateResourceConfig validates a resource configuration value.
func (c *Client) ValidateResourceConfig(resourceType string, config any) (schema.Diagnostics, error) {
	var resp ValidateResourceConfigResponse
	err := c.call("ValidateResourceConfig", &ValidateResourceConfigRequest{
		ResourceType: resourceType,
		Config:       encodeValue(config),
	}, &resp)
	return resp.Diagnostics, err
}

// UpgradeResourceState migrates state recorded at an older schema version.
func (c *Client) UpgradeResourceState(resourceType string, version int64, rawState any) (any, schema.Diagnostics, error) {
	var resp UpgradeResourceStateResponse
	err := c.call("UpgradeResourceState", &UpgradeResourceStateRequest{
		ResourceType: resourceType,
		Version:      version,
		RawState:     encodeValue(rawState),
	}, &resp)
	return decodeValue(resp.UpgradedState), resp.Diagnostics, err
}

// Plan plans a resource change. A nil prior plans a create; the empty wire
// payload is the create marker.
func (c *Client) Plan(resourceType string, prior, proposed, config any) (*PlanResponse, error) {
	req := &PlanRequest{
		ResourceType:  resourceType,
		ProposedState: encodeValue(proposed),
		Config:        encodeValue(config),
	}
	if prior != nil {
		req.PriorState = encodeValue(prior)
	}
	var resp PlanResponse
	if err := c.call("Plan", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Create realizes a planned resource.
func (c *Client) Create(resourceType string, planned any) (any, schema.Diagnostics, error) {
	var resp CreateResponse
	err := c.call("Create", &CreateRequest{
		ResourceType: resourceType,
		PlannedState: encodeValue(planned),
	}, &resp)
	return decodeValue(resp.State), resp.Diagnostics, err
}

// Read refreshes a resource's state.
func (c *Client) Read(resourceType string, current any) (any, schema.Diagnostics, error) {
	var resp ReadResponse
	err := c.call("Read", &ReadRequest{
		ResourceType: resourceType,
		CurrentState: encodeValue(current),
	}, &resp)
	return decodeValue(resp.State), resp.Diagnostics, err
}

// Update applies a planned change.
func (c *Client) Update(resourceType string, prior, planned any) (any, schema.Diagnostics, error) {
	var resp UpdateResponse
	err := c.call("Update", &UpdateRequest{
		ResourceType: resourceType,
		PriorState:   encodeValue(prior),
		PlannedState: encodeValue(planned),
	}, &resp)
	return decodeValue(resp.State), resp.Diagnostics, err
}

// Delete destroys a resource.
func (c *Client) Delete(resourceType string, current any) (schema.Diagnostics, error) {
	var resp DeleteResponse
	err := c.call("Delete", &DeleteRequest{
		ResourceType: resourceType,
		CurrentState: encodeValue(current),
	}, &resp)
	return resp.Diagnostics, err
}

// ImportResourceState imports resources addressed by id.
func (c *Client) ImportResourceState(resourceType, id string) ([]ImportedResourceMsg, schema.Diagnostics, error) {
	var resp ImportResourceStateResponse
	err := c.call("ImportResourceState", &ImportResourceStateRequest{
		ResourceType: resourceType,
		ID:           id,
	}, &resp)
	return resp.Imported, resp.Diagnostics, err
}

// ValidateDataSourceConfig validates a data source configuration value.
func (c *Client) ValidateDataSourceConfig(dataSourceType string, config any) (schema.Diagnostics, error) {
	var resp ValidateDataSourceConfigResponse
	err := c.call("ValidateDataSourceConfig", &ValidateDataSourceConfigRequest{
		DataSourceType: dataSourceType,
		Config:         encodeValue(config),
	}, &resp)
	return resp.Diagnostics, err
}

// ReadDataSource reads a data source.
func (c *Client) ReadDataSource(dataSourceType string, config any) (any, schema.Diagnostics, error) {
	var resp ReadDataSourceResponse
	err := c.call("ReadDataSource", &ReadDataSourceRequest{
		DataSourceType: dataSourceType,
		Config:         encodeValue(config),
	}, &resp)
	return decodeValue(resp.State), resp.Diagnostics, err
}
