package rpc

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdk "github.com/hemmer-sh/provider-sdk"
	"github.com/hemmer-sh/provider-sdk/plan"
	"github.com/hemmer-sh/provider-sdk/provider"
	"github.com/hemmer-sh/provider-sdk/schema"
)

// memProvider keeps widget state in memory and counts Stop calls.
type memProvider struct {
	provider.Base

	mu         sync.Mutex
	store      map[string]any
	stopCalls  int
	stopErr    error
	createErr  error
	planConfig any
}

func newMemProvider() *memProvider {
	return &memProvider{store: map[string]any{}}
}

func (p *memProvider) Schema() schema.ProviderSchema {
	return schema.NewProviderSchema().
		WithProviderConfig(schema.V0().WithAttribute("region", schema.OptionalString())).
		WithResource("mem_widget", schema.V0().
			WithAttribute("name", schema.RequiredString()).
			WithAttribute("count", schema.OptionalInt64()).
			WithAttribute("id", schema.ComputedString())).
		WithDataSource("mem_lookup", schema.V0().
			WithAttribute("name", schema.RequiredString()))
}

func (p *memProvider) Stop(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopCalls++
	return p.stopErr
}

func (p *memProvider) Plan(_ context.Context, _ string, prior, proposed, config any) (plan.Result, error) {
	p.mu.Lock()
	p.planConfig = config
	p.mu.Unlock()
	return plan.Diff(prior, proposed), nil
}

func (p *memProvider) Create(_ context.Context, _ string, planned any) (any, error) {
	if p.createErr != nil {
		return nil, p.createErr
	}
	state := planned.(map[string]any)
	state["id"] = "widget-1"
	p.mu.Lock()
	p.store["widget-1"] = state
	p.mu.Unlock()
	return state, nil
}

func (p *memProvider) Read(_ context.Context, _ string, current any) (any, error) {
	state, ok := current.(map[string]any)
	if !ok {
		return nil, sdk.Validationf("state must be an object")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	stored, exists := p.store[state["id"].(string)]
	if !exists {
		return nil, nil
	}
	return stored, nil
}

func (p *memProvider) Update(_ context.Context, _ string, _, planned any) (any, error) {
	state := planned.(map[string]any)
	p.mu.Lock()
	p.store[state["id"].(string)] = state
	p.mu.Unlock()
	return state, nil
}

func (p *memProvider) Delete(_ context.Context, _ string, current any) error {
	state := current.(map[string]any)
	p.mu.Lock()
	delete(p.store, state["id"].(string))
	p.mu.Unlock()
	return nil
}

func (p *memProvider) ReadDataSource(_ context.Context, dsType string, config any) (any, error) {
	if dsType != "mem_lookup" {
		return nil, sdk.UnknownResourcef("unknown data source: %s", dsType)
	}
	cfg := config.(map[string]any)
	return map[string]any{"name": cfg["name"], "found": true}, nil
}

func newTestServer() (*ProviderServer, *memProvider) {
	p := newMemProvider()
	return NewProviderServer(p, hclog.NewNullLogger()), p
}

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestGetMetadata(t *testing.T) {
	server, _ := newTestServer()

	var resp GetMetadataResponse
	require.NoError(t, server.GetMetadata(&GetMetadataRequest{}, &resp))

	assert.Equal(t, "mem", resp.Name)
	assert.Equal(t, uint(sdk.ProtocolVersion), resp.ProtocolVersion)
	assert.Equal(t, []string{"mem_widget"}, resp.Resources)
	assert.Equal(t, []string{"mem_lookup"}, resp.DataSources)
	assert.Empty(t, resp.Diagnostics)
}

func TestGetSchemaWireShape(t *testing.T) {
	server, _ := newTestServer()

	var resp GetSchemaResponse
	require.NoError(t, server.GetSchema(&GetSchemaRequest{}, &resp))

	widget, ok := resp.Resources["mem_widget"]
	require.True(t, ok)
	require.Len(t, widget.Block.Attributes, 3)
	// Attributes arrive sorted by name.
	assert.Equal(t, "count", widget.Block.Attributes[0].Name)
	assert.Equal(t, "id", widget.Block.Attributes[1].Name)
	assert.Equal(t, "name", widget.Block.Attributes[2].Name)
	assert.True(t, widget.Block.Attributes[2].Required)

	var nameType schema.AttributeType
	require.NoError(t, json.Unmarshal(widget.Block.Attributes[2].Type, &nameType))
	assert.Equal(t, schema.KindString, nameType.Kind)
}

func TestSchemaRoundTrip(t *testing.T) {
	server, p := newTestServer()

	var resp GetSchemaResponse
	require.NoError(t, server.GetSchema(&GetSchemaRequest{}, &resp))

	decoded := providerSchemaFromMsg(&resp)
	assert.Equal(t, p.Schema().Resources["mem_widget"].Block.Attributes,
		decoded.Resources["mem_widget"].Block.Attributes)
}

func TestValidateResourceConfig(t *testing.T) {
	server, _ := newTestServer()

	var resp ValidateResourceConfigResponse
	require.NoError(t, server.ValidateResourceConfig(&ValidateResourceConfigRequest{
		ResourceType: "mem_widget",
		Config:       raw(t, map[string]any{"count": 2}),
	}, &resp))

	require.Len(t, resp.Diagnostics, 1)
	assert.Equal(t, "Missing required attribute 'name'", resp.Diagnostics[0].Summary)
}

func TestValidateUnknownResourceType(t *testing.T) {
	server, _ := newTestServer()

	var resp ValidateResourceConfigResponse
	require.NoError(t, server.ValidateResourceConfig(&ValidateResourceConfigRequest{
		ResourceType: "mem_missing",
	}, &resp))

	require.Len(t, resp.Diagnostics, 1)
	assert.Contains(t, resp.Diagnostics[0].Summary, "mem_missing")
}

func TestMalformedConfigDecodesToNull(t *testing.T) {
	server, _ := newTestServer()

	// Malformed or absent JSON degrades to null, and a null configuration
	// validates clean; neither fails the call.
	for _, config := range []json.RawMessage{nil, json.RawMessage(`{not json`), json.RawMessage(`null`)} {
		var resp ValidateResourceConfigResponse
		require.NoError(t, server.ValidateResourceConfig(&ValidateResourceConfigRequest{
			ResourceType: "mem_widget",
			Config:       config,
		}, &resp))
		assert.Empty(t, resp.Diagnostics)
	}

	var provResp ValidateProviderConfigResponse
	require.NoError(t, server.ValidateProviderConfig(&ValidateProviderConfigRequest{}, &provResp))
	assert.Empty(t, provResp.Diagnostics)
}

func TestPlanCreateOnEmptyPrior(t *testing.T) {
	server, _ := newTestServer()

	proposed := map[string]any{"name": "web", "count": 2}
	var resp PlanResponse
	require.NoError(t, server.Plan(&PlanRequest{
		ResourceType:  "mem_widget",
		ProposedState: raw(t, proposed),
	}, &resp))

	assert.Empty(t, resp.Diagnostics)
	assert.False(t, resp.RequiresReplace)
	assert.Len(t, resp.Changes, 2)
	for _, c := range resp.Changes {
		assert.Empty(t, c.Before)
		assert.NotEmpty(t, c.After)
	}

	var planned map[string]any
	require.NoError(t, json.Unmarshal(resp.PlannedState, &planned))
	assert.Equal(t, "web", planned["name"])
}

func TestPlanUpdateDiffs(t *testing.T) {
	server, _ := newTestServer()

	var resp PlanResponse
	require.NoError(t, server.Plan(&PlanRequest{
		ResourceType:  "mem_widget",
		PriorState:    raw(t, map[string]any{"name": "web", "count": 2}),
		ProposedState: raw(t, map[string]any{"name": "web", "count": 5}),
	}, &resp))

	require.Len(t, resp.Changes, 1)
	assert.Equal(t, "count", resp.Changes[0].Path)
	assert.Equal(t, "2", string(resp.Changes[0].Before))
	assert.Equal(t, "5", string(resp.Changes[0].After))
}

func TestPlanDeliversConfig(t *testing.T) {
	server, p := newTestServer()

	var resp PlanResponse
	require.NoError(t, server.Plan(&PlanRequest{
		ResourceType:  "mem_widget",
		ProposedState: raw(t, map[string]any{"name": "web", "count": float64(3)}),
		Config:        raw(t, map[string]any{"name": "web"}),
	}, &resp))
	assert.Empty(t, resp.Diagnostics)

	p.mu.Lock()
	config := p.planConfig
	p.mu.Unlock()
	assert.Equal(t, map[string]any{"name": "web"}, config)

	// An empty config payload decodes to nil.
	require.NoError(t, server.Plan(&PlanRequest{
		ResourceType:  "mem_widget",
		ProposedState: raw(t, map[string]any{"name": "web"}),
	}, &resp))

	p.mu.Lock()
	config = p.planConfig
	p.mu.Unlock()
	assert.Nil(t, config)
}

func TestProviderErrorBecomesDiagnostic(t *testing.T) {
	server, p := newTestServer()
	p.createErr = sdk.AlreadyExistsf("widget %q exists", "web")

	var resp CreateResponse
	// The RPC call itself succeeds; the failure travels as a diagnostic.
	require.NoError(t, server.Create(&CreateRequest{
		ResourceType: "mem_widget",
		PlannedState: raw(t, map[string]any{"name": "web"}),
	}, &resp))

	require.Len(t, resp.Diagnostics, 1)
	assert.True(t, resp.Diagnostics[0].IsError())
	assert.Contains(t, resp.Diagnostics[0].Summary, "Resource already exists")
	assert.Empty(t, resp.State)
}

func TestCrudRoundTrip(t *testing.T) {
	server, _ := newTestServer()

	var created CreateResponse
	require.NoError(t, server.Create(&CreateRequest{
		ResourceType: "mem_widget",
		PlannedState: raw(t, map[string]any{"name": "web"}),
	}, &created))
	require.Empty(t, created.Diagnostics)

	var read ReadResponse
	require.NoError(t, server.Read(&ReadRequest{
		ResourceType: "mem_widget",
		CurrentState: created.State,
	}, &read))
	var state map[string]any
	require.NoError(t, json.Unmarshal(read.State, &state))
	assert.Equal(t, "widget-1", state["id"])

	var deleted DeleteResponse
	require.NoError(t, server.Delete(&DeleteRequest{
		ResourceType: "mem_widget",
		CurrentState: created.State,
	}, &deleted))
	assert.Empty(t, deleted.Diagnostics)

	// Read after delete reports no state.
	var gone ReadResponse
	require.NoError(t, server.Read(&ReadRequest{
		ResourceType: "mem_widget",
		CurrentState: created.State,
	}, &gone))
	assert.Empty(t, gone.State)
}

func TestReadDataSource(t *testing.T) {
	server, _ := newTestServer()

	var resp ReadDataSourceResponse
	require.NoError(t, server.ReadDataSource(&ReadDataSourceRequest{
		DataSourceType: "mem_lookup",
		Config:         raw(t, map[string]any{"name": "web"}),
	}, &resp))

	require.Empty(t, resp.Diagnostics)
	var state map[string]any
	require.NoError(t, json.Unmarshal(resp.State, &state))
	assert.Equal(t, true, state["found"])
}

func TestImportUnimplementedByDefault(t *testing.T) {
	server, _ := newTestServer()

	var resp ImportResourceStateResponse
	require.NoError(t, server.ImportResourceState(&ImportResourceStateRequest{
		ResourceType: "mem_widget",
		ID:           "widget-9",
	}, &resp))

	require.Len(t, resp.Diagnostics, 1)
	assert.Contains(t, resp.Diagnostics[0].Summary, "Unimplemented")
}

func TestStopCalledOnce(t *testing.T) {
	server, p := newTestServer()

	for i := 0; i < 3; i++ {
		var resp StopResponse
		require.NoError(t, server.Stop(&StopRequest{}, &resp))
		assert.Empty(t, resp.Error)
	}
	assert.Equal(t, 1, p.stopCalls)
}

func TestStopErrorReportedNotFatal(t *testing.T) {
	server, p := newTestServer()
	p.stopErr = sdk.Internalf("connection pool leak")

	var resp StopResponse
	require.NoError(t, server.Stop(&StopRequest{}, &resp))
	assert.Contains(t, resp.Error, "connection pool leak")
}

func TestUpgradeResourceStateIdentityDefault(t *testing.T) {
	server, _ := newTestServer()

	state := map[string]any{"name": "web", "id": "widget-1"}
	var resp UpgradeResourceStateResponse
	require.NoError(t, server.UpgradeResourceState(&UpgradeResourceStateRequest{
		ResourceType: "mem_widget",
		Version:      0,
		RawState:     raw(t, state),
	}, &resp))

	require.Empty(t, resp.Diagnostics)
	var upgraded map[string]any
	require.NoError(t, json.Unmarshal(resp.UpgradedState, &upgraded))
	assert.Equal(t, "web", upgraded["name"])
}
