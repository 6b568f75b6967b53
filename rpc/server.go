package rpc

import (
	"context"
	"sort"
	"sync"

	"github.com/hashicorp/go-hclog"

	sdk "github.com/hemmer-sh/provider-sdk"
	"github.com/hemmer-sh/provider-sdk/provider"
	"github.com/hemmer-sh/provider-sdk/schema"
	"github.com/hemmer-sh/provider-sdk/validation"
)

// ProviderServer dispatches wire requests onto a provider.Provider. Every
// method keeps the RPC call itself successful: provider failures travel as
// diagnostics (or as StopResponse.Error for Stop), never as a transport
// error.
//
// net/rpc runs each call in its own goroutine, so the wrapped provider is
// invoked concurrently.
type ProviderServer struct {
	Provider provider.Provider
	Logger   hclog.Logger

	stopOnce sync.Once
	stopErr  error
}

// NewProviderServer returns a dispatch server for p.
func NewProviderServer(p provider.Provider, logger hclog.Logger) *ProviderServer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &ProviderServer{Provider: p, Logger: logger}
}

// stopProvider invokes the provider's Stop at most once, no matter how many
// paths request it (the Stop RPC and the serve loop's shutdown both do).
func (s *ProviderServer) stopProvider(ctx context.Context) error {
	s.stopOnce.Do(func() {
		s.stopErr = s.Provider.Stop(ctx)
	})
	return s.stopErr
}

func (s *ProviderServer) GetMetadata(req *GetMetadataRequest, resp *GetMetadataResponse) error {
	s.Logger.Debug("GetMetadata called")

	meta := provider.EffectiveMetadata(s.Provider)
	ps := s.Provider.Schema()

	resp.Name = meta.Name
	resp.Version = meta.Version
	resp.ProtocolVersion = sdk.ProtocolVersion
	resp.ServerCapabilities = ServerCapabilitiesMsg{PlanDestroy: meta.Capabilities.PlanDestroy}
	resp.Resources = sortedNames(ps.Resources)
	resp.DataSources = sortedNames(ps.DataSources)
	return nil
}

func (s *ProviderServer) GetSchema(req *GetSchemaRequest, resp *GetSchemaResponse) error {
	s.Logger.Debug("GetSchema called")

	*resp = providerSchemaToMsg(s.Provider.Schema())
	return nil
}

func (s *ProviderServer) ValidateProviderConfig(req *ValidateProviderConfigRequest, resp *ValidateProviderConfigResponse) error {
	s.Logger.Debug("ValidateProviderConfig called")

	config := decodeValue(req.Config)
	resp.Diagnostics = append(
		validation.Validate(s.Provider.Schema().Provider, config),
		s.Provider.ValidateProviderConfig(config)...,
	)
	return nil
}

func (s *ProviderServer) Configure(req *ConfigureRequest, resp *ConfigureResponse) error {
	s.Logger.Debug("Configure called")

	if err := s.Provider.Configure(context.Background(), decodeValue(req.Config)); err != nil {
		s.Logger.Error("Configure failed", "error", err)
		resp.Diagnostics = errorToDiagnostics(err)
		return nil
	}

	s.Logger.Info("provider configured")
	return nil
}

func (s *ProviderServer) Stop(req *StopRequest, resp *StopResponse) error {
	s.Logger.Debug("Stop called")

	if err := s.stopProvider(context.Background()); err != nil {
		s.Logger.Error("Stop failed", "error", err)
		resp.Error = err.Error()
	}
	return nil
}

func (s *ProviderServer) ValidateResourceConfig(req *ValidateResourceConfigRequest, resp *ValidateResourceConfigResponse) error {
	s.Logger.Debug("ValidateResourceConfig called", "resource_type", req.ResourceType)

	rs, ok := s.Provider.Schema().Resources[req.ResourceType]
	if !ok {
		resp.Diagnostics = errorToDiagnostics(sdk.UnknownResourcef("unknown resource type: %s", req.ResourceType))
		return nil
	}

	config := decodeValue(req.Config)
	resp.Diagnostics = append(
		validation.Validate(rs, config),
		s.Provider.ValidateResourceConfig(req.ResourceType, config)...,
	)
	return nil
}

func (s *ProviderServer) UpgradeResourceState(req *UpgradeResourceStateRequest, resp *UpgradeResourceStateResponse) error {
	s.Logger.Debug("UpgradeResourceState called", "resource_type", req.ResourceType, "version", req.Version)

	upgraded, err := s.Provider.UpgradeResourceState(req.ResourceType, uint64(req.Version), decodeValue(req.RawState))
	if err != nil {
		s.Logger.Error("UpgradeResourceState failed", "resource_type", req.ResourceType, "error", err)
		resp.Diagnostics = errorToDiagnostics(err)
		return nil
	}

	resp.UpgradedState = encodeValue(upgraded)
	return nil
}

func (s *ProviderServer) Plan(req *PlanRequest, resp *PlanResponse) error {
	create := len(req.PriorState) == 0
	s.Logger.Debug("Plan called", "resource_type", req.ResourceType, "create", create)

	// An empty prior payload is the create marker; a present payload that
	// decodes to null still plans as an update of a null state.
	var prior any
	if !create {
		prior = decodeValue(req.PriorState)
	}

	result, err := s.Provider.Plan(context.Background(), req.ResourceType, prior,
		decodeValue(req.ProposedState), decodeValue(req.Config))
	if err != nil {
		s.Logger.Error("Plan failed", "resource_type", req.ResourceType, "error", err)
		resp.Diagnostics = errorToDiagnostics(err)
		return nil
	}

	resp.PlannedState = encodeValue(result.PlannedState)
	resp.Changes = changesToMsg(result.Changes)
	resp.RequiresReplace = result.RequiresReplace
	s.Logger.Debug("Plan completed", "resource_type", req.ResourceType, "changes", len(result.Changes))
	return nil
}

func (s *ProviderServer) Create(req *CreateRequest, resp *CreateResponse) error {
	s.Logger.Debug("Create called", "resource_type", req.ResourceType)

	state, err := s.Provider.Create(context.Background(), req.ResourceType, decodeValue(req.PlannedState))
	if err != nil {
		s.Logger.Error("Create failed", "resource_type", req.ResourceType, "error", err)
		resp.Diagnostics = errorToDiagnostics(err)
		return nil
	}

	resp.State = encodeValue(state)
	s.Logger.Info("resource created", "resource_type", req.ResourceType)
	return nil
}

func (s *ProviderServer) Read(req *ReadRequest, resp *ReadResponse) error {
	s.Logger.Debug("Read called", "resource_type", req.ResourceType)

	state, err := s.Provider.Read(context.Background(), req.ResourceType, decodeValue(req.CurrentState))
	if err != nil {
		s.Logger.Error("Read failed", "resource_type", req.ResourceType, "error", err)
		resp.Diagnostics = errorToDiagnostics(err)
		return nil
	}

	resp.State = encodeValue(state)
	return nil
}

func (s *ProviderServer) Update(req *UpdateRequest, resp *UpdateResponse) error {
	s.Logger.Debug("Update called", "resource_type", req.ResourceType)

	state, err := s.Provider.Update(context.Background(), req.ResourceType,
		decodeValue(req.PriorState), decodeValue(req.PlannedState))
	if err != nil {
		s.Logger.Error("Update failed", "resource_type", req.ResourceType, "error", err)
		resp.Diagnostics = errorToDiagnostics(err)
		return nil
	}

	resp.State = encodeValue(state)
	s.Logger.Info("resource updated", "resource_type", req.ResourceType)
	return nil
}

func (s *ProviderServer) Delete(req *DeleteRequest, resp *DeleteResponse) error {
	s.Logger.Debug("Delete called", "resource_type", req.ResourceType)

	if err := s.Provider.Delete(context.Background(), req.ResourceType, decodeValue(req.CurrentState)); err != nil {
		s.Logger.Error("Delete failed", "resource_type", req.ResourceType, "error", err)
		resp.Diagnostics = errorToDiagnostics(err)
		return nil
	}

	s.Logger.Info("resource deleted", "resource_type", req.ResourceType)
	return nil
}

func (s *ProviderServer) ImportResourceState(req *ImportResourceStateRequest, resp *ImportResourceStateResponse) error {
	s.Logger.Debug("ImportResourceState called", "resource_type", req.ResourceType, "id", req.ID)

	imported, err := s.Provider.ImportResourceState(context.Background(), req.ResourceType, req.ID)
	if err != nil {
		s.Logger.Error("ImportResourceState failed", "resource_type", req.ResourceType, "error", err)
		resp.Diagnostics = errorToDiagnostics(err)
		return nil
	}

	for _, r := range imported {
		resp.Imported = append(resp.Imported, ImportedResourceMsg{
			ResourceType: r.TypeName,
			State:        encodeValue(r.State),
		})
	}
	return nil
}

func (s *ProviderServer) ValidateDataSourceConfig(req *ValidateDataSourceConfigRequest, resp *ValidateDataSourceConfigResponse) error {
	s.Logger.Debug("ValidateDataSourceConfig called", "data_source_type", req.DataSourceType)

	ds, ok := s.Provider.Schema().DataSources[req.DataSourceType]
	if !ok {
		resp.Diagnostics = errorToDiagnostics(sdk.UnknownResourcef("unknown data source: %s", req.DataSourceType))
		return nil
	}

	config := decodeValue(req.Config)
	resp.Diagnostics = append(
		validation.Validate(ds, config),
		s.Provider.ValidateDataSourceConfig(req.DataSourceType, config)...,
	)
	return nil
}

func (s *ProviderServer) ReadDataSource(req *ReadDataSourceRequest, resp *ReadDataSourceResponse) error {
	s.Logger.Debug("ReadDataSource called", "data_source_type", req.DataSourceType)

	state, err := s.Provider.ReadDataSource(context.Background(), req.DataSourceType, decodeValue(req.Config))
	if err != nil {
		s.Logger.Error("ReadDataSource failed", "data_source_type", req.DataSourceType, "error", err)
		resp.Diagnostics = errorToDiagnostics(err)
		return nil
	}

	resp.State = encodeValue(state)
	return nil
}

func sortedNames(m map[string]schema.Schema) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
