// Package provider defines the interface a provider implements and the
// defaults most providers start from. The rpc package adapts this interface
// onto the wire; implementations never touch transport concerns.
package provider

import (
	"context"
	"sort"
	"strings"

	sdk "github.com/hemmer-sh/provider-sdk"
	"github.com/hemmer-sh/provider-sdk/plan"
	"github.com/hemmer-sh/provider-sdk/schema"
)

// Metadata identifies a provider to the host.
type Metadata struct {
	// Name is the provider's short name, for example "postgres". When
	// empty it is derived from the provider's resource type names.
	Name string `json:"name"`
	// Version is the provider build version, not the protocol version.
	Version string `json:"version"`
	// Capabilities advertises optional server behavior.
	Capabilities ServerCapabilities `json:"capabilities"`
}

// ServerCapabilities advertises optional behavior the host may rely on.
type ServerCapabilities struct {
	// PlanDestroy asks the host to call Plan for destroy operations too.
	PlanDestroy bool `json:"plan_destroy"`
}

// ImportedResource is one resource produced by an import operation.
type ImportedResource struct {
	TypeName string `json:"type_name"`
	State    any    `json:"state"`
}

// Provider is the full surface a provider plugin exposes. Configuration and
// state values are decoded JSON ("any" holds map[string]any, []any, string,
// float64, bool, or nil).
//
// The server dispatches calls concurrently, so implementations must be safe
// for concurrent use after Configure returns.
type Provider interface {
	// Schema returns the provider's configuration, resource, and data
	// source schemas. Called once at startup; the result must not change.
	Schema() schema.ProviderSchema

	// Metadata identifies the provider. Return the zero value to have the
	// name derived from the resource type names.
	Metadata() Metadata

	// ValidateProviderConfig adds provider-specific checks on top of the
	// schema validation the server already performs.
	ValidateProviderConfig(config any) schema.Diagnostics

	// Configure prepares the provider with its validated configuration.
	// Called once before any resource or data source operation.
	Configure(ctx context.Context, config any) error

	// Stop releases resources held by the provider. Called exactly once
	// during server shutdown, after in-flight calls have drained.
	Stop(ctx context.Context) error

	// ValidateResourceConfig adds resource-specific checks on top of the
	// schema validation the server already performs.
	ValidateResourceConfig(typeName string, config any) schema.Diagnostics

	// UpgradeResourceState migrates state written at an older schema
	// version to the current one.
	UpgradeResourceState(typeName string, version uint64, state any) (any, error)

	// Plan computes the planned state for a change. A nil prior means
	// the resource is being created. Config carries the raw configuration
	// the proposed state was built from, for providers that plan against
	// it rather than the merged proposal.
	Plan(ctx context.Context, typeName string, prior, proposed, config any) (plan.Result, error)

	// Create realizes a planned resource and returns its new state.
	Create(ctx context.Context, typeName string, planned any) (any, error)

	// Read refreshes a resource's state. Returning nil state means the
	// resource no longer exists.
	Read(ctx context.Context, typeName string, current any) (any, error)

	// Update applies a planned change to an existing resource.
	Update(ctx context.Context, typeName string, prior, planned any) (any, error)

	// Delete destroys a resource.
	Delete(ctx context.Context, typeName string, prior any) error

	// ImportResourceState builds state for resources created outside the
	// provider, addressed by an opaque id.
	ImportResourceState(ctx context.Context, typeName, id string) ([]ImportedResource, error)

	// ValidateDataSourceConfig adds data-source-specific checks on top of
	// the schema validation the server already performs.
	ValidateDataSourceConfig(typeName string, config any) schema.Diagnostics

	// ReadDataSource reads a data source with the given configuration.
	ReadDataSource(ctx context.Context, typeName string, config any) (any, error)
}

// Base supplies defaults for every optional Provider method. Embed it and
// override what the provider actually needs; Schema has no sensible default
// and is the one method Base does not provide.
type Base struct{}

// Metadata returns the zero value so the name is derived from the schema.
func (Base) Metadata() Metadata { return Metadata{} }

// ValidateProviderConfig accepts any configuration.
func (Base) ValidateProviderConfig(any) schema.Diagnostics { return nil }

// Configure is a no-op.
func (Base) Configure(context.Context, any) error { return nil }

// Stop is a no-op.
func (Base) Stop(context.Context) error { return nil }

// ValidateResourceConfig accepts any configuration.
func (Base) ValidateResourceConfig(string, any) schema.Diagnostics { return nil }

// UpgradeResourceState returns the state unchanged.
func (Base) UpgradeResourceState(_ string, _ uint64, state any) (any, error) {
	return state, nil
}

// Plan returns the structural diff between prior and proposed state,
// ignoring the configuration.
func (Base) Plan(_ context.Context, _ string, prior, proposed, _ any) (plan.Result, error) {
	return plan.Diff(prior, proposed), nil
}

// ImportResourceState reports import as unsupported.
func (Base) ImportResourceState(_ context.Context, typeName, _ string) ([]ImportedResource, error) {
	return nil, sdk.Unimplementedf("import is not supported for %s", typeName)
}

// ValidateDataSourceConfig accepts any configuration.
func (Base) ValidateDataSourceConfig(string, any) schema.Diagnostics { return nil }

// ReadDataSource reports the data source as unknown.
func (Base) ReadDataSource(_ context.Context, typeName string, _ any) (any, error) {
	return nil, sdk.UnknownResourcef("unknown data source: %s", typeName)
}

// EffectiveMetadata resolves the metadata the server advertises. Empty
// fields fall back to values derived from the provider's schema and the SDK
// build. Resource type names follow the "<provider>_<type>" convention, so
// the name falls back to the common prefix of the declared types.
func EffectiveMetadata(p Provider) Metadata {
	m := p.Metadata()
	if m.Name == "" {
		m.Name = deriveName(p.Schema())
	}
	if m.Version == "" {
		m.Version = sdk.Version
	}
	return m
}

func deriveName(ps schema.ProviderSchema) string {
	var names []string
	for name := range ps.Resources {
		names = append(names, name)
	}
	for name := range ps.DataSources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if idx := strings.IndexByte(name, '_'); idx > 0 {
			return name[:idx]
		}
	}
	return "provider"
}
