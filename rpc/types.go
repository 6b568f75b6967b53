// Package rpc adapts a provider.Provider onto the wire: request and response
// message types, the dispatch server, the serve loop with its startup
// handshake, and the client side used by hosts and tooling.
package rpc

import (
	"encoding/json"

	"github.com/hemmer-sh/provider-sdk/schema"
)

// Values cross the wire as JSON-encoded byte payloads. An empty payload
// stands for "no value"; the Plan request relies on this to distinguish
// create from update.

// AttributeMsg is the wire form of one attribute. Type and DefaultValue are
// JSON-encoded.
type AttributeMsg struct {
	Name         string          `json:"name"`
	Type         json.RawMessage `json:"type"`
	Required     bool            `json:"required"`
	Optional     bool            `json:"optional"`
	Computed     bool            `json:"computed"`
	Sensitive    bool            `json:"sensitive"`
	Description  string          `json:"description,omitempty"`
	ForceNew     bool            `json:"force_new,omitempty"`
	DefaultValue json.RawMessage `json:"default_value,omitempty"`
}

// NestedBlockMsg is the wire form of one nested block.
type NestedBlockMsg struct {
	TypeName    string   `json:"type_name"`
	Block       BlockMsg `json:"block"`
	Nesting     string   `json:"nesting"`
	MinItems    uint     `json:"min_items,omitempty"`
	MaxItems    uint     `json:"max_items,omitempty"`
	Description string   `json:"description,omitempty"`
}

// BlockMsg is the wire form of a block. Attributes and block types are
// sorted by name so the encoding is deterministic.
type BlockMsg struct {
	Attributes  []AttributeMsg   `json:"attributes,omitempty"`
	BlockTypes  []NestedBlockMsg `json:"block_types,omitempty"`
	Description string           `json:"description,omitempty"`
}

// SchemaMsg is the wire form of a schema.
type SchemaMsg struct {
	Version int64    `json:"version"`
	Block   BlockMsg `json:"block"`
}

// ChangeMsg is one planned attribute change. Before and After are
// JSON-encoded; an empty payload means the side does not exist.
type ChangeMsg struct {
	Path   string          `json:"path"`
	Before json.RawMessage `json:"before,omitempty"`
	After  json.RawMessage `json:"after,omitempty"`
}

// ServerCapabilitiesMsg advertises optional server behavior.
type ServerCapabilitiesMsg struct {
	PlanDestroy bool `json:"plan_destroy"`
}

type GetMetadataRequest struct{}

type GetMetadataResponse struct {
	Name               string                `json:"name"`
	Version            string                `json:"version"`
	ProtocolVersion    uint                  `json:"protocol_version"`
	ServerCapabilities ServerCapabilitiesMsg `json:"server_capabilities"`
	Resources          []string              `json:"resources"`
	DataSources        []string              `json:"data_sources"`
	Diagnostics        schema.Diagnostics    `json:"diagnostics,omitempty"`
}

type GetSchemaRequest struct{}

type GetSchemaResponse struct {
	Provider    SchemaMsg            `json:"provider"`
	Resources   map[string]SchemaMsg `json:"resources,omitempty"`
	DataSources map[string]SchemaMsg `json:"data_sources,omitempty"`
	Diagnostics schema.Diagnostics   `json:"diagnostics,omitempty"`
}

type ValidateProviderConfigRequest struct {
	Config json.RawMessage `json:"config,omitempty"`
}

type ValidateProviderConfigResponse struct {
	Diagnostics schema.Diagnostics `json:"diagnostics,omitempty"`
}

type ConfigureRequest struct {
	Config json.RawMessage `json:"config,omitempty"`
}

type ConfigureResponse struct {
	Diagnostics schema.Diagnostics `json:"diagnostics,omitempty"`
}

type StopRequest struct{}

// StopResponse reports a stop failure as a plain string. Stop is the one
// call that does not speak diagnostics.
type StopResponse struct {
	Error string `json:"error,omitempty"`
}

type ValidateResourceConfigRequest struct {
	ResourceType string          `json:"resource_type"`
	Config       json.RawMessage `json:"config,omitempty"`
}

type ValidateResourceConfigResponse struct {
	Diagnostics schema.Diagnostics `json:"diagnostics,omitempty"`
}

type UpgradeResourceStateRequest struct {
	ResourceType string          `json:"resource_type"`
	Version      int64           `json:"version"`
	RawState     json.RawMessage `json:"raw_state,omitempty"`
}

type UpgradeResourceStateResponse struct {
	UpgradedState json.RawMessage    `json:"upgraded_state,omitempty"`
	Diagnostics   schema.Diagnostics `json:"diagnostics,omitempty"`
}

type PlanRequest struct {
	ResourceType string `json:"resource_type"`
	// PriorState empty means the resource does not exist yet.
	PriorState    json.RawMessage `json:"prior_state,omitempty"`
	ProposedState json.RawMessage `json:"proposed_state,omitempty"`
	Config        json.RawMessage `json:"config,omitempty"`
}

type PlanResponse struct {
	PlannedState    json.RawMessage    `json:"planned_state,omitempty"`
	Changes         []ChangeMsg        `json:"changes,omitempty"`
	RequiresReplace bool               `json:"requires_replace"`
	Diagnostics     schema.Diagnostics `json:"diagnostics,omitempty"`
}

type CreateRequest struct {
	ResourceType string          `json:"resource_type"`
	PlannedState json.RawMessage `json:"planned_state,omitempty"`
}

type CreateResponse struct {
	State       json.RawMessage    `json:"state,omitempty"`
	Diagnostics schema.Diagnostics `json:"diagnostics,omitempty"`
}

type ReadRequest struct {
	ResourceType string          `json:"resource_type"`
	CurrentState json.RawMessage `json:"current_state,omitempty"`
}

type ReadResponse struct {
	State       json.RawMessage    `json:"state,omitempty"`
	Diagnostics schema.Diagnostics `json:"diagnostics,omitempty"`
}

type UpdateRequest struct {
	ResourceType string          `json:"resource_type"`
	PriorState   json.RawMessage `json:"prior_state,omitempty"`
	PlannedState json.RawMessage `json:"planned_state,omitempty"`
}

type UpdateResponse struct {
	State       json.RawMessage    `json:"state,omitempty"`
	Diagnostics schema.Diagnostics `json:"diagnostics,omitempty"`
}

type DeleteRequest struct {
	ResourceType string          `json:"resource_type"`
	CurrentState json.RawMessage `json:"current_state,omitempty"`
}

type DeleteResponse struct {
	Diagnostics schema.Diagnostics `json:"diagnostics,omitempty"`
}

type ImportResourceStateRequest struct {
	ResourceType string `json:"resource_type"`
	ID           string `json:"id"`
}

// ImportedResourceMsg is one resource produced by an import.
type ImportedResourceMsg struct {
	ResourceType string          `json:"resource_type"`
	State        json.RawMessage `json:"state,omitempty"`
}

type ImportResourceStateResponse struct {
	Imported    []ImportedResourceMsg `json:"imported,omitempty"`
	Diagnostics schema.Diagnostics    `json:"diagnostics,omitempty"`
}

type ValidateDataSourceConfigRequest struct {
	DataSourceType string          `json:"data_source_type"`
	Config         json.RawMessage `json:"config,omitempty"`
}

type ValidateDataSourceConfigResponse struct {
	Diagnostics schema.Diagnostics `json:"diagnostics,omitempty"`
}

type ReadDataSourceRequest struct {
	DataSourceType string          `json:"data_source_type"`
	Config         json.RawMessage `json:"config,omitempty"`
}

type ReadDataSourceResponse struct {
	State       json.RawMessage    `json:"state,omitempty"`
	Diagnostics schema.Diagnostics `json:"diagnostics,omitempty"`
}
