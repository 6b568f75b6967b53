// Package schema provides the type system used to describe provider,
// resource, and data source configuration: attribute types, usage flags,
// nested blocks, and diagnostics.
//
// Schemas are built once at provider start and treated as immutable
// afterwards. They drive validation, wire encoding, and documentation.
package schema

// TypeKind identifies the kind of an attribute type.
type TypeKind string

const (
	KindString  TypeKind = "string"
	KindInt64   TypeKind = "int64"
	KindFloat64 TypeKind = "float64"
	KindBool    TypeKind = "bool"
	KindList    TypeKind = "list"
	KindSet     TypeKind = "set"
	KindMap     TypeKind = "map"
	KindObject  TypeKind = "object"
	KindDynamic TypeKind = "dynamic"
)

// AttributeType describes the type of an attribute value. List, Set, and Map
// carry an element type; Object carries a fixed attribute mapping; Dynamic
// matches any value.
type AttributeType struct {
	Kind TypeKind `json:"kind"`
	// Elem is the element type for list, set, and map kinds.
	Elem *AttributeType `json:"elem,omitempty"`
	// Attrs is the attribute mapping for the object kind.
	Attrs map[string]AttributeType `json:"attrs,omitempty"`
}

// String returns the string attribute type.
func String() AttributeType { return AttributeType{Kind: KindString} }

// Int64 returns the 64-bit integer attribute type.
func Int64() AttributeType { return AttributeType{Kind: KindInt64} }

// Float64 returns the 64-bit float attribute type.
func Float64() AttributeType { return AttributeType{Kind: KindFloat64} }

// Bool returns the boolean attribute type.
func Bool() AttributeType { return AttributeType{Kind: KindBool} }

// Dynamic returns the dynamic attribute type, which matches any value.
func Dynamic() AttributeType { return AttributeType{Kind: KindDynamic} }

// List returns a list type with the given element type.
func List(elem AttributeType) AttributeType {
	return AttributeType{Kind: KindList, Elem: &elem}
}

// Set returns a set type with the given element type. Sets are carried as
// JSON arrays on the wire.
func Set(elem AttributeType) AttributeType {
	return AttributeType{Kind: KindSet, Elem: &elem}
}

// Map returns a map type with string keys and the given value type.
func Map(elem AttributeType) AttributeType {
	return AttributeType{Kind: KindMap, Elem: &elem}
}

// Object returns an object type with a fixed set of attributes.
func Object(attrs map[string]AttributeType) AttributeType {
	return AttributeType{Kind: KindObject, Attrs: attrs}
}

// AttributeFlags describe how an attribute can be used. Exactly one of
// Required/Optional is expected for attributes a caller must consider; an
// attribute that is only Computed is provider-set and skipped by validation.
type AttributeFlags struct {
	Required  bool `json:"required"`
	Optional  bool `json:"optional"`
	Computed  bool `json:"computed"`
	Sensitive bool `json:"sensitive"`
}

// Attribute describes a single attribute in a block.
type Attribute struct {
	Type        AttributeType  `json:"type"`
	Flags       AttributeFlags `json:"flags"`
	Description string         `json:"description,omitempty"`
	// ForceNew signals that a change to this attribute requires the
	// resource to be destroyed and recreated. Informational: neither the
	// validator nor the diff engine acts on it.
	ForceNew bool `json:"force_new,omitempty"`
	// Default is the attribute's default value, if any.
	Default any `json:"default,omitempty"`
}

// RequiredString returns a required string attribute.
func RequiredString() Attribute {
	return Attribute{Type: String(), Flags: AttributeFlags{Required: true}}
}

// OptionalString returns an optional string attribute.
func OptionalString() Attribute {
	return Attribute{Type: String(), Flags: AttributeFlags{Optional: true}}
}

// ComputedString returns a computed (provider-set) string attribute.
func ComputedString() Attribute {
	return Attribute{Type: String(), Flags: AttributeFlags{Computed: true}}
}

// RequiredInt64 returns a required int64 attribute.
func RequiredInt64() Attribute {
	return Attribute{Type: Int64(), Flags: AttributeFlags{Required: true}}
}

// OptionalInt64 returns an optional int64 attribute.
func OptionalInt64() Attribute {
	return Attribute{Type: Int64(), Flags: AttributeFlags{Optional: true}}
}

// RequiredBool returns a required bool attribute.
func RequiredBool() Attribute {
	return Attribute{Type: Bool(), Flags: AttributeFlags{Required: true}}
}

// OptionalBool returns an optional bool attribute.
func OptionalBool() Attribute {
	return Attribute{Type: Bool(), Flags: AttributeFlags{Optional: true}}
}

// NewAttribute returns an attribute with the given type and flags.
func NewAttribute(t AttributeType, flags AttributeFlags) Attribute {
	return Attribute{Type: t, Flags: flags}
}

// WithDescription sets the attribute description.
func (a Attribute) WithDescription(desc string) Attribute {
	a.Description = desc
	return a
}

// WithForceNew marks the attribute as forcing replacement when changed.
func (a Attribute) WithForceNew() Attribute {
	a.ForceNew = true
	return a
}

// WithDefault sets the attribute's default value.
func (a Attribute) WithDefault(v any) Attribute {
	a.Default = v
	return a
}

// Sensitive marks the attribute as sensitive so UIs and logs redact it.
func (a Attribute) Sensitive() Attribute {
	a.Flags.Sensitive = true
	return a
}

// NestingMode defines the cardinality and shape of a nested block.
type NestingMode string

const (
	NestingSingle NestingMode = "single"
	NestingList   NestingMode = "list"
	NestingSet    NestingMode = "set"
	NestingMap    NestingMode = "map"
)

// Block is a named group of attributes and nested blocks.
type Block struct {
	Attributes  map[string]Attribute   `json:"attributes,omitempty"`
	Blocks      map[string]NestedBlock `json:"blocks,omitempty"`
	Description string                 `json:"description,omitempty"`
}

// NewBlock returns an empty block.
func NewBlock() Block {
	return Block{
		Attributes: map[string]Attribute{},
		Blocks:     map[string]NestedBlock{},
	}
}

// WithAttribute adds an attribute to the block.
func (b Block) WithAttribute(name string, attr Attribute) Block {
	if b.Attributes == nil {
		b.Attributes = map[string]Attribute{}
	}
	b.Attributes[name] = attr
	return b
}

// WithBlock adds a nested block.
func (b Block) WithBlock(name string, nested NestedBlock) Block {
	if b.Blocks == nil {
		b.Blocks = map[string]NestedBlock{}
	}
	b.Blocks[name] = nested
	return b
}

// WithDescription sets the block description.
func (b Block) WithDescription(desc string) Block {
	b.Description = desc
	return b
}

// NestedBlock is a block embedded in another block together with its nesting
// mode and item constraints. MaxItems zero means unbounded.
type NestedBlock struct {
	Block       Block       `json:"block"`
	NestingMode NestingMode `json:"nesting_mode"`
	MinItems    uint        `json:"min_items,omitempty"`
	MaxItems    uint        `json:"max_items,omitempty"`
}

// SingleBlock returns a single nested block (at most one occurrence).
func SingleBlock(block Block) NestedBlock {
	return NestedBlock{Block: block, NestingMode: NestingSingle, MaxItems: 1}
}

// ListBlock returns an ordered, repeatable nested block.
func ListBlock(block Block) NestedBlock {
	return NestedBlock{Block: block, NestingMode: NestingList}
}

// SetBlock returns an unordered, repeatable nested block.
func SetBlock(block Block) NestedBlock {
	return NestedBlock{Block: block, NestingMode: NestingSet}
}

// MapBlock returns a nested block keyed by string.
func MapBlock(block Block) NestedBlock {
	return NestedBlock{Block: block, NestingMode: NestingMap}
}

// WithMinItems sets the minimum number of occurrences.
func (n NestedBlock) WithMinItems(min uint) NestedBlock {
	n.MinItems = min
	return n
}

// WithMaxItems sets the maximum number of occurrences.
func (n NestedBlock) WithMaxItems(max uint) NestedBlock {
	n.MaxItems = max
	return n
}

// Schema describes a resource, data source, or provider configuration shape.
// Version selects the state upgrade path for persisted state.
type Schema struct {
	Version uint64 `json:"version"`
	Block   Block  `json:"block"`
}

// New returns a schema at the given version.
func New(version uint64) Schema {
	return Schema{Version: version, Block: NewBlock()}
}

// V0 returns a schema at version zero.
func V0() Schema { return New(0) }

// WithAttribute adds an attribute to the schema's root block.
func (s Schema) WithAttribute(name string, attr Attribute) Schema {
	s.Block = s.Block.WithAttribute(name, attr)
	return s
}

// WithBlock adds a nested block to the schema's root block.
func (s Schema) WithBlock(name string, nested NestedBlock) Schema {
	s.Block = s.Block.WithBlock(name, nested)
	return s
}

// ProviderSchema is the root aggregate: the provider's own configuration
// schema plus one schema per resource and data source type. Built once per
// process and never mutated afterwards.
type ProviderSchema struct {
	Provider    Schema            `json:"provider"`
	Resources   map[string]Schema `json:"resources,omitempty"`
	DataSources map[string]Schema `json:"data_sources,omitempty"`
}

// NewProviderSchema returns an empty provider schema.
func NewProviderSchema() ProviderSchema {
	return ProviderSchema{
		Resources:   map[string]Schema{},
		DataSources: map[string]Schema{},
	}
}

// WithProviderConfig sets the provider configuration schema.
func (p ProviderSchema) WithProviderConfig(s Schema) ProviderSchema {
	p.Provider = s
	return p
}

// WithResource adds a resource schema.
func (p ProviderSchema) WithResource(name string, s Schema) ProviderSchema {
	if p.Resources == nil {
		p.Resources = map[string]Schema{}
	}
	p.Resources[name] = s
	return p
}

// WithDataSource adds a data source schema.
func (p ProviderSchema) WithDataSource(name string, s Schema) ProviderSchema {
	if p.DataSources == nil {
		p.DataSources = map[string]Schema{}
	}
	p.DataSources[name] = s
	return p
}
