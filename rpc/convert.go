package rpc

import (
	"encoding/json"
	"sort"

	"github.com/hemmer-sh/provider-sdk/plan"
	"github.com/hemmer-sh/provider-sdk/schema"
)

// decodeValue leniently decodes a JSON payload. Empty or malformed input
// decodes to nil instead of failing; the dispatch layer never hard-fails on
// payload shape.
func decodeValue(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

// encodeValue encodes a value for the wire. A nil value encodes to an empty
// payload, mirroring decodeValue.
func encodeValue(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}

// errorToDiagnostics converts a provider error into the single-element
// diagnostic list that crosses the wire in its place.
func errorToDiagnostics(err error) schema.Diagnostics {
	return schema.Diagnostics{schema.ErrorDiag(err.Error())}
}

func attributeToMsg(name string, attr schema.Attribute) AttributeMsg {
	typeRaw, _ := json.Marshal(attr.Type)
	return AttributeMsg{
		Name:         name,
		Type:         typeRaw,
		Required:     attr.Flags.Required,
		Optional:     attr.Flags.Optional,
		Computed:     attr.Flags.Computed,
		Sensitive:    attr.Flags.Sensitive,
		Description:  attr.Description,
		ForceNew:     attr.ForceNew,
		DefaultValue: encodeValue(attr.Default),
	}
}

func attributeFromMsg(msg AttributeMsg) schema.Attribute {
	var t schema.AttributeType
	_ = json.Unmarshal(msg.Type, &t)
	return schema.Attribute{
		Type: t,
		Flags: schema.AttributeFlags{
			Required:  msg.Required,
			Optional:  msg.Optional,
			Computed:  msg.Computed,
			Sensitive: msg.Sensitive,
		},
		Description: msg.Description,
		ForceNew:    msg.ForceNew,
		Default:     decodeValue(msg.DefaultValue),
	}
}

func blockToMsg(block schema.Block) BlockMsg {
	msg := BlockMsg{Description: block.Description}

	attrNames := make([]string, 0, len(block.Attributes))
	for name := range block.Attributes {
		attrNames = append(attrNames, name)
	}
	sort.Strings(attrNames)
	for _, name := range attrNames {
		msg.Attributes = append(msg.Attributes, attributeToMsg(name, block.Attributes[name]))
	}

	blockNames := make([]string, 0, len(block.Blocks))
	for name := range block.Blocks {
		blockNames = append(blockNames, name)
	}
	sort.Strings(blockNames)
	for _, name := range blockNames {
		nested := block.Blocks[name]
		msg.BlockTypes = append(msg.BlockTypes, NestedBlockMsg{
			TypeName:    name,
			Block:       blockToMsg(nested.Block),
			Nesting:     string(nested.NestingMode),
			MinItems:    nested.MinItems,
			MaxItems:    nested.MaxItems,
			Description: nested.Block.Description,
		})
	}

	return msg
}

func blockFromMsg(msg BlockMsg) schema.Block {
	block := schema.NewBlock().WithDescription(msg.Description)
	for _, attr := range msg.Attributes {
		block = block.WithAttribute(attr.Name, attributeFromMsg(attr))
	}
	for _, nested := range msg.BlockTypes {
		block = block.WithBlock(nested.TypeName, schema.NestedBlock{
			Block:       blockFromMsg(nested.Block),
			NestingMode: schema.NestingMode(nested.Nesting),
			MinItems:    nested.MinItems,
			MaxItems:    nested.MaxItems,
		})
	}
	return block
}

func schemaToMsg(s schema.Schema) SchemaMsg {
	return SchemaMsg{Version: int64(s.Version), Block: blockToMsg(s.Block)}
}

func schemaFromMsg(msg SchemaMsg) schema.Schema {
	return schema.Schema{Version: uint64(msg.Version), Block: blockFromMsg(msg.Block)}
}

func providerSchemaToMsg(ps schema.ProviderSchema) GetSchemaResponse {
	resp := GetSchemaResponse{
		Provider:    schemaToMsg(ps.Provider),
		Resources:   map[string]SchemaMsg{},
		DataSources: map[string]SchemaMsg{},
	}
	for name, s := range ps.Resources {
		resp.Resources[name] = schemaToMsg(s)
	}
	for name, s := range ps.DataSources {
		resp.DataSources[name] = schemaToMsg(s)
	}
	return resp
}

func providerSchemaFromMsg(resp *GetSchemaResponse) schema.ProviderSchema {
	ps := schema.NewProviderSchema().WithProviderConfig(schemaFromMsg(resp.Provider))
	for name, msg := range resp.Resources {
		ps = ps.WithResource(name, schemaFromMsg(msg))
	}
	for name, msg := range resp.DataSources {
		ps = ps.WithDataSource(name, schemaFromMsg(msg))
	}
	return ps
}

func changesToMsg(changes []plan.Change) []ChangeMsg {
	if len(changes) == 0 {
		return nil
	}
	msgs := make([]ChangeMsg, 0, len(changes))
	for _, c := range changes {
		msg := ChangeMsg{Path: c.Path}
		if c.Action != plan.ActionAdded {
			msg.Before = encodeValue(c.Before)
		}
		if c.Action != plan.ActionRemoved {
			msg.After = encodeValue(c.After)
		}
		msgs = append(msgs, msg)
	}
	return msgs
}
