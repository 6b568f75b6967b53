// hemmer-schema-docs launches a provider binary, fetches its schema over
// RPC, and renders reference documentation in Markdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/hemmer-sh/provider-sdk/logging"
	"github.com/hemmer-sh/provider-sdk/rpc"
	"github.com/hemmer-sh/provider-sdk/schema"
)

func main() {
	var (
		providerPath = flag.String("provider", "", "path to the provider binary (required)")
		outputPath   = flag.String("output", "-", "output file, - for stdout")
	)
	flag.Parse()

	logger := logging.New("schema-docs")
	if *providerPath == "" {
		fmt.Fprintln(os.Stderr, "usage: hemmer-schema-docs -provider <binary> [-output <file>]")
		os.Exit(2)
	}

	client, err := rpc.Launch(context.Background(), *providerPath, logger)
	if err != nil {
		logger.Error("failed to launch provider", "provider", *providerPath, "error", err)
		os.Exit(1)
	}
	defer client.Close()

	meta, err := client.GetMetadata()
	if err != nil {
		logger.Error("failed to fetch metadata", "error", err)
		os.Exit(1)
	}
	ps, err := client.Schema()
	if err != nil {
		logger.Error("failed to fetch schema", "error", err)
		os.Exit(1)
	}

	out := io.Writer(os.Stdout)
	if *outputPath != "-" {
		f, err := os.Create(*outputPath)
		if err != nil {
			logger.Error("failed to create output file", "path", *outputPath, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	render(out, meta.Name, meta.Version, ps)
}

func render(w io.Writer, name, version string, ps schema.ProviderSchema) {
	fmt.Fprintf(w, "# %s provider\n\nVersion: %s\n", name, version)

	if len(ps.Provider.Block.Attributes) > 0 {
		fmt.Fprintf(w, "\n## Provider configuration\n\n")
		renderBlock(w, ps.Provider.Block)
	}

	for _, typeName := range sortedKeys(ps.Resources) {
		fmt.Fprintf(w, "\n## Resource `%s`\n\n", typeName)
		renderBlock(w, ps.Resources[typeName].Block)
	}
	for _, typeName := range sortedKeys(ps.DataSources) {
		fmt.Fprintf(w, "\n## Data source `%s`\n\n", typeName)
		renderBlock(w, ps.DataSources[typeName].Block)
	}
}

func renderBlock(w io.Writer, block schema.Block) {
	fmt.Fprintln(w, "| Attribute | Type | Usage | Description |")
	fmt.Fprintln(w, "| --- | --- | --- | --- |")

	var names []string
	for name := range block.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		attr := block.Attributes[name]
		fmt.Fprintf(w, "| `%s` | %s | %s | %s |\n",
			name, typeLabel(attr.Type), usageLabel(attr), attr.Description)
	}

	var blockNames []string
	for name := range block.Blocks {
		blockNames = append(blockNames, name)
	}
	sort.Strings(blockNames)
	for _, name := range blockNames {
		nested := block.Blocks[name]
		fmt.Fprintf(w, "\n### Block `%s` (%s", name, nested.NestingMode)
		if nested.MinItems > 0 || nested.MaxItems > 0 {
			fmt.Fprintf(w, ", %d..", nested.MinItems)
			if nested.MaxItems > 0 {
				fmt.Fprintf(w, "%d", nested.MaxItems)
			}
		}
		fmt.Fprintf(w, ")\n\n")
		renderBlock(w, nested.Block)
	}
}

func typeLabel(t schema.AttributeType) string {
	switch t.Kind {
	case schema.KindList, schema.KindSet, schema.KindMap:
		if t.Elem != nil {
			return fmt.Sprintf("%s(%s)", t.Kind, typeLabel(*t.Elem))
		}
		return string(t.Kind)
	case schema.KindObject:
		var fields []string
		for name := range t.Attrs {
			fields = append(fields, name)
		}
		sort.Strings(fields)
		return "object{" + strings.Join(fields, ", ") + "}"
	default:
		return string(t.Kind)
	}
}

func usageLabel(attr schema.Attribute) string {
	var parts []string
	if attr.Flags.Required {
		parts = append(parts, "required")
	}
	if attr.Flags.Optional {
		parts = append(parts, "optional")
	}
	if attr.Flags.Computed {
		parts = append(parts, "computed")
	}
	if attr.Flags.Sensitive {
		parts = append(parts, "sensitive")
	}
	if attr.ForceNew {
		parts = append(parts, "force-new")
	}
	return strings.Join(parts, ", ")
}

func sortedKeys(m map[string]schema.Schema) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
