package rpc

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	sdk "github.com/hemmer-sh/provider-sdk"
	"github.com/hemmer-sh/provider-sdk/logging"
)

// binaryPrefix is the naming convention provider binaries follow, for
// example "hemmer-provider-postgres".
const binaryPrefix = "hemmer-provider-"

// Registry discovers provider binaries on disk and manages launched clients
// by provider name. It is safe for concurrent use.
type Registry struct {
	logger hclog.Logger

	mu      sync.Mutex
	clients map[string]*Client
}

// NewRegistry returns an empty registry.
func NewRegistry(logger hclog.Logger) *Registry {
	if logger == nil {
		logger = logging.New("hemmer-registry")
	}
	return &Registry{
		logger:  logger,
		clients: map[string]*Client{},
	}
}

// searchPaths returns the directories scanned for provider binaries: the
// working directory, ./bin, and every PATH entry.
func searchPaths() []string {
	paths := []string{".", "./bin"}
	if path := os.Getenv("PATH"); path != "" {
		paths = append(paths, strings.Split(path, string(os.PathListSeparator))...)
	}
	return paths
}

// Discover lists the provider names found in the search paths. A binary
// named "hemmer-provider-postgres" is reported as "postgres". Duplicates
// resolve to the first hit, matching lookup order.
func Discover() []string {
	seen := map[string]bool{}
	var names []string
	for _, dir := range searchPaths() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasPrefix(entry.Name(), binaryPrefix) {
				continue
			}
			if !isExecutable(filepath.Join(dir, entry.Name())) {
				continue
			}
			name := strings.TrimPrefix(entry.Name(), binaryPrefix)
			if name != "" && !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// FindBinary resolves a provider name to the path of its binary.
func FindBinary(name string) (string, error) {
	binary := binaryPrefix + name
	for _, dir := range searchPaths() {
		path := filepath.Join(dir, binary)
		if isExecutable(path) {
			return path, nil
		}
	}
	return "", sdk.NotFoundf("provider binary %q not found in search paths", binary)
}

// Connect launches the named provider (or reuses an existing client) and
// returns a connected client.
func (r *Registry) Connect(ctx context.Context, name string) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if client, ok := r.clients[name]; ok {
		return client, nil
	}

	path, err := FindBinary(name)
	if err != nil {
		return nil, err
	}

	client, err := Launch(ctx, path, r.logger.Named(name))
	if err != nil {
		return nil, err
	}

	r.logger.Info("connected to provider", "provider", name, "address", client.Address())
	r.clients[name] = client
	return client, nil
}

// Close shuts down every launched provider.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, client := range r.clients {
		r.logger.Debug("closing provider", "provider", name)
		if err := client.Close(); err != nil {
			r.logger.Warn("provider close failed", "provider", name, "error", err)
		}
	}
	r.clients = map[string]*Client{}
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0111 != 0
}
