package providertest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdk "github.com/hemmer-sh/provider-sdk"
	"github.com/hemmer-sh/provider-sdk/provider"
	"github.com/hemmer-sh/provider-sdk/schema"
)

// bucketProvider is a small in-memory provider used to exercise the harness.
type bucketProvider struct {
	provider.Base
	buckets map[string]map[string]any
}

func newBucketProvider() *bucketProvider {
	return &bucketProvider{buckets: map[string]map[string]any{}}
}

func (p *bucketProvider) Schema() schema.ProviderSchema {
	return schema.NewProviderSchema().
		WithProviderConfig(schema.V0().
			WithAttribute("region", schema.RequiredString())).
		WithResource("store_bucket", schema.V0().
			WithAttribute("name", schema.RequiredString()).
			WithAttribute("versioned", schema.OptionalBool()))
}

func (p *bucketProvider) ValidateResourceConfig(_ string, config any) schema.Diagnostics {
	cfg, ok := config.(map[string]any)
	if !ok {
		return nil
	}
	if name, ok := cfg["name"].(string); ok && name == "reserved" {
		return schema.Diagnostics{
			schema.ErrorDiag("bucket name 'reserved' is not allowed").WithAttribute("name"),
		}
	}
	return nil
}

func (p *bucketProvider) Create(_ context.Context, _ string, planned any) (any, error) {
	state := planned.(map[string]any)
	name := state["name"].(string)
	if _, exists := p.buckets[name]; exists {
		return nil, sdk.AlreadyExistsf("bucket %q", name)
	}
	p.buckets[name] = state
	return state, nil
}

func (p *bucketProvider) Read(_ context.Context, _ string, current any) (any, error) {
	state := current.(map[string]any)
	stored, ok := p.buckets[state["name"].(string)]
	if !ok {
		return nil, nil
	}
	return stored, nil
}

func (p *bucketProvider) Update(_ context.Context, _ string, _, planned any) (any, error) {
	state := planned.(map[string]any)
	p.buckets[state["name"].(string)] = state
	return state, nil
}

func (p *bucketProvider) Delete(_ context.Context, _ string, current any) error {
	delete(p.buckets, current.(map[string]any)["name"].(string))
	return nil
}

func TestConfigureFailsOnSchemaErrors(t *testing.T) {
	tt := New(newBucketProvider())
	err := tt.Configure(map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing required attribute 'region'")

	require.NoError(t, tt.Configure(map[string]any{"region": "eu-west-1"}))
}

func TestValidateResourceMergesProviderChecks(t *testing.T) {
	tt := New(newBucketProvider())

	AssertNoErrors(t, tt.ValidateResource("store_bucket", map[string]any{"name": "logs"}))

	diags := tt.ValidateResource("store_bucket", map[string]any{"name": "reserved"})
	AssertHasErrors(t, diags)
	AssertErrorContains(t, diags, "not allowed")
}

func TestPlanHelpers(t *testing.T) {
	tt := New(newBucketProvider())

	created, err := tt.PlanCreate("store_bucket", map[string]any{"name": "logs", "versioned": true})
	require.NoError(t, err)
	AssertPlanCreates(t, created)
	AssertChangesAttribute(t, created, "name")
	AssertUpdatesInPlace(t, created)

	same, err := tt.PlanUpdate("store_bucket",
		map[string]any{"name": "logs"}, map[string]any{"name": "logs"})
	require.NoError(t, err)
	AssertNoChanges(t, same)

	changed, err := tt.PlanUpdate("store_bucket",
		map[string]any{"name": "logs", "versioned": false},
		map[string]any{"name": "logs", "versioned": true})
	require.NoError(t, err)
	AssertHasChanges(t, changed)
	AssertChangesAttribute(t, changed, "versioned")
	AssertDoesNotChangeAttribute(t, changed, "name")
}

func TestLifecycle(t *testing.T) {
	p := newBucketProvider()
	tt := New(p)
	require.NoError(t, tt.Configure(map[string]any{"region": "eu-west-1"}))

	final, err := tt.Lifecycle("store_bucket",
		map[string]any{"name": "logs"},
		map[string]any{"name": "logs", "versioned": true})
	require.NoError(t, err)

	assert.Equal(t, true, final.(map[string]any)["versioned"])
	assert.Empty(t, p.buckets)
}

func TestCreateRejectsInvalidConfig(t *testing.T) {
	tt := New(newBucketProvider())
	_, err := tt.Create("store_bucket", map[string]any{"versioned": true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing required attribute 'name'")
}

func TestCreateSurfacesProviderError(t *testing.T) {
	tt := New(newBucketProvider())
	_, err := tt.Create("store_bucket", map[string]any{"name": "logs"})
	require.NoError(t, err)

	_, err = tt.Create("store_bucket", map[string]any{"name": "logs"})
	require.Error(t, err)
	assert.Equal(t, sdk.ErrAlreadyExists, sdk.KindOf(err))
}

func TestWarningsDoNotFailSteps(t *testing.T) {
	diags := schema.Diagnostics{schema.WarningDiag("attribute is deprecated")}
	AssertNoErrors(t, diags)
	require.NoError(t, diagnosticsError(diags))
}
