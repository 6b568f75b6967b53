// Package providertest is a harness for exercising a provider implementation
// directly, without a server. It drives validate/configure/plan/CRUD flows
// and offers assertion helpers for plan results and diagnostics.
package providertest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/hemmer-sh/provider-sdk/plan"
	"github.com/hemmer-sh/provider-sdk/provider"
	"github.com/hemmer-sh/provider-sdk/schema"
	"github.com/hemmer-sh/provider-sdk/validation"
)

// Tester drives a provider through realistic call sequences. Validation and
// configure steps fail only on error-severity diagnostics; warnings pass.
type Tester struct {
	Provider provider.Provider
}

// New returns a tester for p.
func New(p provider.Provider) *Tester {
	return &Tester{Provider: p}
}

// Configure validates the provider configuration and configures the
// provider. Warning diagnostics do not fail the step.
func (tt *Tester) Configure(config any) error {
	diags := append(
		validation.Validate(tt.Provider.Schema().Provider, config),
		tt.Provider.ValidateProviderConfig(config)...,
	)
	if err := diagnosticsError(diags); err != nil {
		return err
	}
	return tt.Provider.Configure(context.Background(), config)
}

// ValidateResource runs schema validation plus the provider's own checks.
func (tt *Tester) ValidateResource(typeName string, config any) schema.Diagnostics {
	rs, ok := tt.Provider.Schema().Resources[typeName]
	if !ok {
		return schema.Diagnostics{schema.ErrorDiag(fmt.Sprintf("unknown resource type: %s", typeName))}
	}
	return append(
		validation.Validate(rs, config),
		tt.Provider.ValidateResourceConfig(typeName, config)...,
	)
}

// ValidateDataSource runs schema validation plus the provider's own checks.
func (tt *Tester) ValidateDataSource(typeName string, config any) schema.Diagnostics {
	ds, ok := tt.Provider.Schema().DataSources[typeName]
	if !ok {
		return schema.Diagnostics{schema.ErrorDiag(fmt.Sprintf("unknown data source: %s", typeName))}
	}
	return append(
		validation.Validate(ds, config),
		tt.Provider.ValidateDataSourceConfig(typeName, config)...,
	)
}

// PlanCreate plans the creation of a resource.
func (tt *Tester) PlanCreate(typeName string, proposed any) (plan.Result, error) {
	return tt.Provider.Plan(context.Background(), typeName, nil, proposed, proposed)
}

// PlanUpdate plans a change to an existing resource.
func (tt *Tester) PlanUpdate(typeName string, prior, proposed any) (plan.Result, error) {
	return tt.Provider.Plan(context.Background(), typeName, prior, proposed, proposed)
}

// PlanDelete plans the removal of a resource by proposing an empty state.
func (tt *Tester) PlanDelete(typeName string, prior any) (plan.Result, error) {
	return tt.Provider.Plan(context.Background(), typeName, prior, map[string]any{}, nil)
}

// Create validates the configuration, plans the creation, and applies it,
// returning the new state.
func (tt *Tester) Create(typeName string, config any) (any, error) {
	if err := diagnosticsError(tt.ValidateResource(typeName, config)); err != nil {
		return nil, err
	}
	result, err := tt.PlanCreate(typeName, config)
	if err != nil {
		return nil, err
	}
	return tt.Provider.Create(context.Background(), typeName, result.PlannedState)
}

// Update validates the new configuration, plans the change, and applies it.
func (tt *Tester) Update(typeName string, prior, config any) (any, error) {
	if err := diagnosticsError(tt.ValidateResource(typeName, config)); err != nil {
		return nil, err
	}
	result, err := tt.PlanUpdate(typeName, prior, config)
	if err != nil {
		return nil, err
	}
	return tt.Provider.Update(context.Background(), typeName, prior, result.PlannedState)
}

// Delete destroys a resource.
func (tt *Tester) Delete(typeName string, prior any) error {
	return tt.Provider.Delete(context.Background(), typeName, prior)
}

// Read refreshes a resource's state.
func (tt *Tester) Read(typeName string, current any) (any, error) {
	return tt.Provider.Read(context.Background(), typeName, current)
}

// Lifecycle runs a full create/read/update/delete cycle and returns the
// state after the update step.
func (tt *Tester) Lifecycle(typeName string, createConfig, updateConfig any) (any, error) {
	created, err := tt.Create(typeName, createConfig)
	if err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	read, err := tt.Read(typeName, created)
	if err != nil {
		return nil, fmt.Errorf("read after create: %w", err)
	}
	updated, err := tt.Update(typeName, read, updateConfig)
	if err != nil {
		return nil, fmt.Errorf("update: %w", err)
	}
	if err := tt.Delete(typeName, updated); err != nil {
		return nil, fmt.Errorf("delete: %w", err)
	}
	return updated, nil
}

// diagnosticsError converts error-severity diagnostics into an error.
// Warnings never fail a step.
func diagnosticsError(diags schema.Diagnostics) error {
	errs := diags.Errors()
	if len(errs) == 0 {
		return nil
	}
	summaries := make([]string, 0, len(errs))
	for _, d := range errs {
		summaries = append(summaries, d.Summary)
	}
	return fmt.Errorf("%d validation error(s): %s", len(errs), strings.Join(summaries, "; "))
}

// AssertPlanCreates fails unless every change in the plan is an addition and
// at least one change exists.
func AssertPlanCreates(t testing.TB, result plan.Result) {
	t.Helper()
	if len(result.Changes) == 0 {
		t.Fatal("expected creation changes, plan is empty")
	}
	for _, c := range result.Changes {
		if c.Action != plan.ActionAdded {
			t.Fatalf("expected only additions, found %s at %s", c.Action, c.Path)
		}
	}
}

// AssertNoChanges fails if the plan contains any change.
func AssertNoChanges(t testing.TB, result plan.Result) {
	t.Helper()
	if result.HasChanges() {
		t.Fatalf("expected no changes, got %v", result.ChangedPaths())
	}
}

// AssertHasChanges fails if the plan is empty.
func AssertHasChanges(t testing.TB, result plan.Result) {
	t.Helper()
	if !result.HasChanges() {
		t.Fatal("expected changes, plan is empty")
	}
}

// AssertReplaces fails unless the plan requires replacement.
func AssertReplaces(t testing.TB, result plan.Result) {
	t.Helper()
	if !result.RequiresReplace {
		t.Fatal("expected plan to require replacement")
	}
}

// AssertUpdatesInPlace fails if the plan requires replacement.
func AssertUpdatesInPlace(t testing.TB, result plan.Result) {
	t.Helper()
	if result.RequiresReplace {
		t.Fatal("expected in-place update, plan requires replacement")
	}
}

// AssertChangesAttribute fails unless the plan touches path.
func AssertChangesAttribute(t testing.TB, result plan.Result, path string) {
	t.Helper()
	for _, c := range result.Changes {
		if c.Path == path {
			return
		}
	}
	t.Fatalf("expected a change at %q, got %v", path, result.ChangedPaths())
}

// AssertDoesNotChangeAttribute fails if the plan touches path.
func AssertDoesNotChangeAttribute(t testing.TB, result plan.Result, path string) {
	t.Helper()
	for _, c := range result.Changes {
		if c.Path == path {
			t.Fatalf("expected no change at %q, found %s", path, c.Action)
		}
	}
}

// AssertNoErrors fails if the diagnostics contain any error. Warnings are
// allowed.
func AssertNoErrors(t testing.TB, diags schema.Diagnostics) {
	t.Helper()
	if errs := diags.Errors(); len(errs) > 0 {
		t.Fatalf("expected no error diagnostics, got %d: %s", len(errs), errs[0].Summary)
	}
}

// AssertHasErrors fails unless the diagnostics contain at least one error.
func AssertHasErrors(t testing.TB, diags schema.Diagnostics) {
	t.Helper()
	if !diags.HasErrors() {
		t.Fatal("expected error diagnostics, got none")
	}
}

// AssertErrorContains fails unless some error diagnostic's summary or detail
// contains substr.
func AssertErrorContains(t testing.TB, diags schema.Diagnostics, substr string) {
	t.Helper()
	for _, d := range diags.Errors() {
		if strings.Contains(d.Summary, substr) || strings.Contains(d.Detail, substr) {
			return
		}
	}
	t.Fatalf("no error diagnostic mentions %q", substr)
}
