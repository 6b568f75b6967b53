// Package plan computes the structural difference between a resource's prior
// state and its proposed configuration. The result is the planned state plus
// a flat list of attribute-level changes.
package plan

import (
	"fmt"
	"sort"
)

// Action classifies a single attribute change.
type Action string

const (
	ActionAdded    Action = "added"
	ActionRemoved  Action = "removed"
	ActionModified Action = "modified"
)

// rootPath labels a change to a scalar value at the top of the state.
const rootPath = "(root)"

// Change records one attribute-level difference. Path uses dot notation for
// object fields and bracket notation for array elements, for example
// "network.subnets[0]".
type Change struct {
	Path   string `json:"path"`
	Action Action `json:"action"`
	Before any    `json:"before,omitempty"`
	After  any    `json:"after,omitempty"`
}

// Added returns a change for a newly introduced value.
func Added(path string, after any) Change {
	return Change{Path: path, Action: ActionAdded, After: after}
}

// Removed returns a change for a value no longer present.
func Removed(path string, before any) Change {
	return Change{Path: path, Action: ActionRemoved, Before: before}
}

// Modified returns a change for a value whose content differs.
func Modified(path string, before, after any) Change {
	return Change{Path: path, Action: ActionModified, Before: before, After: after}
}

// Result is the outcome of a plan. PlannedState carries the proposed
// configuration unchanged; providers that compute attribute values during
// apply adjust it in their Plan implementation.
type Result struct {
	PlannedState    any      `json:"planned_state"`
	Changes         []Change `json:"changes,omitempty"`
	RequiresReplace bool     `json:"requires_replace"`
}

// HasChanges reports whether the plan contains any change.
func (r Result) HasChanges() bool { return len(r.Changes) > 0 }

// ChangedPaths returns the paths touched by the plan, in plan order.
func (r Result) ChangedPaths() []string {
	paths := make([]string, 0, len(r.Changes))
	for _, c := range r.Changes {
		paths = append(paths, c.Path)
	}
	return paths
}

// Diff plans the transition from prior to proposed. A nil prior means the
// resource does not exist yet and every leaf of proposed becomes an added
// change. Diff never sets RequiresReplace; providers decide replacement
// themselves based on their schema.
func Diff(prior, proposed any) Result {
	var changes []Change
	if prior == nil {
		collectLeaves(proposed, "", ActionAdded, &changes)
	} else {
		compare(prior, proposed, "", &changes)
	}
	return Result{PlannedState: proposed, Changes: changes}
}

// collectLeaves walks value and emits one change per leaf. A scalar at the
// root has no addressable path and emits nothing.
func collectLeaves(value any, prefix string, action Action, changes *[]Change) {
	switch v := value.(type) {
	case map[string]any:
		for _, key := range sortedKeys(v) {
			collectLeaves(v[key], joinPath(prefix, key), action, changes)
		}
	case []any:
		for i, item := range v {
			collectLeaves(item, fmt.Sprintf("%s[%d]", prefix, i), action, changes)
		}
	default:
		if prefix == "" {
			return
		}
		*changes = append(*changes, leafChange(prefix, action, value))
	}
}

func leafChange(path string, action Action, value any) Change {
	if action == ActionRemoved {
		return Removed(path, value)
	}
	return Added(path, value)
}

func compare(before, after any, path string, changes *[]Change) {
	beforeObj, beforeIsObj := before.(map[string]any)
	afterObj, afterIsObj := after.(map[string]any)
	if beforeIsObj && afterIsObj {
		compareObjects(beforeObj, afterObj, path, changes)
		return
	}

	beforeArr, beforeIsArr := before.([]any)
	afterArr, afterIsArr := after.([]any)
	if beforeIsArr && afterIsArr {
		compareArrays(beforeArr, afterArr, path, changes)
		return
	}

	if !equalValues(before, after) {
		if path == "" {
			path = rootPath
		}
		*changes = append(*changes, Modified(path, before, after))
	}
}

func compareObjects(before, after map[string]any, path string, changes *[]Change) {
	keys := map[string]struct{}{}
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}

	for _, key := range sortedKeySet(keys) {
		keyPath := joinPath(path, key)
		beforeVal, inBefore := before[key]
		afterVal, inAfter := after[key]
		switch {
		case inBefore && inAfter:
			compare(beforeVal, afterVal, keyPath, changes)
		case inBefore:
			collectLeaves(beforeVal, keyPath, ActionRemoved, changes)
		default:
			collectLeaves(afterVal, keyPath, ActionAdded, changes)
		}
	}
}

func compareArrays(before, after []any, path string, changes *[]Change) {
	shared := len(before)
	if len(after) < shared {
		shared = len(after)
	}
	for i := 0; i < shared; i++ {
		compare(before[i], after[i], fmt.Sprintf("%s[%d]", path, i), changes)
	}
	for i := shared; i < len(after); i++ {
		collectLeaves(after[i], fmt.Sprintf("%s[%d]", path, i), ActionAdded, changes)
	}
	for i := shared; i < len(before); i++ {
		collectLeaves(before[i], fmt.Sprintf("%s[%d]", path, i), ActionRemoved, changes)
	}
}

func equalValues(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, present := bv[k]
			if !present || !equalValues(v, other) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !equalValues(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeySet(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
