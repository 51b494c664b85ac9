package workflow

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/kadirpekel/conductor/pkg/config"
)

// evaluateCondition decides whether a gated step runs, given the outputs
// of its finished dependencies. All declared clauses must hold. A missing
// path or a dependency without output evaluates to false; condition
// evaluation never fails a step.
func evaluateCondition(cond *config.Condition, outputs map[string]map[string]any) bool {
	if cond == nil {
		return true
	}

	source, ok := outputs[cond.Step]
	if !ok {
		return cond.Exists != nil && !*cond.Exists && cond.Equals == nil && cond.NotEquals == nil
	}

	value, found := lookupPath(source, cond.Path)

	if cond.Exists != nil && *cond.Exists != found {
		return false
	}
	if cond.Equals != nil {
		if !found || !looselyEqual(value, cond.Equals) {
			return false
		}
	}
	if cond.NotEquals != nil {
		if found && looselyEqual(value, cond.NotEquals) {
			return false
		}
	}
	return true
}

// lookupPath traverses a dotted path through nested string-keyed maps.
// An empty path addresses the whole value.
func lookupPath(value map[string]any, path string) (any, bool) {
	if path == "" {
		return value, true
	}

	var current any = value
	for _, key := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// looselyEqual compares two values the way YAML authors expect: numeric
// values compare by magnitude regardless of concrete type, everything
// else by string rendering.
func looselyEqual(a, b any) bool {
	af, aerr := cast.ToFloat64E(a)
	bf, berr := cast.ToFloat64E(b)
	if aerr == nil && berr == nil {
		return af == bf
	}
	if (aerr == nil) != (berr == nil) {
		return false
	}
	return cast.ToString(a) == cast.ToString(b)
}
