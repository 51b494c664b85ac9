package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/conductor/pkg/config"
)

type noopAgent struct {
	BaseAgent
}

func (noopAgent) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	return map[string]any{}, nil
}

func newTestRegistry(t *testing.T, types ...string) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, typ := range types {
		require.NoError(t, r.Register(Descriptor{
			Type:    typ,
			Factory: func() Agent { return noopAgent{} },
		}))
	}
	return r
}

func stepDef(name string, steps ...config.WorkflowStep) *config.WorkflowDefinition {
	def := &config.WorkflowDefinition{Name: name, Steps: steps}
	def.SetDefaults()
	return def
}

func TestBuildExecutionOrder(t *testing.T) {
	r := newTestRegistry(t, "noop")

	def := stepDef("diamond",
		config.WorkflowStep{ID: "fetch", Agent: "noop"},
		config.WorkflowStep{ID: "plan", Agent: "noop", DependsOn: []string{"fetch"}},
		config.WorkflowStep{ID: "render", Agent: "noop", DependsOn: []string{"fetch"}},
		config.WorkflowStep{ID: "publish", Agent: "noop", DependsOn: []string{"plan", "render"}},
	)

	plan, err := r.BuildExecutionOrder(def)
	require.NoError(t, err)

	assert.Equal(t, []string{"fetch", "plan", "render", "publish"}, plan.Order)
	assert.Equal(t, PlanStats{Steps: 4, DependencyEdges: 4}, plan.Stats())
	assert.Equal(t, "noop", plan.Descriptor("plan").Type)
}

func TestBuildExecutionOrderStability(t *testing.T) {
	r := newTestRegistry(t, "noop")

	// Independent steps keep their declaration order regardless of id.
	def := stepDef("independent",
		config.WorkflowStep{ID: "zeta", Agent: "noop"},
		config.WorkflowStep{ID: "alpha", Agent: "noop"},
		config.WorkflowStep{ID: "mid", Agent: "noop", DependsOn: []string{"zeta"}},
	)

	for i := 0; i < 10; i++ {
		plan, err := r.BuildExecutionOrder(def)
		require.NoError(t, err)
		assert.Equal(t, []string{"zeta", "alpha", "mid"}, plan.Order)
	}
}

func TestBuildExecutionOrderCycle(t *testing.T) {
	r := newTestRegistry(t, "noop")

	def := stepDef("cyclic",
		config.WorkflowStep{ID: "a", Agent: "noop", DependsOn: []string{"b"}},
		config.WorkflowStep{ID: "b", Agent: "noop", DependsOn: []string{"a"}},
	)

	_, err := r.BuildExecutionOrder(def)
	require.Error(t, err)

	var cycleErr *CircularDependencyError
	require.True(t, errors.As(err, &cycleErr))
	assert.Equal(t, []string{"a", "b", "a"}, cycleErr.Cycle)
	assert.Contains(t, err.Error(), "a -> b -> a")
	assert.Equal(t, KindCircularDependency, Classify(err))
}

func TestBuildExecutionOrderUnknownAgent(t *testing.T) {
	r := newTestRegistry(t, "noop")

	def := stepDef("bad-ref",
		config.WorkflowStep{ID: "a", Agent: "noop"},
		config.WorkflowStep{ID: "b", Agent: "missing", DependsOn: []string{"a"}},
	)

	_, err := r.BuildExecutionOrder(def)
	require.Error(t, err)

	var unknownErr *UnknownAgentError
	require.True(t, errors.As(err, &unknownErr))
	assert.Equal(t, "missing", unknownErr.Type)
}

func TestBuildExecutionOrderInvalidDefinition(t *testing.T) {
	r := newTestRegistry(t, "noop")

	def := stepDef("dup-ids",
		config.WorkflowStep{ID: "a", Agent: "noop"},
		config.WorkflowStep{ID: "a", Agent: "noop"},
	)

	_, err := r.BuildExecutionOrder(def)
	assert.Error(t, err)
}

func TestGraphReachable(t *testing.T) {
	r := newTestRegistry(t, "noop")

	def := stepDef("chain",
		config.WorkflowStep{ID: "a", Agent: "noop"},
		config.WorkflowStep{ID: "b", Agent: "noop", DependsOn: []string{"a"}},
		config.WorkflowStep{ID: "c", Agent: "noop", DependsOn: []string{"b"}},
		config.WorkflowStep{ID: "d", Agent: "noop"},
	)

	plan, err := r.BuildExecutionOrder(def)
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "c"}, plan.Graph.Reachable("a"))
	assert.Empty(t, plan.Graph.Reachable("d"))
	assert.Equal(t, []string{"b"}, plan.Graph.Dependents("a"))
	assert.Equal(t, []string{"b"}, plan.Graph.Dependencies("c"))
}
