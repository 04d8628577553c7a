package dsl_test

import (
	"context"
	"testing"

	"github.com/aretw0/foundry/internal/compiler"
	"github.com/aretw0/foundry/internal/runtime"
	"github.com/aretw0/foundry/pkg/domain"
	"github.com/aretw0/foundry/pkg/dsl"
	"github.com/aretw0/foundry/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func haiku() *dsl.Builder {
	b := dsl.New("haiku").Instruction("write a haiku")

	b.Ingress("prompt").Go("gen")
	b.Process("gen").Load("prompt").Save("draft").Go("review")
	b.Switch("review").LoadAs("draft", "string").
		WhenTrue("publish", "approved").
		WhenFalse("gen", "prompt")
	b.Process("publish").Load("approved").Save("final").Exit()
	b.Egress().Bind("poem", "final")
	return b
}

func TestBuilder_Build(t *testing.T) {
	a, err := haiku().Build()
	require.NoError(t, err)

	assert.Equal(t, "haiku", a.Name)
	assert.Equal(t, "write a haiku", a.Instruction)
	require.Len(t, a.Operations, 5)
	assert.Equal(t, &domain.Ingress{Next: "gen", Prompt: "prompt"}, a.Operations[0])
	assert.Equal(t, &domain.Switch{
		Opcode:        "review",
		Load:          "draft",
		LoadType:      "string",
		NextWhenTrue:  "publish",
		NextWhenFalse: "gen",
		SaveTrue:      "approved",
		SaveFalse:     "prompt",
	}, a.Operations[2])
	assert.Equal(t, &domain.Egress{Result: map[string]domain.Address{"poem": "final"}}, a.Operations[4])
}

func TestBuilder_Runs(t *testing.T) {
	a, err := haiku().Build()
	require.NoError(t, err)

	f, err := registry.New(
		registry.WithProcessor("gen", func(ctx context.Context, m domain.Medium) (any, error) {
			return "rain on the roof", nil
		}),
		registry.WithSwitcher("review", func(ctx context.Context, m domain.Medium) (bool, any, error) {
			return true, m.Value, nil
		}),
		registry.WithProcessor("publish", func(ctx context.Context, m domain.Medium) (any, error) {
			return m.Value, nil
		}),
	)
	require.NoError(t, err)

	res, err := runtime.NewEngine().Execute(context.Background(), f, a)
	require.NoError(t, err)
	assert.Equal(t, "rain on the roof", res.Output()["poem"])
}

func TestBuilder_RejectsInvalid(t *testing.T) {
	b := dsl.New("broken")
	b.Ingress("r0").Go("missing")
	b.Egress()

	_, err := b.Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStructural)
	assert.Contains(t, err.Error(), "missing")

	_, err = b.Loader()
	assert.Error(t, err)
}

func TestBuilder_OpcodeReusedAcrossKinds(t *testing.T) {
	b := haiku()
	b.Switch("gen").Load("prompt").WhenTrue("publish", "x").WhenFalse("gen", "y")

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opcode 'gen' is defined more than once")
}

func TestBuilder_Loader(t *testing.T) {
	loader, err := haiku().Loader()
	require.NoError(t, err)

	ids, err := loader.ListAlignments()
	require.NoError(t, err)
	assert.Equal(t, []string{"haiku"}, ids)

	raw, err := loader.GetAlignment("haiku")
	require.NoError(t, err)
	parsed, err := compiler.NewParser().Parse(raw)
	require.NoError(t, err)

	built, err := haiku().Build()
	require.NoError(t, err)
	assert.Equal(t, built, parsed)
}
