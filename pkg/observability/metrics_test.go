package observability_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/foundry/internal/runtime"
	"github.com/aretw0/foundry/pkg/domain"
	"github.com/aretw0/foundry/pkg/observability"
	"github.com/aretw0/foundry/pkg/registry"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *observability.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMetrics_RecordsRunStatus(t *testing.T) {
	m := observability.NewMetrics()
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnRunFinish(ctx, &domain.RunEvent{Steps: 3})
	hooks.OnRunFinish(ctx, &domain.RunEvent{Err: errors.New("boom")})
	hooks.OnRunFinish(ctx, &domain.RunEvent{})

	assert.Equal(t, 2, testutil.CollectAndCount(m.Registry(), "foundry_runs_total"))
	body := scrape(t, m)
	assert.Contains(t, body, `foundry_runs_total{status="succeeded"} 2`)
	assert.Contains(t, body, `foundry_runs_total{status="failed"} 1`)
}

func TestMetrics_FedByEngine(t *testing.T) {
	m := observability.NewMetrics()

	f, err := registry.New(
		registry.WithProcessor("plan", func(ctx context.Context, md domain.Medium) (any, error) { return "sketch", nil }),
		registry.WithProcessor("gen", func(ctx context.Context, md domain.Medium) (any, error) { return []int{1, 2, 3}, nil }),
	)
	require.NoError(t, err)

	a := &domain.Alignment{
		Instruction: "draw a cat",
		Operations: []domain.Operation{
			&domain.Ingress{Next: "plan", Prompt: "r0"},
			&domain.Process{Opcode: "plan", Load: "r0", Save: "r1", Next: "gen"},
			&domain.Process{Opcode: "gen", Load: "r1", Save: "r2", Exit: true},
			&domain.Egress{Result: map[string]domain.Address{"image": "r2"}},
		},
	}

	engine := runtime.NewEngine(runtime.WithLifecycleHooks(m.Hooks()))
	_, err = engine.Execute(context.Background(), f, a)
	require.NoError(t, err)

	body := scrape(t, m)
	assert.Contains(t, body, `foundry_runs_total{status="succeeded"} 1`)
	assert.Contains(t, body, `foundry_operation_steps_total{kind="ingress"} 1`)
	assert.Contains(t, body, `foundry_operation_steps_total{kind="process"} 2`)
	assert.Contains(t, body, `foundry_apparatus_duration_seconds_count{opcode="gen"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
