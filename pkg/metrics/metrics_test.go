package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnlockAttemptsIncrementsByOutcome(t *testing.T) {
	UnlockAttempts.WithLabelValues("success").Inc()
	count := testutilGather(t, "rite_bridge_vault_unlock_attempts_total")
	assert.GreaterOrEqual(t, count, 1.0)
}

func TestHandlerServesExpositionFormat(t *testing.T) {
	HostKeyEvents.WithLabelValues("added").Inc()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "rite_bridge_hostkeys_events_total")
}

func testutilGather(t *testing.T, name string) float64 {
	t.Helper()
	families, err := Registry.Gather()
	require.NoError(t, err)
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}
