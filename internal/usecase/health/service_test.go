package health

import (
	"context"
	"errors"
	"testing"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockAPIChecker struct {
	err error
}

func (m *mockAPIChecker) HealthCheck(_ context.Context) error { return m.err }

func TestCheck(t *testing.T) {
	down := errors.New("down")

	tests := []struct {
		name       string
		collection CollectionPinger
		api        APIChecker
		wantStatus Status
		wantChecks map[string]CheckResult
	}{
		{
			name:       "all healthy",
			collection: &mockPinger{},
			api:        &mockAPIChecker{},
			wantStatus: Healthy,
			wantChecks: map[string]CheckResult{"collection": CheckOK, "openai": CheckOK},
		},
		{
			name:       "collection down",
			collection: &mockPinger{err: down},
			api:        &mockAPIChecker{},
			wantStatus: Degraded,
			wantChecks: map[string]CheckResult{"collection": CheckError, "openai": CheckOK},
		},
		{
			name:       "api down",
			collection: &mockPinger{},
			api:        &mockAPIChecker{err: down},
			wantStatus: Degraded,
			wantChecks: map[string]CheckResult{"collection": CheckOK, "openai": CheckError},
		},
		{
			name:       "in-memory collection",
			api:        &mockAPIChecker{},
			wantStatus: Healthy,
			wantChecks: map[string]CheckResult{"openai": CheckOK},
		},
		{
			name:       "nothing configured",
			wantStatus: Healthy,
			wantChecks: map[string]CheckResult{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.collection, tt.api).Check(context.Background())

			if r.Status != tt.wantStatus {
				t.Errorf("expected %q, got %q", tt.wantStatus, r.Status)
			}
			if len(r.Checks) != len(tt.wantChecks) {
				t.Fatalf("expected checks %v, got %v", tt.wantChecks, r.Checks)
			}
			for k, v := range tt.wantChecks {
				if r.Checks[k] != v {
					t.Errorf("check %q: expected %q, got %q", k, v, r.Checks[k])
				}
			}
		})
	}
}
