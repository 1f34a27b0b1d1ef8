package health

import (
	"context"
	"testing"
	"time"
)

type stubChecker struct {
	name   string
	status Status
	delay  time.Duration
}

func (s *stubChecker) Check(ctx context.Context) CheckResult {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return CheckResult{Name: s.name, Status: s.status}
}

func (s *stubChecker) Name() string {
	return s.name
}

func TestRegistry_CheckAggregatesStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{name: "empty registry", want: StatusHealthy},
		{name: "all healthy", statuses: []Status{StatusHealthy, StatusHealthy}, want: StatusHealthy},
		{name: "one degraded", statuses: []Status{StatusHealthy, StatusDegraded}, want: StatusDegraded},
		{name: "unhealthy wins", statuses: []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, want: StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewRegistry()
			for i, s := range tt.statuses {
				registry.Register(&stubChecker{name: string(rune('a' + i)), status: s})
			}

			result := registry.Check(context.Background())
			if result.Status != tt.want {
				t.Errorf("Status = %s, want %s", result.Status, tt.want)
			}
			if len(result.Checks) != len(tt.statuses) {
				t.Errorf("len(Checks) = %d, want %d", len(result.Checks), len(tt.statuses))
			}
			if result.IsHealthy() != (tt.want == StatusHealthy) {
				t.Errorf("IsHealthy() = %v", result.IsHealthy())
			}
		})
	}
}

func TestRegistry_CheckOrdersByName(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubChecker{name: "replica", status: StatusHealthy, delay: 20 * time.Millisecond})
	registry.Register(&stubChecker{name: "primary", status: StatusHealthy})

	result := registry.Check(context.Background())
	if len(result.Checks) != 2 || result.Checks[0].Name != "primary" || result.Checks[1].Name != "replica" {
		t.Fatalf("Checks = %+v, want primary then replica", result.Checks)
	}
}

func TestRegistry_RegisterReplacesSameName(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubChecker{name: "db", status: StatusUnhealthy})
	registry.Register(&stubChecker{name: "db", status: StatusHealthy})

	result := registry.Check(context.Background())
	if len(result.Checks) != 1 || !result.IsHealthy() {
		t.Fatalf("result = %+v, want one healthy check", result)
	}
}
