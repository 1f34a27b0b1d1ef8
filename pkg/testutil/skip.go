// Package testutil holds helpers shared by package tests.
package testutil

import (
	"os"
	"testing"
)

// IntegrationEnv enables integration tests in CI when set to any value.
const IntegrationEnv = "INTEGRATION_TESTS"

// RequireIntegration skips tests that need external services such as Docker.
// They run locally unless -short is set, and in CI only when IntegrationEnv is set.
func RequireIntegration(t testing.TB) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv(IntegrationEnv) == "" && os.Getenv("CI") != "" {
		t.Skipf("skipping integration test (set %s=1 to run)", IntegrationEnv)
	}
}
