package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// TestInitSucceeds verifies that Init() registers metrics without error
func TestInitSucceeds(t *testing.T) {
	// Don't run in parallel since we're testing global state
	reg := prometheus.NewRegistry()

	err := Init(reg)
	if err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	// Record some data to make metrics appear in Gather output
	RecordRequest("POST", "/admin/login", "OK")
	RecordRequestDuration("POST", "/admin/login", "OK", 0.05)
	RecordAuthFailure("invalid_session")

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	if len(metrics) == 0 {
		t.Fatal("Expected metrics to be registered, but got none")
	}

	metricNames := make(map[string]bool)
	for _, mf := range metrics {
		metricNames[mf.GetName()] = true
	}

	expectedMetrics := []string{
		"opsgate_api_requests_total",
		"opsgate_api_request_duration_seconds",
		"opsgate_api_auth_failures_total",
		"opsgate_api_info",
	}

	foundCount := 0
	for _, expectedMetric := range expectedMetrics {
		if metricNames[expectedMetric] {
			foundCount++
		}
	}

	if foundCount == 0 {
		t.Errorf("Expected metrics not found in registry. Found: %v", metricNames)
	}
}

// TestRecordFunctionsDoNotPanic verifies that record functions handle nil metrics gracefully
func TestRecordFunctionsDoNotPanic(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Record function panicked: %v", r)
		}
	}()

	RecordRequest("GET", "/test", "OK")
	RecordRequestDuration("GET", "/test", "OK", 0.1)
	RecordAuthFailure("test_reason")
}

// TestGetMetricsTextWithInitializedRegistry checks GetMetricsText output format
func TestGetMetricsTextWithInitializedRegistry(t *testing.T) {
	// Don't run in parallel - calls Init() which modifies global state
	reg := prometheus.NewRegistry()
	if err := Init(reg); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	RecordRequest("POST", "/service", "OK")
	RecordRequestDuration("POST", "/service", "OK", 0.05)
	RecordAuthFailure("permission_denied")

	output, err := GetMetricsText(reg)
	if err != nil {
		t.Errorf("GetMetricsText() unexpected error: %v", err)
	}

	if !strings.Contains(output, "# TYPE") {
		t.Error("Expected Prometheus format in output")
	}

	expectedStrings := []string{
		"opsgate_api_requests_total",
		"opsgate_api_request_duration_seconds",
		"opsgate_api_auth_failures_total",
		"opsgate_api_info",
	}

	foundCount := 0
	for _, expectedStr := range expectedStrings {
		if strings.Contains(output, expectedStr) {
			foundCount++
		}
	}

	if foundCount == 0 {
		t.Errorf("No expected metrics found in Prometheus output. Output:\n%s", output)
	}
}

// TestInitRegistrationErrors tests that Init returns errors when metrics are already registered
func TestInitRegistrationErrors(t *testing.T) {
	reg := prometheus.NewRegistry()

	err := Init(reg)
	if err != nil {
		t.Fatalf("first Init failed: %v", err)
	}

	// Second Init with same registry should fail (duplicate registration)
	err = Init(reg)
	if err == nil {
		t.Fatal("expected error on duplicate registration, got nil")
	}
}
