package sharedlog

import (
	"testing"
	"time"
)

func TestDatabaseFields(t *testing.T) {
	fields := DatabaseFields("insert", "research_properties")
	expected := map[string]interface{}{
		"component":     "database",
		"operation":     "insert",
		"resource_type": "table",
		"resource_name": "research_properties",
	}
	for key, expectedValue := range expected {
		if fields[key] != expectedValue {
			t.Errorf("DatabaseFields() %s = %v, want %v", key, fields[key], expectedValue)
		}
	}
}

func TestHTTPFields(t *testing.T) {
	fields := HTTPFields("POST", "/jobs", 201)
	expected := map[string]interface{}{
		"component":   "http",
		"method":      "POST",
		"url":         "/jobs",
		"status_code": 201,
	}
	for key, expectedValue := range expected {
		if fields[key] != expectedValue {
			t.Errorf("HTTPFields() %s = %v, want %v", key, fields[key], expectedValue)
		}
	}
}

func TestJobFields(t *testing.T) {
	fields := JobFields("create", "job-123")
	expected := map[string]interface{}{
		"component":     "job",
		"operation":     "create",
		"resource_type": "job",
		"resource_name": "job-123",
	}
	for key, expectedValue := range expected {
		if fields[key] != expectedValue {
			t.Errorf("JobFields() %s = %v, want %v", key, fields[key], expectedValue)
		}
	}
}

func TestWorkerFields(t *testing.T) {
	fields := WorkerFields("comps_sales", "job-123")
	expected := map[string]interface{}{
		"component":     "worker",
		"operation":     "comps_sales",
		"resource_type": "job",
		"resource_name": "job-123",
	}
	for key, expectedValue := range expected {
		if fields[key] != expectedValue {
			t.Errorf("WorkerFields() %s = %v, want %v", key, fields[key], expectedValue)
		}
	}
}

func TestEvidenceFields(t *testing.T) {
	fields := EvidenceFields("upsert_draft", "abc123")
	expected := map[string]interface{}{
		"component":     "evidence",
		"operation":     "upsert_draft",
		"resource_type": "evidence_item",
		"resource_name": "abc123",
	}
	for key, expectedValue := range expected {
		if fields[key] != expectedValue {
			t.Errorf("EvidenceFields() %s = %v, want %v", key, fields[key], expectedValue)
		}
	}
}

func TestSchedulerFields(t *testing.T) {
	fields := SchedulerFields(2, 3)
	expected := map[string]interface{}{
		"component": "scheduler",
		"step":      2,
		"count":     3,
	}
	for key, expectedValue := range expected {
		if fields[key] != expectedValue {
			t.Errorf("SchedulerFields() %s = %v, want %v", key, fields[key], expectedValue)
		}
	}
}

func TestAdapterFields(t *testing.T) {
	fields := AdapterFields("geocoder", "lookup")
	expected := map[string]interface{}{
		"component":    "adapter",
		"adapter_name": "geocoder",
		"operation":    "lookup",
	}
	for key, expectedValue := range expected {
		if fields[key] != expectedValue {
			t.Errorf("AdapterFields() %s = %v, want %v", key, fields[key], expectedValue)
		}
	}
}

func TestAIFields(t *testing.T) {
	fields := AIFields("generate_narrative", "claude-3-5-sonnet")
	expected := map[string]interface{}{
		"component": "ai",
		"operation": "generate_narrative",
		"model":     "claude-3-5-sonnet",
	}
	for key, expectedValue := range expected {
		if fields[key] != expectedValue {
			t.Errorf("AIFields() %s = %v, want %v", key, fields[key], expectedValue)
		}
	}
}

func TestMetricsFields(t *testing.T) {
	fields := MetricsFields("record", "web_calls_total", 3.0)
	expected := map[string]interface{}{
		"component":   "metrics",
		"operation":   "record",
		"metric_name": "web_calls_total",
		"value":       3.0,
	}
	for key, expectedValue := range expected {
		if fields[key] != expectedValue {
			t.Errorf("MetricsFields() %s = %v, want %v", key, fields[key], expectedValue)
		}
	}
}

func TestSecurityFields(t *testing.T) {
	fields := SecurityFields("authenticate", "api-key-123")
	expected := map[string]interface{}{
		"component": "security",
		"operation": "authenticate",
		"subject":   "api-key-123",
	}
	for key, expectedValue := range expected {
		if fields[key] != expectedValue {
			t.Errorf("SecurityFields() %s = %v, want %v", key, fields[key], expectedValue)
		}
	}
}

func TestPerformanceFields(t *testing.T) {
	fields := PerformanceFields("query_comps", 250*time.Millisecond, true)
	expected := map[string]interface{}{
		"component":   "performance",
		"operation":   "query_comps",
		"duration_ms": int64(250),
		"success":     true,
	}
	for key, expectedValue := range expected {
		if fields[key] != expectedValue {
			t.Errorf("PerformanceFields() %s = %v, want %v", key, fields[key], expectedValue)
		}
	}
}
