package sharedlog

import (
	"errors"
	"testing"
	"time"
)

func TestNewFields(t *testing.T) {
	fields := NewFields()
	if fields == nil {
		t.Fatal("NewFields() returned nil")
	}
	if len(fields) != 0 {
		t.Errorf("NewFields() should be empty, got %d fields", len(fields))
	}
}

func TestFields_Component(t *testing.T) {
	fields := NewFields().Component("test-component")
	if fields["component"] != "test-component" {
		t.Errorf("Component() = %v, want %v", fields["component"], "test-component")
	}
}

func TestFields_Operation(t *testing.T) {
	fields := NewFields().Operation("create")
	if fields["operation"] != "create" {
		t.Errorf("Operation() = %v, want %v", fields["operation"], "create")
	}
}

func TestFields_Resource(t *testing.T) {
	fields := NewFields().Resource("job", "job-1")
	if fields["resource_type"] != "job" {
		t.Errorf("Resource() resource_type = %v, want %v", fields["resource_type"], "job")
	}
	if fields["resource_name"] != "job-1" {
		t.Errorf("Resource() resource_name = %v, want %v", fields["resource_name"], "job-1")
	}
}

func TestFields_ResourceWithoutName(t *testing.T) {
	fields := NewFields().Resource("job", "")
	if fields["resource_type"] != "job" {
		t.Errorf("Resource() resource_type = %v, want %v", fields["resource_type"], "job")
	}
	if _, exists := fields["resource_name"]; exists {
		t.Error("Resource() should not set resource_name when empty")
	}
}

func TestFields_Duration(t *testing.T) {
	fields := NewFields().Duration(150 * time.Millisecond)
	if fields["duration_ms"] != int64(150) {
		t.Errorf("Duration() = %v, want %v", fields["duration_ms"], int64(150))
	}
}

func TestFields_Error(t *testing.T) {
	fields := NewFields().Error(errors.New("test error"))
	if fields["error"] != "test error" {
		t.Errorf("Error() = %v, want %v", fields["error"], "test error")
	}
}

func TestFields_ErrorNil(t *testing.T) {
	fields := NewFields().Error(nil)
	if _, exists := fields["error"]; exists {
		t.Error("Error(nil) should not set error field")
	}
}

func TestFields_UserID(t *testing.T) {
	fields := NewFields().UserID("user-123")
	if fields["user_id"] != "user-123" {
		t.Errorf("UserID() = %v, want %v", fields["user_id"], "user-123")
	}
}

func TestFields_UserIDEmpty(t *testing.T) {
	fields := NewFields().UserID("")
	if _, exists := fields["user_id"]; exists {
		t.Error("UserID(\"\") should not set user_id field")
	}
}

func TestFields_RequestID(t *testing.T) {
	fields := NewFields().RequestID("req-123")
	if fields["request_id"] != "req-123" {
		t.Errorf("RequestID() = %v, want %v", fields["request_id"], "req-123")
	}
}

func TestFields_TraceID(t *testing.T) {
	fields := NewFields().TraceID("trace-123")
	if fields["trace_id"] != "trace-123" {
		t.Errorf("TraceID() = %v, want %v", fields["trace_id"], "trace-123")
	}
}

func TestFields_StatusCode(t *testing.T) {
	fields := NewFields().StatusCode(404)
	if fields["status_code"] != 404 {
		t.Errorf("StatusCode() = %v, want %v", fields["status_code"], 404)
	}
}

func TestFields_Method(t *testing.T) {
	fields := NewFields().Method("GET")
	if fields["method"] != "GET" {
		t.Errorf("Method() = %v, want %v", fields["method"], "GET")
	}
}

func TestFields_URL(t *testing.T) {
	fields := NewFields().URL("https://api.example.com")
	if fields["url"] != "https://api.example.com" {
		t.Errorf("URL() = %v, want %v", fields["url"], "https://api.example.com")
	}
}

func TestFields_Count(t *testing.T) {
	fields := NewFields().Count(42)
	if fields["count"] != 42 {
		t.Errorf("Count() = %v, want %v", fields["count"], 42)
	}
}

func TestFields_Size(t *testing.T) {
	fields := NewFields().Size(1024)
	if fields["size_bytes"] != int64(1024) {
		t.Errorf("Size() = %v, want %v", fields["size_bytes"], int64(1024))
	}
}

func TestFields_Version(t *testing.T) {
	fields := NewFields().Version("v1.2.3")
	if fields["version"] != "v1.2.3" {
		t.Errorf("Version() = %v, want %v", fields["version"], "v1.2.3")
	}
}

func TestFields_Custom(t *testing.T) {
	fields := NewFields().Custom("custom_key", "custom_value")
	if fields["custom_key"] != "custom_value" {
		t.Errorf("Custom() = %v, want %v", fields["custom_key"], "custom_value")
	}
}

func TestFields_ChainedCalls(t *testing.T) {
	fields := NewFields().
		Component("test").
		Operation("create").
		Resource("job", "test-job").
		Duration(100 * time.Millisecond).
		Count(5)

	expected := map[string]interface{}{
		"component":     "test",
		"operation":     "create",
		"resource_type": "job",
		"resource_name": "test-job",
		"duration_ms":   int64(100),
		"count":         5,
	}

	for key, expectedValue := range expected {
		if fields[key] != expectedValue {
			t.Errorf("Chained calls: %s = %v, want %v", key, fields[key], expectedValue)
		}
	}
}

func TestFields_ToLogrus(t *testing.T) {
	fields := NewFields().Component("test").Operation("create")
	logrusFields := fields.ToLogrus()

	if logrusFields == nil {
		t.Fatal("ToLogrus() should not return nil")
	}
	if logrusFields["component"] != "test" {
		t.Errorf("ToLogrus() component = %v, want %v", logrusFields["component"], "test")
	}
	if logrusFields["operation"] != "create" {
		t.Errorf("ToLogrus() operation = %v, want %v", logrusFields["operation"], "create")
	}
}
