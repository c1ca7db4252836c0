package sharedlog

import "time"

// DatabaseFields describes a database operation against a table.
func DatabaseFields(operation, table string) Fields {
	return NewFields().Component("database").Operation(operation).Resource("table", table)
}

// HTTPFields describes an inbound or outbound HTTP call.
func HTTPFields(method, url string, statusCode int) Fields {
	return NewFields().Component("http").Method(method).URL(url).StatusCode(statusCode)
}

// JobFields describes a research job lifecycle event.
func JobFields(operation, jobID string) Fields {
	return NewFields().Component("job").Operation(operation).Resource("job", jobID)
}

// WorkerFields describes a single worker's execution.
func WorkerFields(workerName, jobID string) Fields {
	return NewFields().Component("worker").Operation(workerName).Resource("job", jobID)
}

// EvidenceFields describes an evidence store operation.
func EvidenceFields(operation, evidenceHash string) Fields {
	return NewFields().Component("evidence").Operation(operation).Resource("evidence_item", evidenceHash)
}

// SchedulerFields describes a scheduler batch step.
func SchedulerFields(step int, batchSize int) Fields {
	return NewFields().Component("scheduler").Custom("step", step).Count(batchSize)
}

// AdapterFields describes an outbound adapter call (geocoder, search, GIS).
func AdapterFields(adapterName, operation string) Fields {
	return NewFields().Component("adapter").Custom("adapter_name", adapterName).Operation(operation)
}

// AIFields describes an LLM narrative-generation call.
func AIFields(operation, model string) Fields {
	return NewFields().Component("ai").Operation(operation).Custom("model", model)
}

// MetricsFields describes a recorded metric observation.
func MetricsFields(operation, metricName string, value float64) Fields {
	return NewFields().Component("metrics").Operation(operation).Custom("metric_name", metricName).Custom("value", value)
}

// SecurityFields describes an authentication or authorization event.
func SecurityFields(operation, subject string) Fields {
	return NewFields().Component("security").Operation(operation).Custom("subject", subject)
}

// PerformanceFields describes a timed operation outcome.
func PerformanceFields(operation string, duration time.Duration, success bool) Fields {
	return NewFields().Component("performance").Operation(operation).Duration(duration).Custom("success", success)
}
