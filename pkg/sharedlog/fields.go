// Package sharedlog provides a chainable structured-logging field builder
// used across the research core, plus domain field constructors for the
// recurring log shapes (job, worker, evidence, adapter, scheduler).
package sharedlog

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Fields is a chainable builder over logrus.Fields. Every setter returns the
// same map so calls can be chained: NewFields().Component("x").Operation("y").
type Fields map[string]interface{}

// NewFields returns an empty Fields builder.
func NewFields() Fields {
	return Fields{}
}

// Component sets the component field.
func (f Fields) Component(name string) Fields {
	f["component"] = name
	return f
}

// Operation sets the operation field.
func (f Fields) Operation(name string) Fields {
	f["operation"] = name
	return f
}

// Resource sets resource_type and, if non-empty, resource_name.
func (f Fields) Resource(resourceType, resourceName string) Fields {
	f["resource_type"] = resourceType
	if resourceName != "" {
		f["resource_name"] = resourceName
	}
	return f
}

// Duration sets duration_ms from a time.Duration.
func (f Fields) Duration(d time.Duration) Fields {
	f["duration_ms"] = d.Milliseconds()
	return f
}

// Error sets the error field when err is non-nil.
func (f Fields) Error(err error) Fields {
	if err != nil {
		f["error"] = err.Error()
	}
	return f
}

// UserID sets user_id when non-empty.
func (f Fields) UserID(id string) Fields {
	if id != "" {
		f["user_id"] = id
	}
	return f
}

// RequestID sets request_id.
func (f Fields) RequestID(id string) Fields {
	f["request_id"] = id
	return f
}

// TraceID sets trace_id.
func (f Fields) TraceID(id string) Fields {
	f["trace_id"] = id
	return f
}

// StatusCode sets status_code.
func (f Fields) StatusCode(code int) Fields {
	f["status_code"] = code
	return f
}

// Method sets the HTTP method field.
func (f Fields) Method(method string) Fields {
	f["method"] = method
	return f
}

// URL sets the url field.
func (f Fields) URL(url string) Fields {
	f["url"] = url
	return f
}

// Count sets the count field.
func (f Fields) Count(n int) Fields {
	f["count"] = n
	return f
}

// Size sets size_bytes from an int64 byte count.
func (f Fields) Size(bytes int64) Fields {
	f["size_bytes"] = bytes
	return f
}

// Version sets the version field.
func (f Fields) Version(v string) Fields {
	f["version"] = v
	return f
}

// Custom sets an arbitrary key/value pair.
func (f Fields) Custom(key string, value interface{}) Fields {
	f[key] = value
	return f
}

// ToLogrus converts Fields to logrus.Fields for passing to WithFields.
func (f Fields) ToLogrus() logrus.Fields {
	out := make(logrus.Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
