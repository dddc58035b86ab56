package util

import (
	"strings"

	"github.com/google/uuid"
)

// NewTraceID returns a request trace identifier of the form "trace_<32 hex>".
func NewTraceID() string {
	return "trace_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
