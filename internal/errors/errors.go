// Package errors defines the error taxonomy shared by the editor core:
// structural, permission, resolution, validation, state and network
// errors, plus a collector for recoverable diagnostics raised while
// loading or rendering a document.
package errors

import (
	"fmt"
	"sync"
	"time"
)

// Diagnostic is a recoverable problem found while processing a document.
// The operation that produced it still succeeded.
type Diagnostic struct {
	NodeID    string
	Component string
	Message   string
	Severity  ErrorSeverity
	Timestamp time.Time
}

// ErrorSeverity represents the severity of a diagnostic
type ErrorSeverity int

const (
	ErrorSeverityInfo ErrorSeverity = iota
	ErrorSeverityWarning
	ErrorSeverityError
)

// String returns the string representation of the severity
func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityInfo:
		return "info"
	case ErrorSeverityWarning:
		return "warning"
	case ErrorSeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Error implements the error interface
func (d *Diagnostic) Error() string {
	if d.Component != "" {
		return fmt.Sprintf("%s: node %s (%s): %s", d.Severity, d.NodeID, d.Component, d.Message)
	}
	return fmt.Sprintf("%s: node %s: %s", d.Severity, d.NodeID, d.Message)
}

// ErrorCollector collects diagnostics. A nil collector discards everything,
// so callers that do not care can pass nil.
type ErrorCollector struct {
	diagnostics []Diagnostic
	mutex       sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		diagnostics: make([]Diagnostic, 0),
	}
}

// Add adds a diagnostic to the collector
func (ec *ErrorCollector) Add(d Diagnostic) {
	if ec == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now()
	}
	ec.diagnostics = append(ec.diagnostics, d)
}

// Warn records a warning for a node.
func (ec *ErrorCollector) Warn(nodeID, component, format string, args ...interface{}) {
	ec.Add(Diagnostic{
		NodeID:    nodeID,
		Component: component,
		Message:   fmt.Sprintf(format, args...),
		Severity:  ErrorSeverityWarning,
	})
}

// GetDiagnostics returns a copy of all collected diagnostics
func (ec *ErrorCollector) GetDiagnostics() []Diagnostic {
	if ec == nil {
		return nil
	}
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]Diagnostic, len(ec.diagnostics))
	copy(result, ec.diagnostics)
	return result
}

// HasErrors returns true if there are any diagnostics
func (ec *ErrorCollector) HasErrors() bool {
	if ec == nil {
		return false
	}
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.diagnostics) > 0
}

// Clear clears all diagnostics
func (ec *ErrorCollector) Clear() {
	if ec == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.diagnostics = ec.diagnostics[:0]
}

// GetByNode returns diagnostics for a specific node
func (ec *ErrorCollector) GetByNode(nodeID string) []Diagnostic {
	if ec == nil {
		return nil
	}
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	var out []Diagnostic
	for _, d := range ec.diagnostics {
		if d.NodeID == nodeID {
			out = append(out, d)
		}
	}
	return out
}
