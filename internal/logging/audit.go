// Audit logging for matcha: structured JSONL events covering the
// evaluation lifecycle (runs, suites, cases, extensions). One event per
// line so the trail can be grepped or post-processed without parsing
// the whole file.
package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// =============================================================================
// AUDIT EVENT TYPES
// =============================================================================

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// Run lifecycle
	AuditRunStart    AuditEventType = "run_start"
	AuditRunComplete AuditEventType = "run_complete"
	AuditRunAbort    AuditEventType = "run_abort"

	// Suite lifecycle
	AuditSuiteLoad     AuditEventType = "suite_load"
	AuditSuiteComplete AuditEventType = "suite_complete"

	// Case evaluation
	AuditCasePass AuditEventType = "case_pass"
	AuditCaseFail AuditEventType = "case_fail"

	// Registry lifecycle
	AuditRegistrySeal AuditEventType = "registry_seal"

	// User matcher interpretation
	AuditExtensionLoad  AuditEventType = "extension_load"
	AuditExtensionError AuditEventType = "extension_error"

	// Watch mode
	AuditWatchTrigger AuditEventType = "watch_trigger"

	// Performance
	AuditPerfMetric AuditEventType = "perf_metric"
	AuditPerfSlow   AuditEventType = "perf_slow"

	// Error events
	AuditErrorGeneric  AuditEventType = "error_generic"
	AuditErrorCritical AuditEventType = "error_critical"
)

// =============================================================================
// AUDIT EVENT STRUCTURE
// =============================================================================

// AuditEvent represents one structured audit log entry.
type AuditEvent struct {
	Timestamp  int64                  `json:"ts"`    // Unix milliseconds
	EventType  AuditEventType         `json:"event"` // Event kind
	Category   string                 `json:"cat,omitempty"`
	RunID      string                 `json:"run,omitempty"`     // Run correlation
	Suite      string                 `json:"suite,omitempty"`   // Suite name
	Case       string                 `json:"case,omitempty"`    // Case name
	Matcher    string                 `json:"matcher,omitempty"` // Matcher name
	Target     string                 `json:"target,omitempty"`  // Path or object of the operation
	Success    bool                   `json:"success"`
	DurationMs int64                  `json:"dur_ms,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Message    string                 `json:"msg"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

// =============================================================================
// AUDIT LOGGER
// =============================================================================

var (
	auditFile   *os.File
	auditMu     sync.Mutex
	auditLogger *AuditLogger
)

// AuditLogger writes structured audit events, optionally scoped to a run
type AuditLogger struct {
	runID string
}

// InitAudit initializes the audit logging system
func InitAudit() error {
	if !IsDebugMode() {
		return nil
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		return nil // Already initialized
	}

	date := time.Now().Format("2006-01-02")
	auditPath := filepath.Join(logsDir, fmt.Sprintf("%s_audit.log", date))

	file, err := os.OpenFile(auditPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	auditFile = file

	header := fmt.Sprintf("# Audit log started at %s\n# Format: one JSON event per line\n", time.Now().Format(time.RFC3339))
	auditFile.WriteString(header)

	return nil
}

// CloseAudit closes the audit log file
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
}

// Audit returns the global audit logger
func Audit() *AuditLogger {
	if auditLogger == nil {
		auditLogger = &AuditLogger{}
	}
	return auditLogger
}

// AuditWithRun creates an audit logger scoped to a run ID
func AuditWithRun(runID string) *AuditLogger {
	return &AuditLogger{runID: runID}
}

// Log writes an audit event
func (a *AuditLogger) Log(event AuditEvent) {
	if !IsDebugMode() || auditFile == nil {
		return
	}

	// Fill in defaults
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	if event.RunID == "" && a.runID != "" {
		event.RunID = a.runID
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	data, err := json.Marshal(event)
	if err == nil {
		auditFile.WriteString(string(data) + "\n")
	}
}

// =============================================================================
// CONVENIENCE METHODS FOR COMMON EVENTS
// =============================================================================

// RunStart logs the beginning of a run
func (a *AuditLogger) RunStart(runID string, suiteCount int) {
	a.Log(AuditEvent{
		EventType: AuditRunStart,
		RunID:     runID,
		Success:   true,
		Fields:    map[string]interface{}{"suites": suiteCount},
		Message:   fmt.Sprintf("Run started: %s (%d suites)", runID, suiteCount),
	})
}

// RunComplete logs the end of a run
func (a *AuditLogger) RunComplete(runID string, cases, failures int, durationMs int64) {
	a.Log(AuditEvent{
		EventType:  AuditRunComplete,
		RunID:      runID,
		Success:    failures == 0,
		DurationMs: durationMs,
		Fields:     map[string]interface{}{"cases": cases, "failures": failures},
		Message:    fmt.Sprintf("Run completed: %s (%d cases, %d failures, %dms)", runID, cases, failures, durationMs),
	})
}

// RunAbort logs a run aborted by a hard error
func (a *AuditLogger) RunAbort(runID string, err error) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	a.Log(AuditEvent{
		EventType: AuditRunAbort,
		RunID:     runID,
		Success:   false,
		Error:     errMsg,
		Message:   fmt.Sprintf("Run aborted: %s (%s)", runID, errMsg),
	})
}

// SuiteLoaded logs a successfully loaded suite file
func (a *AuditLogger) SuiteLoaded(path, name string, caseCount int) {
	a.Log(AuditEvent{
		EventType: AuditSuiteLoad,
		Suite:     name,
		Target:    path,
		Success:   true,
		Fields:    map[string]interface{}{"cases": caseCount},
		Message:   fmt.Sprintf("Suite loaded: %s from %s (%d cases)", name, path, caseCount),
	})
}

// SuiteComplete logs a finished suite evaluation
func (a *AuditLogger) SuiteComplete(suite string, failures int, durationMs int64) {
	a.Log(AuditEvent{
		EventType:  AuditSuiteComplete,
		Suite:      suite,
		Success:    failures == 0,
		DurationMs: durationMs,
		Fields:     map[string]interface{}{"failures": failures},
		Message:    fmt.Sprintf("Suite completed: %s (%d failures, %dms)", suite, failures, durationMs),
	})
}

// CaseEvaluated logs one evaluated case
func (a *AuditLogger) CaseEvaluated(suite, caseName, matcher string, passed bool, durationMs int64) {
	eventType := AuditCasePass
	if !passed {
		eventType = AuditCaseFail
	}
	a.Log(AuditEvent{
		EventType:  eventType,
		Suite:      suite,
		Case:       caseName,
		Matcher:    matcher,
		Success:    passed,
		DurationMs: durationMs,
		Message:    fmt.Sprintf("Case %s/%s via %s: passed=%v", suite, caseName, matcher, passed),
	})
}

// RegistrySealed logs the end of the registry load phase
func (a *AuditLogger) RegistrySealed(matcherCount int) {
	a.Log(AuditEvent{
		EventType: AuditRegistrySeal,
		Success:   true,
		Fields:    map[string]interface{}{"matchers": matcherCount},
		Message:   fmt.Sprintf("Registry sealed with %d matchers", matcherCount),
	})
}

// ExtensionLoaded logs a user matcher file load attempt
func (a *AuditLogger) ExtensionLoaded(file, name string, success bool, errMsg string) {
	eventType := AuditExtensionLoad
	if !success {
		eventType = AuditExtensionError
	}
	a.Log(AuditEvent{
		EventType: eventType,
		Matcher:   name,
		Target:    file,
		Success:   success,
		Error:     errMsg,
		Message:   fmt.Sprintf("Extension %s from %s: success=%v", name, file, success),
	})
}

// WatchTrigger logs a debounced watch rerun
func (a *AuditLogger) WatchTrigger(changed []string) {
	a.Log(AuditEvent{
		EventType: AuditWatchTrigger,
		Success:   true,
		Fields:    map[string]interface{}{"changed": changed},
		Message:   fmt.Sprintf("Watch triggered by %d change(s)", len(changed)),
	})
}

// PerfMetric logs a performance metric
func (a *AuditLogger) PerfMetric(operation string, durationMs int64, threshold int64) {
	eventType := AuditPerfMetric
	success := true
	if threshold > 0 && durationMs > threshold {
		eventType = AuditPerfSlow
		success = false
	}
	fields := map[string]interface{}{}
	if threshold > 0 {
		fields["threshold_ms"] = threshold
	}
	a.Log(AuditEvent{
		EventType:  eventType,
		Target:     operation,
		DurationMs: durationMs,
		Success:    success,
		Fields:     fields,
		Message:    fmt.Sprintf("Perf: %s took %dms (threshold=%dms)", operation, durationMs, threshold),
	})
}

// Error logs an error event
func (a *AuditLogger) Error(category string, err error, critical bool) {
	eventType := AuditErrorGeneric
	if critical {
		eventType = AuditErrorCritical
	}
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	a.Log(AuditEvent{
		EventType: eventType,
		Category:  category,
		Success:   false,
		Error:     errMsg,
		Message:   fmt.Sprintf("Error in %s: %s (critical=%v)", category, errMsg, critical),
	})
}

// =============================================================================
// TIMING HELPER
// =============================================================================

// Timer measures an operation and logs a perf event on Stop
type Timer struct {
	operation string
	start     time.Time
	threshold int64
}

// StartTimer begins timing an operation. threshold (ms) of 0 disables
// the slow-operation classification.
func StartTimer(operation string, thresholdMs int64) *Timer {
	return &Timer{operation: operation, start: time.Now(), threshold: thresholdMs}
}

// Stop ends the timer, logs the metric, and returns the elapsed time
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Audit().PerfMetric(t.operation, elapsed.Milliseconds(), t.threshold)
	return elapsed
}
