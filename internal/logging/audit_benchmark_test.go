package logging

import (
	"testing"
)

func BenchmarkAuditLog(b *testing.B) {
	tempDir := b.TempDir()
	resetState()
	writeBenchConfig(b, tempDir)
	if err := Initialize(tempDir); err != nil {
		b.Fatalf("init: %v", err)
	}
	if err := InitAudit(); err != nil {
		b.Fatalf("init audit: %v", err)
	}
	defer CloseAudit()

	audit := AuditWithRun("bench-run")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		audit.CaseEvaluated("bench", "case", "be_the_square_of", true, 1)
	}
}

func BenchmarkAuditLogDisabled(b *testing.B) {
	// Production mode: every call must be a cheap no-op
	resetState()

	audit := Audit()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		audit.CaseEvaluated("bench", "case", "be_the_square_of", true, 1)
	}
}

func writeBenchConfig(b *testing.B, dir string) {
	b.Helper()
	content := "logging:\n  level: debug\n  debug_mode: true\n"
	if err := writeConfigFile(dir, content); err != nil {
		b.Fatalf("write config: %v", err)
	}
}
