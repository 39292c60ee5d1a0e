package logging

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitializeSilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")

	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize(\"\") error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger should be silent when no level is configured")
	}
}

func TestInitializeFromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "warn")
	defer SetLogger(nil)

	if err := InitializeFromEnv(); err != nil {
		t.Fatalf("InitializeFromEnv() error = %v", err)
	}

	core := GetLogger().Core()
	if core.Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !core.Enabled(zapcore.WarnLevel) {
		t.Error("warn should be enabled at warn level")
	}
}

func TestDomainHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	LogHTTPExchange("GET", "/home", 200, 15*time.Millisecond)
	LogFormSubmit("/login/", []string{"email", "password"})
	LogSelectionShim(0, 0, 1, 0)
	LogRelogin("ABCDEFGH", "1234")

	if got := logs.Len(); got != 4 {
		t.Fatalf("logged %d entries, want 4", got)
	}

	entry := logs.FilterMessage("Portal request").All()[0]
	if got := entry.ContextMap()["path"]; got != "/home" {
		t.Errorf("path field = %v, want /home", got)
	}

	relogin := logs.FilterMessage("Status request rejected, logging in again").All()
	if len(relogin) != 1 || relogin[0].Level != zapcore.WarnLevel {
		t.Errorf("relogin entry = %v, want one warn entry", relogin)
	}
}
