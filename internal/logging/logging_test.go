package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/example/mes/internal/ctxutil"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
		enabled zapcore.Level
	}{
		{name: "development debug", cfg: Config{Level: "debug", Env: "local"}, enabled: zapcore.DebugLevel},
		{name: "production warn", cfg: Config{Level: "warn", Env: "prod"}, enabled: zapcore.WarnLevel},
		{name: "empty level is info", cfg: Config{}, enabled: zapcore.InfoLevel},
		{name: "bad level", cfg: Config{Level: "loud"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if !logger.Core().Enabled(tt.enabled) {
				t.Errorf("level %v not enabled", tt.enabled)
			}
			if tt.enabled > zapcore.DebugLevel && logger.Core().Enabled(tt.enabled-1) {
				t.Errorf("level %v should be disabled", tt.enabled-1)
			}
		})
	}
}

func TestHelpersAddStation(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	ctx := ctxutil.WithStation(context.Background(), ctxutil.Station{OperatorID: "OP-7"})

	Info(ctx, logger, "flushed", zap.Int("sent", 2))
	Warn(context.Background(), logger, "no station")
	Error(ctx, logger, "write-back failed")
	Debug(ctx, logger, "delivered")

	entries := logs.All()
	if len(entries) != 4 {
		t.Fatalf("len(entries) = %d, want 4", len(entries))
	}
	wantLevels := []zapcore.Level{zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel, zapcore.DebugLevel}
	for i, want := range wantLevels {
		if entries[i].Level != want {
			t.Errorf("entry %d level = %v, want %v", i, entries[i].Level, want)
		}
	}
	for _, i := range []int{2, 3} {
		if got := entries[i].ContextMap()["operator_id"]; got != "OP-7" {
			t.Errorf("entry %d operator_id = %v, want OP-7", i, got)
		}
	}
	if got := entries[0].ContextMap()["operator_id"]; got != "OP-7" {
		t.Errorf("operator_id = %v, want OP-7", got)
	}
	if _, ok := entries[0].ContextMap()["work_center_id"]; ok {
		t.Error("unexpected work_center_id when none was set")
	}
	if got := entries[0].ContextMap()["sent"]; got != int64(2) {
		t.Errorf("sent = %v, want 2", got)
	}
	if _, ok := entries[1].ContextMap()["operator_id"]; ok {
		t.Error("unexpected operator_id without station in context")
	}
}
