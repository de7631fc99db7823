package utils

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"kiosk-client/internal/config"
	"kiosk-client/internal/model"
)

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := NewLogger(&config.LoggingConfig{Level: "verbose", Output: "stdout"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewLoggerWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "kiosk.log")
	logger, err := NewLogger(&config.LoggingConfig{
		Level:      "info",
		Format:     "json",
		Output:     path,
		MaxSize:    1,
		MaxBackups: 1,
	})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	logger.Info("hello")
	if err := CloseLogger(logger); err != nil {
		t.Fatalf("CloseLogger: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("log file is empty")
	}
}

func TestDeviceLoggerStatusLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	id, _ := model.ParseDeviceIdentity("0x04b8", "0x0202", "TM-T88II")
	dl := NewDeviceLogger(zap.New(core), id, model.ConnectionTypeUSB)

	dl.LogStatus(model.NewStatusEvent(model.StatusPaperOK, "restored"))
	dl.LogStatus(model.NewStatusEvent(model.StatusNoPaper, "empty"))
	dl.LogStatus(model.NewStatusEvent(model.StatusErrorPrint, "jam"))

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	want := []zapcore.Level{zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, e := range entries {
		if e.Level != want[i] {
			t.Errorf("entry %d level = %s, want %s", i, e.Level, want[i])
		}
		if e.ContextMap()["vendor_id"] != "0x04b8" {
			t.Errorf("entry %d missing vendor_id field", i)
		}
	}
}
