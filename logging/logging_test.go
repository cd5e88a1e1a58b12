package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "ptrade.log")
	log, closeLog, err := New("debug", file)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	log.Debug("order accepted")
	if err := closeLog(); err != nil {
		t.Fatalf("close error = %v", err)
	}

	content, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(content), `"msg":"order accepted"`) {
		t.Errorf("log file content = %s, want the debug message", content)
	}
	if err := closeLog(); err == nil {
		t.Error("second close succeeded, want the file already closed")
	}
}

func TestNew_NoFile(t *testing.T) {
	log, closeLog, err := New("", "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	log.Info("started")
	if err := closeLog(); err != nil {
		t.Errorf("close error = %v", err)
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, _, err := New("chatty", ""); err == nil {
		t.Error("New() accepted an unknown level")
	}
}
