package watcher

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestIsDaemonRunning_NotRunning(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "test.pid")

	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		t.Errorf("IsDaemonRunning() error = %v, want nil", err)
	}
	if running {
		t.Error("IsDaemonRunning() = true, want false for non-existent PID file")
	}
}

func TestIsDaemonRunning_WithCurrentProcess(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "test.pid")

	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		t.Errorf("IsDaemonRunning() error = %v, want nil", err)
	}
	if !running {
		t.Error("IsDaemonRunning() = false, want true for current process")
	}
}

func TestIsDaemonRunning_WithDeadProcess(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "test.pid")

	// A PID far above the usual pid_max.
	if err := os.WriteFile(pidFile, []byte("999999999\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		t.Errorf("IsDaemonRunning() error = %v, want nil", err)
	}
	if running {
		t.Error("IsDaemonRunning() = true, want false for dead process")
	}
	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Error("stale PID file was not removed")
	}
}

func TestIsDaemonRunning_InvalidPID(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "test.pid")

	if err := os.WriteFile(pidFile, []byte("not-a-number\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		t.Errorf("IsDaemonRunning() error = %v, want nil", err)
	}
	if running {
		t.Error("IsDaemonRunning() = true, want false for invalid PID")
	}
}

func TestReadPID(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "test.pid")

	if _, err := ReadPID(pidFile); !os.IsNotExist(err) {
		t.Errorf("ReadPID(missing) error = %v, want not-exist", err)
	}

	if err := writePID(pidFile, 4242); err != nil {
		t.Fatalf("writePID() failed: %v", err)
	}
	pid, err := ReadPID(pidFile)
	if err != nil {
		t.Fatalf("ReadPID() failed: %v", err)
	}
	if pid != 4242 {
		t.Errorf("ReadPID() = %d, want 4242", pid)
	}
}

func TestStopDaemon_NoPIDFile(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "test.pid")

	err := StopDaemon(pidFile)
	if err == nil {
		t.Fatal("StopDaemon() should fail without a PID file")
	}
	if !strings.Contains(err.Error(), "not running") {
		t.Errorf("StopDaemon() error = %v, want 'not running'", err)
	}
}

func TestStopDaemon_InvalidPID(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "test.pid")
	if err := os.WriteFile(pidFile, []byte("garbage"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	if err := StopDaemon(pidFile); err == nil || !strings.Contains(err.Error(), "invalid PID") {
		t.Errorf("StopDaemon() error = %v, want invalid PID", err)
	}
}

func TestSignalSync_NoPIDFile(t *testing.T) {
	if err := SignalSync(filepath.Join(t.TempDir(), "test.pid")); err == nil {
		t.Error("SignalSync() should fail without a PID file")
	}
}

func TestStartDaemon_AlreadyRunning(t *testing.T) {
	dir := t.TempDir()
	pidFile := filepath.Join(dir, "test.pid")
	if err := writePID(pidFile, os.Getpid()); err != nil {
		t.Fatalf("writePID() failed: %v", err)
	}

	err := StartDaemon(pidFile, filepath.Join(dir, "test.log"))
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Errorf("StartDaemon() error = %v, want already running", err)
	}
}
