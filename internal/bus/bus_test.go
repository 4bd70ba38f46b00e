package bus

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"
)

func sandboxCacheDir(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
}

func TestPidFileLifecycle(t *testing.T) {
	sandboxCacheDir(t)

	if err := CreatePidFile(); err != nil {
		t.Fatalf("CreatePidFile() = %v", err)
	}

	pidPath, err := PidPath()
	if err != nil {
		t.Fatalf("PidPath() = %v", err)
	}
	pidData, err := os.ReadFile(pidPath)
	if err != nil {
		t.Fatalf("read PID file: %v", err)
	}
	if string(pidData) != strconv.Itoa(os.Getpid()) {
		t.Errorf("PID file contains %q, expected %d", string(pidData), os.Getpid())
	}

	if err := RemovePidFile(); err != nil {
		t.Fatalf("RemovePidFile() = %v", err)
	}
	if _, err := os.Stat(pidPath); !os.IsNotExist(err) {
		t.Error("PID file should not exist after removal")
	}
}

func TestCheckExistingDaemon(t *testing.T) {
	t.Run("no PID file", func(t *testing.T) {
		sandboxCacheDir(t)
		if err := CheckExistingDaemon(); err != nil {
			t.Errorf("CheckExistingDaemon() = %v, want nil with no PID file", err)
		}
	})

	t.Run("running process", func(t *testing.T) {
		sandboxCacheDir(t)
		if err := CreatePidFile(); err != nil {
			t.Fatalf("CreatePidFile() = %v", err)
		}
		defer RemovePidFile()

		err := CheckExistingDaemon()
		if err == nil {
			t.Error("CheckExistingDaemon() should fail while the process is alive")
		}
	})

	t.Run("invalid PID file", func(t *testing.T) {
		sandboxCacheDir(t)
		if err := CreatePidFile(); err != nil {
			t.Fatalf("CreatePidFile() = %v", err)
		}
		pidPath, _ := PidPath()
		if err := os.WriteFile(pidPath, []byte("not-a-pid"), 0o600); err != nil {
			t.Fatalf("write PID file: %v", err)
		}

		if err := CheckExistingDaemon(); err != nil {
			t.Errorf("CheckExistingDaemon() = %v, want nil for garbage PID file", err)
		}
	})
}

func TestSendCommandRoundtrip(t *testing.T) {
	sandboxCacheDir(t)

	ln, err := Listen()
	if err != nil {
		t.Fatalf("Listen() = %v", err)
	}
	defer ln.Close()

	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()

		buf := make([]byte, 2)
		if _, err := c.Read(buf); err != nil {
			return
		}
		fmt.Fprintf(c, "OK echo=%c\n", buf[0])
	}()

	resp, err := SendCommand('s')
	if err != nil {
		t.Fatalf("SendCommand() = %v", err)
	}
	if !strings.Contains(resp, "echo=s") {
		t.Errorf("response = %q, want echo of the command byte", resp)
	}
}

func TestDialWithoutDaemon(t *testing.T) {
	sandboxCacheDir(t)

	if _, err := Dial(); err == nil {
		t.Error("Dial() should fail when no daemon is listening")
	}
}
