package daemon

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/cortexhq/cortexvoice/internal/bus"
	"github.com/cortexhq/cortexvoice/internal/config"
	"github.com/cortexhq/cortexvoice/internal/deliver"
	"github.com/cortexhq/cortexvoice/internal/notify"
	"github.com/cortexhq/cortexvoice/internal/polish"
	"github.com/cortexhq/cortexvoice/internal/session"
	"github.com/cortexhq/cortexvoice/internal/testutil"
)

const waitTimeout = 2 * time.Second

type testDaemon struct {
	*Daemon
	recorder  *testutil.MockRecorder
	conn      *testutil.MockConn
	deliverer *testutil.MockDeliverer
	polisher  *testutil.MockPolishAdapter
}

func newTestDaemon(t *testing.T, cfg *config.Config) *testDaemon {
	t.Helper()

	td := &testDaemon{
		recorder:  testutil.NewMockRecorder(),
		conn:      testutil.NewMockConn(),
		deliverer: testutil.NewMockDeliverer(),
		polisher:  testutil.NewMockPolishAdapter("polished text"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	td.Daemon = &Daemon{
		notifier:  notify.Nop{},
		ctx:       ctx,
		cancel:    cancel,
		getConfig: func() *config.Config { return cfg },
		newController: func(sc session.Config, cb session.Callbacks) *session.Controller {
			return session.NewWithFactories(sc, cb,
				testutil.MockRecorderFactory(td.recorder),
				testutil.MockDialer(td.conn, nil))
		},
		newDeliverer: func(dc deliver.Config) (deliver.Deliverer, error) {
			return td.deliverer, nil
		},
		newPolisher: func(pc polish.Config) (polish.Adapter, error) {
			return td.polisher, nil
		},
	}
	return td
}

// send runs one command through handle over an in-memory connection and
// returns the response line.
func send(t *testing.T, d *Daemon, cmd byte) string {
	t.Helper()

	client, server := net.Pipe()
	defer client.Close()
	go d.handle(server)

	if _, err := client.Write([]byte{cmd, '\n'}); err != nil {
		t.Fatalf("write command: %v", err)
	}
	resp, err := bufio.NewReader(client).ReadString('\n')
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp
}

func waitForStatus(t *testing.T, d *Daemon, want session.Status) {
	t.Helper()
	testutil.WaitForCondition(t, func() bool {
		d.mu.Lock()
		ctrl := d.controller
		d.mu.Unlock()
		return ctrl != nil && ctrl.Status() == want
	}, waitTimeout)
}

func TestStartCommand(t *testing.T) {
	td := newTestDaemon(t, testutil.TestConfig())

	resp := send(t, td.Daemon, 'r')
	if !strings.HasPrefix(resp, "OK") {
		t.Fatalf("start response = %q, want OK", resp)
	}
	waitForStatus(t, td.Daemon, session.Listening)
}

func TestStartRejectedWhileSessionActive(t *testing.T) {
	td := newTestDaemon(t, testutil.TestConfig())

	send(t, td.Daemon, 'r')
	waitForStatus(t, td.Daemon, session.Listening)

	resp := send(t, td.Daemon, 'r')
	if !strings.HasPrefix(resp, "ERR") || !strings.Contains(resp, "active") {
		t.Errorf("second start response = %q, want already-active error", resp)
	}
}

func TestStartRejectedWithInvalidConfig(t *testing.T) {
	t.Setenv("CORTEX_TOKEN", "")
	cfg := testutil.TestConfig()
	cfg.Stream.Token = ""
	td := newTestDaemon(t, cfg)

	resp := send(t, td.Daemon, 'r')
	if !strings.HasPrefix(resp, "ERR") {
		t.Errorf("start response = %q, want config error", resp)
	}
}

func TestPauseResumeFinishCommands(t *testing.T) {
	td := newTestDaemon(t, testutil.TestConfig())

	send(t, td.Daemon, 'r')
	waitForStatus(t, td.Daemon, session.Listening)

	if resp := send(t, td.Daemon, 'p'); !strings.HasPrefix(resp, "OK") {
		t.Fatalf("pause response = %q", resp)
	}
	if !td.recorder.IsPaused() {
		t.Error("recorder not paused after pause command")
	}

	if resp := send(t, td.Daemon, 'u'); !strings.HasPrefix(resp, "OK") {
		t.Fatalf("resume response = %q", resp)
	}

	if resp := send(t, td.Daemon, 'f'); !strings.HasPrefix(resp, "OK") {
		t.Fatalf("finish response = %q", resp)
	}
	if !td.recorder.IsReleased() {
		t.Error("recorder not released after finish command")
	}
}

func TestControllerOpWithoutSession(t *testing.T) {
	td := newTestDaemon(t, testutil.TestConfig())

	resp := send(t, td.Daemon, 'p')
	if !strings.Contains(resp, "no session") {
		t.Errorf("pause response = %q, want no session error", resp)
	}
}

func TestStatusCommand(t *testing.T) {
	td := newTestDaemon(t, testutil.TestConfig())

	resp := send(t, td.Daemon, 's')
	if !strings.Contains(resp, "status=idle") {
		t.Errorf("status response = %q, want idle", resp)
	}

	send(t, td.Daemon, 'r')
	waitForStatus(t, td.Daemon, session.Listening)

	resp = send(t, td.Daemon, 's')
	if !strings.Contains(resp, "status=listening") {
		t.Errorf("status response = %q, want listening", resp)
	}
}

func TestVersionCommand(t *testing.T) {
	td := newTestDaemon(t, testutil.TestConfig())

	resp := send(t, td.Daemon, 'v')
	if !strings.Contains(resp, bus.ProtoVer) {
		t.Errorf("version response = %q, want proto %s", resp, bus.ProtoVer)
	}
}

func TestUnknownCommand(t *testing.T) {
	td := newTestDaemon(t, testutil.TestConfig())

	resp := send(t, td.Daemon, 'x')
	if !strings.HasPrefix(resp, "ERR") {
		t.Errorf("response = %q, want ERR for unknown command", resp)
	}
}

func TestQuitCommand(t *testing.T) {
	td := newTestDaemon(t, testutil.TestConfig())

	send(t, td.Daemon, 'q')
	testutil.WaitForCondition(t, func() bool {
		return td.ctx.Err() != nil
	}, waitTimeout)
}

func TestTranscriptDeliveredOnFinish(t *testing.T) {
	td := newTestDaemon(t, testutil.TestConfig())

	send(t, td.Daemon, 'r')
	waitForStatus(t, td.Daemon, session.Listening)

	td.conn.PushFragment("meeting", true)
	td.conn.PushFragment("notes", false)
	testutil.WaitForCondition(t, func() bool {
		td.mu.Lock()
		ctrl := td.controller
		td.mu.Unlock()
		return ctrl != nil && ctrl.Transcript() == "meeting notes"
	}, waitTimeout)

	send(t, td.Daemon, 'f')

	testutil.WaitForCondition(t, func() bool {
		return len(td.deliverer.Delivered()) == 1
	}, waitTimeout)

	if got := td.deliverer.Delivered()[0]; got != "meeting notes" {
		t.Errorf("delivered = %q, want %q", got, "meeting notes")
	}
	if td.polisher.ProcessCalled {
		t.Error("polish ran with polish.enabled = false")
	}
}

func TestTranscriptPolishedWhenEnabled(t *testing.T) {
	cfg := testutil.TestConfig()
	cfg.Polish.Enabled = true
	td := newTestDaemon(t, cfg)

	send(t, td.Daemon, 'r')
	waitForStatus(t, td.Daemon, session.Listening)

	td.conn.PushFragment("raw words", false)
	testutil.WaitForCondition(t, func() bool {
		td.mu.Lock()
		ctrl := td.controller
		td.mu.Unlock()
		return ctrl != nil && ctrl.Transcript() == "raw words"
	}, waitTimeout)
	send(t, td.Daemon, 'f')

	testutil.WaitForCondition(t, func() bool {
		return len(td.deliverer.Delivered()) == 1
	}, waitTimeout)

	if got := td.deliverer.Delivered()[0]; got != "polished text" {
		t.Errorf("delivered = %q, want polished output", got)
	}
	if td.polisher.InputText != "raw words" {
		t.Errorf("polish input = %q, want raw transcript", td.polisher.InputText)
	}
}
