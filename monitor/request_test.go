package monitor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
)

// replayPort plays back a canned console transcript. Reads return readErr
// instead of io.EOF once the transcript is exhausted, when set.
type replayPort struct {
	mu      sync.Mutex
	out     *bytes.Buffer
	in      bytes.Buffer
	readErr error
	closed  bool
}

func (p *replayPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, err := p.out.Read(b)
	if err == io.EOF && p.readErr != nil {
		return n, p.readErr
	}
	return n, err
}

func (p *replayPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.in.Write(b)
}

func (p *replayPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Line processing must not depend on anyone reading the Listen channel: the
// queue alone feeds the settings request, and the device prints far more
// lines than the channel buffers.
func TestRequestWithoutChannelReader(t *testing.T) {
	var sb strings.Builder
	for i := 1; i <= SettingCount; i++ {
		fmt.Fprintf(&sb, "settings[%02d] = value%d\n", i, i)
	}
	port := &replayPort{out: bytes.NewBufferString(sb.String())}

	c := NewConsole(port, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Listen(ctx)

	settings, err := c.request(ctx, "settings", 500*time.Millisecond, ParseSettings)
	if err != nil {
		t.Fatal(err)
	}
	if len(settings) != SettingCount {
		t.Fatalf("parsed %d settings, want %d", len(settings), SettingCount)
	}
	if v := settings["settings[122]"]; v != "value122" {
		t.Errorf("settings[122] = %q, want %q", v, "value122")
	}
}

// Send runs on the caller's goroutine while the pump swaps the port during a
// reconnect; both must go through the guarded accessor.
func TestSendDuringReconnect(t *testing.T) {
	failing := &replayPort{
		out:     bytes.NewBufferString("one\n"),
		readErr: errors.New("device closed the port"),
	}
	replacement := &replayPort{out: bytes.NewBuffer(nil)}

	c := NewConsole(failing, nil)
	c.Dial = func() (io.ReadWriteCloser, error) {
		return replacement, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	lines := c.Listen(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			c.Send(ctx, "ping")
			time.Sleep(time.Millisecond)
		}
	}()
	<-done
	cancel()
	for range lines {
	}

	if !failing.closed {
		t.Error("the failing port was not closed on reconnect")
	}
}

func TestWaitForReboot(t *testing.T) {
	defer func(timeout, settle time.Duration) {
		rebootTimeout, rebootSettle = timeout, settle
	}(rebootTimeout, rebootSettle)
	rebootTimeout = time.Second
	rebootSettle = 10 * time.Millisecond

	c := NewConsole(&replayPort{out: bytes.NewBuffer(nil)}, nil)
	c.mu.Lock()
	c.queue = append(c.queue, "1970/01/01 00:00:05 devStateChange: curr=Boot")
	c.mu.Unlock()

	if err := c.WaitForReboot(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s := c.Status(); s.Event != EventRebootComplete {
		t.Errorf("Event = %q, want %q", s.Event, EventRebootComplete)
	}
	if q := c.snapshot(); len(q) != 0 {
		t.Errorf("queue holds %d lines after reboot, want none", len(q))
	}
}

func TestWaitForRebootCancel(t *testing.T) {
	defer func(timeout, settle time.Duration) {
		rebootTimeout, rebootSettle = timeout, settle
	}(rebootTimeout, rebootSettle)
	rebootTimeout = time.Minute
	rebootSettle = time.Minute

	c := NewConsole(&replayPort{out: bytes.NewBuffer(nil)}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.WaitForReboot(ctx); err != context.Canceled {
		t.Fatalf("err = %v, want %v", err, context.Canceled)
	}
}
