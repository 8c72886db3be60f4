// Package monitor provides high-level access to the serial console of a
// telematics device, reading line-oriented output into a bounded queue and
// parsing the device's voltage, state, event, and settings messages.
package monitor

import (
	"context"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// LineBreak is the character sequence terminating a console line.
type LineBreak string

const (
	LineBreakLF   LineBreak = "\n"
	LineBreakCR   LineBreak = "\r"
	LineBreakCRLF LineBreak = "\r\n"
)

const (
	// ConsoleBaudRate is the baud rate (bits/s) used for the serial connection.
	ConsoleBaudRate int = 115200

	// quietTimeout is how long the console goes without a complete line
	// before the device is considered asleep.
	quietTimeout = 10 * time.Second

	// queueMax is the received line count that forces a full queue clear.
	queueMax = 500
	// queueDrain is the received line count above which the oldest line is
	// dropped for each new one.
	queueDrain = 200

	reconnectAttempts = 5
)

// SleepMarker is emitted in place of a line when the console has been quiet
// for longer than the sleep timeout.
const SleepMarker = "..."

// ErrQueueFull is returned when the received line queue grows too large and
// must be cleared.
var ErrQueueFull = errors.New("the data queue is too large and must be cleared")

// Console reads and writes the line-oriented serial console of a device.
type Console struct {
	port   io.ReadWriteCloser
	logger Logger

	// Dial reopens the serial port after a read failure. Reconnection is
	// disabled when nil.
	Dial func() (io.ReadWriteCloser, error)

	RXLineBreak LineBreak
	TXLineBreak LineBreak

	// mu guards port, which the pump goroutine swaps on reconnect, as well
	// as the queue and status.
	mu     sync.Mutex
	queue  []string
	status Status
}

// NewConsole returns a new Console reading and writing the given port with
// line feed breaks in both directions.
func NewConsole(port io.ReadWriteCloser, l Logger) *Console {
	if l == nil {
		l = NopLogger
	}
	return &Console{
		port:        port,
		logger:      l,
		RXLineBreak: LineBreakLF,
		TXLineBreak: LineBreakLF,
	}
}

// Send writes a command to the console followed by the configured line break.
func (c *Console) Send(ctx context.Context, command string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.logger.Debugf("writing '%s' to serial port\n", command)
	b := []byte(command + string(c.TXLineBreak))
	n, err := c.activePort().Write(b)
	if err != nil {
		return errors.Wrap(err, "writing command")
	}
	if n != len(b) {
		return errors.Errorf("only wrote %d bytes (command had %d bytes)", n, len(b))
	}
	return nil
}

// Listen reads console lines until the context is canceled, sending each on
// the returned channel. Lines are also retained in an internal queue consumed
// by RequestInfo, RequestSettings, and Status; a line is dropped from the
// channel, never the queue, when the channel buffer is full. The channel is
// closed when the context is canceled or the connection is lost and cannot
// be reestablished.
func (c *Console) Listen(ctx context.Context) <-chan string {
	lines := make(chan string, 64)
	raw := make(chan byte, 64)
	go c.pump(ctx, raw)
	go c.process(ctx, raw, lines)
	return lines
}

// pump moves bytes from the serial port onto the raw channel, reconnecting
// through Dial when a read fails.
func (c *Console) pump(ctx context.Context, raw chan<- byte) {
	defer close(raw)

	buf := make([]byte, 64)
	for {
		if ctx.Err() != nil {
			return
		}

		n, err := c.activePort().Read(buf)
		for i := 0; i < n; i++ {
			select {
			case raw <- buf[i]:
			case <-ctx.Done():
				return
			}
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			return
		}

		c.logger.Debug(err.Error())
		if !c.reconnect(ctx) {
			return
		}
	}
}

func (c *Console) reconnect(ctx context.Context) bool {
	if c.Dial == nil {
		return false
	}
	c.activePort().Close()

	for attempt := 1; attempt <= reconnectAttempts; attempt++ {
		c.logger.Debugf("trying to reestablish serial connection (%d/%d)\n",
			attempt, reconnectAttempts)

		port, err := c.Dial()
		if err == nil {
			c.logger.Debug("successfully reconnected")
			c.mu.Lock()
			c.port = port
			c.mu.Unlock()
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.NewTimer(time.Second).C:
		}
	}

	c.logger.Debug("could not reestablish a serial connection")
	return false
}

// process assembles raw bytes into lines, watching for the quiet timeout that
// signals the device going to sleep.
func (c *Console) process(ctx context.Context, raw <-chan byte, lines chan<- string) {
	defer close(lines)

	var sb strings.Builder
	quiet := time.NewTimer(quietTimeout)
	defer quiet.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-quiet.C:
			// No complete line for over the timeout. This usually means the
			// device entered sleep or power protect mode.
			sb.Reset()
			c.deliver(SleepMarker, lines)
			quiet.Reset(quietTimeout)

		case b, ok := <-raw:
			if !ok {
				return
			}

			if line, done := c.appendByte(&sb, b); done {
				c.deliver(line, lines)
				if !quiet.Stop() {
					<-quiet.C
				}
				quiet.Reset(quietTimeout)
			}
		}
	}
}

// appendByte adds a byte to the pending line, reporting the completed line
// when the configured break sequence is reached. Empty lines are dropped.
func (c *Console) appendByte(sb *strings.Builder, b byte) (string, bool) {
	switch b {
	case '\n':
		switch c.RXLineBreak {
		case LineBreakLF:
			line := strings.TrimSuffix(sb.String(), "\r")
			sb.Reset()
			if line != "" {
				return line, true
			}
		case LineBreakCRLF:
			if strings.HasSuffix(sb.String(), "\r") {
				line := strings.TrimSuffix(sb.String(), "\r")
				sb.Reset()
				if line != "" {
					return line, true
				}
			}
		}
		// A stray line feed under a carriage return break is dropped.
		return "", false

	case '\r':
		if c.RXLineBreak == LineBreakCR {
			line := sb.String()
			sb.Reset()
			if line != "" {
				return line, true
			}
			return "", false
		}
		sb.WriteByte(b)
		return "", false

	default:
		sb.WriteByte(b)
		return "", false
	}
}

// deliver records a line in the queue, updates the tracked status, and sends
// it on the output channel. The queue is the authoritative store; a slow or
// absent channel reader must not stall line processing.
func (c *Console) deliver(line string, lines chan<- string) {
	c.mu.Lock()
	c.enqueue(line)
	updateStatus(&c.status, line)
	c.mu.Unlock()

	select {
	case lines <- line:
	default:
	}
}

// enqueue appends a line to the bounded queue. The queue is cleared outright
// past queueMax and drained one for one past queueDrain, except during a
// reboot when every line is kept.
func (c *Console) enqueue(line string) {
	if c.status.Event == EventReboot {
		c.queue = append(c.queue, line)
		return
	}

	if len(c.queue) > queueMax {
		c.logger.Debugf("%v (%d)\n", ErrQueueFull, len(c.queue))
		c.queue = c.queue[:0]
	} else if len(c.queue) > queueDrain {
		c.queue = c.queue[1:]
	}
	c.queue = append(c.queue, line)
}

// Status returns the most recently parsed device status.
func (c *Console) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// snapshot copies and clears the received line queue.
func (c *Console) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	q := make([]string, len(c.queue))
	copy(q, c.queue)
	c.queue = c.queue[:0]
	return q
}

// RequestInfo sends the version command and parses the identity fields from
// the response lines.
func (c *Console) RequestInfo(ctx context.Context) (map[string]string, error) {
	return c.request(ctx, "version", time.Second, ParseInfo)
}

// RequestSettings sends the settings command and parses the numbered settings
// from the response lines. The device takes several seconds to print them all.
func (c *Console) RequestSettings(ctx context.Context) (map[string]string, error) {
	return c.request(ctx, "settings", 6*time.Second, ParseSettings)
}

func (c *Console) request(ctx context.Context, command string, wait time.Duration,
	parse func([]string) map[string]string) (map[string]string, error) {
	if err := c.Send(ctx, command); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.NewTimer(wait).C:
	}

	return parse(c.snapshot()), nil
}

var (
	rebootTimeout = 210 * time.Second
	rebootSettle  = 30 * time.Second
)

// WaitForReboot blocks until the console reports the device booting, or until
// the reboot timeout elapses, then waits for the boot output to settle. The
// queue and stale identity fields are cleared afterwards.
func (c *Console) WaitForReboot(ctx context.Context) error {
	deadline := time.Now().Add(rebootTimeout)
	for time.Now().Before(deadline) && !c.sawBootLine() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.NewTimer(500 * time.Millisecond).C:
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.NewTimer(rebootSettle).C:
	}

	c.logger.Debug("reboot complete")
	c.mu.Lock()
	c.status.Event = EventRebootComplete
	c.queue = c.queue[:0]
	c.mu.Unlock()
	return nil
}

func (c *Console) sawBootLine() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, line := range c.queue {
		if strings.Contains(line, "devStateChange: curr=Boot") {
			return true
		}
	}
	return false
}

// Close closes the underlying serial port.
func (c *Console) Close() error {
	c.logger.Debug("closing console")

	if port := c.activePort(); port != nil {
		return port.Close()
	}
	return nil
}

func (c *Console) activePort() io.ReadWriteCloser {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port
}

type Logger interface {
	Debug(message string)
	Debugf(message string, args ...interface{})
}

type nopLogger struct{}

func (l nopLogger) Debug(message string) {}

func (l nopLogger) Debugf(message string, args ...interface{}) {}

var NopLogger Logger = nopLogger{}

type defaultLogger struct {
	l *log.Logger
}

func (l *defaultLogger) Debug(message string) {
	l.l.Print(message)
}

func (l *defaultLogger) Debugf(message string, args ...interface{}) {
	l.l.Printf(message, args...)
}

var DefaultLogger = func(out io.Writer) Logger {
	return &defaultLogger{log.New(out, "MONITOR ", log.LstdFlags)}
}
