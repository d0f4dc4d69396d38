// I/O manager: reader goroutines over gdb's output streams and response collection.
package gdbio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/glthr/go-gdbmi/internal/gdbmi"
)

// Stream names the gdb output a response was read from.
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// Response is one record together with the stream it came from.
type Response struct {
	Stream Stream
	Record gdbmi.Record
}

// Config controls how long GetResponse waits for output.
type Config struct {
	// Timeout is the wait used by WriteRead when none is given.
	Timeout time.Duration
	// AdditionalOutputWindow is how long GetResponse keeps collecting after
	// the first response arrived.
	AdditionalOutputWindow time.Duration
	// ReadSize is the buffer size of each stream reader.
	ReadSize int
}

func DefaultConfig() Config {
	return Config{
		Timeout:                time.Second,
		AdditionalOutputWindow: 200 * time.Millisecond,
		ReadSize:               4096,
	}
}

const queueSize = 256

// Manager owns the streams of a running gdb: it writes commands to stdin and
// parses stdout and stderr in the background, one Framer per stream.
type Manager struct {
	cfg    Config
	log    *slog.Logger
	parser *gdbmi.Parser

	wmu   sync.Mutex
	stdin io.Writer

	streams []io.Reader
	queue   chan Response
	done    chan struct{}
	wg      sync.WaitGroup

	errMu   sync.Mutex
	readErr error

	closeOnce sync.Once
}

// NewManager starts reading stdout and, when non-nil, stderr. Zero fields of
// cfg take their DefaultConfig values; a nil logger discards.
func NewManager(stdin io.Writer, stdout, stderr io.Reader, cfg Config, logger *slog.Logger) *Manager {
	def := DefaultConfig()
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.AdditionalOutputWindow == 0 {
		cfg.AdditionalOutputWindow = def.AdditionalOutputWindow
	}
	if cfg.ReadSize <= 0 {
		cfg.ReadSize = def.ReadSize
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := &Manager{
		cfg:    cfg,
		log:    logger,
		parser: gdbmi.NewParser(logger),
		stdin:  stdin,
		queue:  make(chan Response, queueSize),
		done:   make(chan struct{}),
	}
	m.start(Stdout, stdout)
	if stderr != nil {
		m.start(Stderr, stderr)
	}
	go func() {
		m.wg.Wait()
		close(m.queue)
		close(m.done)
	}()
	return m
}

func (m *Manager) start(name Stream, r io.Reader) {
	m.streams = append(m.streams, r)
	m.wg.Add(1)
	go m.read(name, r)
}

func (m *Manager) read(name Stream, r io.Reader) {
	defer m.wg.Done()
	f := gdbmi.NewFramer(m.parser)
	buf := make([]byte, m.cfg.ReadSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			recs, perr := f.Ingest(buf[:n])
			m.deliver(name, recs, perr)
		}
		if err != nil {
			recs, perr := f.Flush()
			m.deliver(name, recs, perr)
			if !isClosed(err) {
				m.log.Error("read failed", "stream", name, "err", err)
				m.setErr(fmt.Errorf("read %s: %w", name, err))
			} else {
				m.log.Debug("stream closed", "stream", name)
			}
			return
		}
	}
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed)
}

func (m *Manager) deliver(name Stream, recs []gdbmi.Record, err error) {
	if err != nil {
		m.log.Warn("dropping undecodable output", "stream", name, "err", err)
	}
	for _, rec := range recs {
		m.log.Debug("response", "stream", name, "type", rec.Kind, "message", rec.Message)
		m.queue <- Response{Stream: name, Record: rec}
	}
}

func (m *Manager) setErr(err error) {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	if m.readErr == nil {
		m.readErr = err
	}
}

// Write sends commands to gdb, one per line.
func (m *Manager) Write(ctx context.Context, cmds ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text := strings.Join(cmds, "\n")
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	m.wmu.Lock()
	defer m.wmu.Unlock()
	m.log.Debug("write", "cmds", cmds)
	if _, err := io.WriteString(m.stdin, text); err != nil {
		return fmt.Errorf("write commands: %w", err)
	}
	return nil
}

// GetResponse collects responses for up to timeout. Once the first response
// arrived it only waits AdditionalOutputWindow for more. A timeout of zero
// returns what is already available. When nothing arrived and failOnTimeout
// is set the error is a *TimeoutError.
func (m *Manager) GetResponse(ctx context.Context, timeout time.Duration, failOnTimeout bool) ([]Response, error) {
	if timeout < 0 {
		m.log.Warn("negative timeout, using 0", "timeout", timeout)
		timeout = 0
	}
	deadline := time.Now().Add(timeout)
	var out []Response
	add := func(r Response) {
		out = append(out, r)
		if d := time.Now().Add(m.cfg.AdditionalOutputWindow); d.Before(deadline) {
			deadline = d
		}
	}

	closed := false
collect:
	for {
		select {
		case r, ok := <-m.queue:
			if !ok {
				closed = true
				break collect
			}
			add(r)
			continue
		default:
		}

		wait := time.Until(deadline)
		if wait <= 0 {
			break collect
		}
		t := time.NewTimer(wait)
		select {
		case r, ok := <-m.queue:
			t.Stop()
			if !ok {
				closed = true
				break collect
			}
			add(r)
		case <-t.C:
			break collect
		case <-ctx.Done():
			t.Stop()
			return out, ctx.Err()
		}
	}

	if len(out) == 0 && failOnTimeout {
		m.log.Debug("no response", "timeout", timeout, "closed", closed)
		return nil, &TimeoutError{Timeout: timeout}
	}
	return out, nil
}

// WriteRead writes cmds and waits for the response. A zero timeout uses
// Config.Timeout.
func (m *Manager) WriteRead(ctx context.Context, timeout time.Duration, cmds ...string) ([]Response, error) {
	if err := m.Write(ctx, cmds...); err != nil {
		return nil, err
	}
	if timeout == 0 {
		timeout = m.cfg.Timeout
	}
	return m.GetResponse(ctx, timeout, true)
}

// Responses exposes the queue for callers that consume it directly. It is
// closed once every stream reached EOF. Do not mix with GetResponse.
func (m *Manager) Responses() <-chan Response { return m.queue }

// Done is closed once every stream reader has stopped.
func (m *Manager) Done() <-chan struct{} { return m.done }

// Close closes the streams that implement io.Closer, waits for the readers
// and returns the first read error other than end of stream. Responses still
// queued are discarded.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		if c, ok := m.stdin.(io.Closer); ok {
			_ = c.Close()
		}
		for _, r := range m.streams {
			if c, ok := r.(io.Closer); ok {
				_ = c.Close()
			}
		}
		go func() {
			for range m.queue {
			}
		}()
	})
	<-m.done
	m.errMu.Lock()
	defer m.errMu.Unlock()
	return m.readErr
}
