// Package gateway bridges radio messages to a line-oriented byte stream, the
// format a radio gateway board prints on its serial port: one JSON document per
// line, terminated by CRLF.
package gateway

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	proto "github.com/ystepanoff/nrflink/protocol"
	"github.com/ystepanoff/nrflink/transport"
)

var terminator = []byte("\r\n")

// MaxLineSize bounds one buffered line.
const MaxLineSize = 4096

var ErrEmptyMessage = errors.New("gateway: empty message")

// Writer emits one line per message. It is safe for concurrent use.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

// WriteReport encodes r as JSON and writes it as one line.
func (w *Writer) WriteReport(r proto.SensorReport) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return w.writeLine(b)
}

// WriteMessage writes a received message buffer as one line, dropping the NUL
// padding. The content must not contain a line terminator.
func (w *Writer) WriteMessage(msg []byte) error {
	msg = bytes.TrimRight(msg, "\x00")
	if len(msg) == 0 {
		return ErrEmptyMessage
	}
	if bytes.Contains(msg, terminator) {
		return fmt.Errorf("gateway: message contains a line terminator")
	}
	return w.writeLine(msg)
}

func (w *Writer) writeLine(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	line := make([]byte, 0, len(b)+len(terminator))
	line = append(line, b...)
	line = append(line, terminator...)
	_, err := w.w.Write(line)
	return err
}

// Report is a parsed line with its arrival time.
type Report struct {
	proto.SensorReport
	ReceivedAt time.Time
}

// Readings expands the report at its arrival time.
func (r Report) Readings() []proto.Reading { return r.SensorReport.Readings(r.ReceivedAt) }

// Reader splits a byte stream on CRLF and parses each line as a sensor report.
// Malformed lines are logged and skipped.
type Reader struct {
	sc  *bufio.Scanner
	log transport.Logger
	now func() time.Time
}

type ReaderOption func(*Reader)

func WithLogger(l transport.Logger) ReaderOption {
	return func(r *Reader) {
		if l != nil {
			r.log = l
		}
	}
}

func WithNow(now func() time.Time) ReaderOption {
	return func(r *Reader) {
		if now != nil {
			r.now = now
		}
	}
}

func NewReader(rd io.Reader, opts ...ReaderOption) *Reader {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 0, 256), MaxLineSize)
	sc.Split(scanCRLF)
	r := &Reader{sc: sc, log: discard{}, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Next returns the next well-formed report. It returns io.EOF when the stream ends;
// an unterminated trailing line is discarded.
func (r *Reader) Next() (Report, error) {
	for r.sc.Scan() {
		report, err := ParseLine(r.sc.Bytes())
		if err != nil {
			r.log.Printf("[Gateway] Skipping line: %v\r\n", err)
			continue
		}
		return Report{SensorReport: report, ReceivedAt: r.now()}, nil
	}
	if err := r.sc.Err(); err != nil {
		return Report{}, err
	}
	return Report{}, io.EOF
}

// ParseLine decodes one line. The document must be a JSON object with a "t" field.
func ParseLine(line []byte) (proto.SensorReport, error) {
	var report proto.SensorReport
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] != '{' {
		return report, fmt.Errorf("not a JSON object: %q", line)
	}
	if err := json.Unmarshal(line, &report); err != nil {
		return report, err
	}
	if report.Type == "" {
		return report, fmt.Errorf("missing report type: %q", line)
	}
	return report, nil
}

// scanCRLF is a bufio.SplitFunc yielding CRLF-terminated lines. Unlike
// bufio.ScanLines a lone LF does not end a line, and a final unterminated
// fragment is dropped.
func scanCRLF(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.Index(data, terminator); i >= 0 {
		return i + len(terminator), data[:i], nil
	}
	if atEOF {
		return len(data), nil, nil
	}
	return 0, nil, nil
}

type discard struct{}

func (discard) Printf(string, ...any) {}
