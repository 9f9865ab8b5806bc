package supervisor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"strconv"
	"sync"
)

var ErrMissingContentLength = errors.New("missing Content-Length header")

// framedPipe prefixes every written message with a Content-Length
// header and strips the header from every read message. Reads may
// span multiple calls if the caller's buffer is smaller than a frame.
type framedPipe struct {
	stdio io.ReadWriteCloser

	readMu  sync.Mutex
	reader  *textproto.Reader
	pending []byte

	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

func newFramedPipe(stdio io.ReadWriteCloser) *framedPipe {
	return &framedPipe{
		stdio:  stdio,
		reader: textproto.NewReader(bufio.NewReader(stdio)),
	}
}

func (p *framedPipe) Write(b []byte) (int, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	frame := make([]byte, 0, len(b)+32)
	frame = fmt.Appendf(frame, "Content-Length: %d\r\n\r\n", len(b))
	frame = append(frame, b...)

	if _, err := p.stdio.Write(frame); err != nil {
		return 0, err
	}

	return len(b), nil
}

func (p *framedPipe) Read(b []byte) (int, error) {
	p.readMu.Lock()
	defer p.readMu.Unlock()

	if len(p.pending) == 0 {
		frame, err := p.readFrame()
		if err != nil {
			return 0, err
		}

		p.pending = frame
	}

	n := copy(b, p.pending)
	p.pending = p.pending[n:]

	return n, nil
}

func (p *framedPipe) readFrame() ([]byte, error) {
	header, err := p.reader.ReadMIMEHeader()
	if err != nil {
		return nil, err
	}

	value := header.Get("Content-Length")
	if value == "" {
		return nil, ErrMissingContentLength
	}

	length, err := strconv.Atoi(value)
	if err != nil || length < 0 {
		return nil, fmt.Errorf("invalid Content-Length value: %q", value)
	}

	frame := make([]byte, length)
	if _, err := io.ReadFull(p.reader.R, frame); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}

	return frame, nil
}

// Close closes the underlying stream. It does not take the read lock,
// so a Read blocked on the stream returns with an error.
func (p *framedPipe) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.stdio.Close()
	})
	return p.closeErr
}
