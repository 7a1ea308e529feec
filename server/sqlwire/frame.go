package sqlwire

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// A frame is a 4-byte big-endian payload length followed by a JSON payload.
const (
	headerSize = 4
	// MaxFrameSize caps the payload a peer may announce.
	MaxFrameSize = 8 << 20
)

var (
	ErrEmptyFrame    = errors.New("sqlwire: empty frame")
	ErrFrameTooLarge = errors.New("sqlwire: frame too large")
)

// Conn exchanges frames over one stream. Reads go through a buffer and
// both directions reuse their scratch space, so a Conn must not be shared
// between goroutines without a lock.
type Conn struct {
	r    *bufio.Reader
	w    io.Writer
	rbuf []byte
	wbuf []byte
}

func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{r: bufio.NewReader(rw), w: rw}
}

// Recv decodes the next frame into v.
func (c *Conn) Recv(v any) error {
	var err error
	c.rbuf, err = readFrame(c.r, c.rbuf, v)
	return err
}

// Send encodes v and writes it as one frame with a single Write call.
func (c *Conn) Send(v any) error {
	var err error
	if c.wbuf, err = appendFrame(c.wbuf[:0], v); err != nil {
		return err
	}
	_, err = c.w.Write(c.wbuf)
	return err
}

// ReadFrame decodes one frame from r without buffering past it.
func ReadFrame(r io.Reader, v any) error {
	_, err := readFrame(r, nil, v)
	return err
}

// WriteFrame writes v as one frame.
func WriteFrame(w io.Writer, v any) error {
	b, err := appendFrame(nil, v)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func readFrame(r io.Reader, buf []byte, v any) ([]byte, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return buf, err
	}

	size := binary.BigEndian.Uint32(hdr[:])
	switch {
	case size == 0:
		return buf, ErrEmptyFrame
	case size > MaxFrameSize:
		return buf, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, size, MaxFrameSize)
	}

	if cap(buf) < int(size) {
		buf = make([]byte, size)
	}
	payload := buf[:size]
	if _, err := io.ReadFull(r, payload); err != nil {
		return buf, err
	}

	if err := json.Unmarshal(payload, v); err != nil {
		return buf, fmt.Errorf("sqlwire: bad json: %w", err)
	}
	return buf, nil
}

func appendFrame(dst []byte, v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return dst, fmt.Errorf("sqlwire: marshal: %w", err)
	}
	if len(payload) > MaxFrameSize {
		return dst, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(payload), MaxFrameSize)
	}

	dst = binary.BigEndian.AppendUint32(dst, uint32(len(payload)))
	return append(dst, payload...), nil
}
