package mcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// FramedTransport speaks JSON-RPC over a byte stream. It accepts both
// line-delimited JSON and Content-Length framed messages, and answers in the
// framing the peer used last.
type FramedTransport struct {
	Reader io.Reader
	Writer io.Writer
	Logger *slog.Logger
}

var _ mcp.Transport = (*FramedTransport)(nil)

func (t *FramedTransport) Connect(context.Context) (mcp.Connection, error) {
	if t.Reader == nil || t.Writer == nil {
		return nil, errors.New("framed transport requires a reader and a writer")
	}
	log := t.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	conn := &framedConn{
		log:    log,
		reader: bufio.NewReader(t.Reader),
		writer: bufio.NewWriter(t.Writer),
	}
	if closer, ok := t.Reader.(io.Closer); ok {
		conn.closer = closer
	}
	return conn, nil
}

type framedConn struct {
	log    *slog.Logger
	reader *bufio.Reader
	closer io.Closer

	writeMu sync.Mutex
	writer  *bufio.Writer

	framed atomic.Bool
}

func (c *framedConn) SessionID() string { return "" }

func (c *framedConn) Read(context.Context) (jsonrpc.Message, error) {
	for {
		payload, framed, err := readMessage(c.reader)
		if err != nil {
			return nil, err
		}
		c.framed.Store(framed)

		msg, err := jsonrpc.DecodeMessage(payload)
		if err != nil {
			c.log.Warn("dropping invalid json-rpc payload", "error", err)
			continue
		}
		return msg, nil
	}
}

func (c *framedConn) Write(_ context.Context, msg jsonrpc.Message) error {
	payload, err := jsonrpc.EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return writeMessage(c.writer, payload, c.framed.Load())
}

// Close flushes pending output and closes the input so a blocked Read
// returns.
func (c *framedConn) Close() error {
	c.writeMu.Lock()
	err := c.writer.Flush()
	c.writeMu.Unlock()
	if c.closer != nil {
		err = errors.Join(err, c.closer.Close())
	}
	return err
}

// readMessage returns the next payload and whether it arrived with
// Content-Length framing. Blank lines between messages are skipped.
func readMessage(reader *bufio.Reader) ([]byte, bool, error) {
	var firstLine string
	for {
		line, err := reader.ReadString('\n')
		trimmed := strings.TrimSpace(line)
		if err != nil {
			if errors.Is(err, io.EOF) && strings.HasPrefix(trimmed, "{") {
				return []byte(trimmed), false, nil
			}
			if errors.Is(err, io.EOF) && trimmed == "" {
				return nil, false, io.EOF
			}
			return nil, false, err
		}
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "{") {
			return []byte(trimmed), false, nil
		}
		firstLine = line
		break
	}

	headers := []string{strings.TrimRight(firstLine, "\r\n")}
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, true, err
		}
		clean := strings.TrimRight(line, "\r\n")
		if clean == "" {
			break
		}
		headers = append(headers, clean)
	}

	length, err := parseContentLength(headers)
	if err != nil {
		return nil, true, err
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(reader, payload); err != nil {
		return nil, true, fmt.Errorf("failed to read payload: %w", err)
	}
	return payload, true, nil
}

// maxContentLength bounds the payload size a peer can make us allocate.
const maxContentLength = 64 << 20

func parseContentLength(headers []string) (int, error) {
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) != 2 {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(parts[0]), "Content-Length") {
			continue
		}
		rawLen := strings.TrimSpace(parts[1])
		length, err := strconv.Atoi(rawLen)
		if err != nil || length <= 0 {
			return 0, fmt.Errorf("invalid Content-Length value: %q", rawLen)
		}
		if length > maxContentLength {
			return 0, fmt.Errorf("content length %d exceeds limit of %d bytes", length, maxContentLength)
		}
		return length, nil
	}
	return 0, fmt.Errorf("missing Content-Length header")
}

func writeMessage(writer *bufio.Writer, payload []byte, framed bool) error {
	if framed {
		if _, err := fmt.Fprintf(writer, "Content-Length: %d\r\n\r\n", len(payload)); err != nil {
			return err
		}
	}
	if _, err := writer.Write(payload); err != nil {
		return err
	}
	if !framed {
		if err := writer.WriteByte('\n'); err != nil {
			return err
		}
	}
	return writer.Flush()
}
