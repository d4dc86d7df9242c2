// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"
)

const (
	// serialReadTimeout bounds a serial Read so reader loops notice shutdown
	serialReadTimeout = 100 * time.Millisecond

	wsHandshakeTimeout = 10 * time.Second
	wsDialTimeout      = 15 * time.Second
)

// Connection is a byte stream to a receiver, over serial or a WebSocket bridge
type Connection interface {
	io.ReadWriteCloser
	fmt.Stringer
}

// ErrConnectionClosed is returned when reading from a closed connection
var ErrConnectionClosed = errors.New("connection closed")

// SerialConnection is a receiver on a local UART. A Read that times out
// returns 0, nil.
type SerialConnection struct {
	serial.Port
	name string
	baud int
}

func (s *SerialConnection) String() string {
	return fmt.Sprintf("Serial: %s @ %d baud", s.name, s.baud)
}

// SetBaud changes the host side baud rate, keeping 8N1
func (s *SerialConnection) SetBaud(baud int) error {
	if err := s.SetMode(serialMode(baud)); err != nil {
		return err
	}
	s.baud = baud
	return nil
}

func serialMode(baud int) *serial.Mode {
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// OpenSerialConnection opens a serial port at baud, 8N1
func OpenSerialConnection(portName string, baud int) (*SerialConnection, error) {
	port, err := serial.Open(portName, serialMode(baud))
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(serialReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", portName, err)
	}
	return &SerialConnection{Port: port, name: portName, baud: baud}, nil
}

// WebSocketConnection is a receiver behind a serial-to-WebSocket bridge.
// Each binary message carries a chunk of the receiver's UART stream; text
// messages are bridge chatter and are skipped.
type WebSocketConnection struct {
	conn *websocket.Conn
	url  string
	msg  io.Reader // unread rest of the current binary message
}

func (w *WebSocketConnection) String() string {
	return "WebSocket: " + w.url
}

func (w *WebSocketConnection) Read(p []byte) (int, error) {
	for {
		if w.msg == nil {
			kind, r, err := w.conn.NextReader()
			if err != nil {
				return 0, ErrConnectionClosed
			}
			if kind != websocket.BinaryMessage {
				continue
			}
			w.msg = r
		}

		n, err := w.msg.Read(p)
		if errors.Is(err, io.EOF) {
			w.msg = nil
			if n == 0 {
				continue
			}
			return n, nil
		}
		if err != nil {
			return n, ErrConnectionClosed
		}
		return n, nil
	}
}

// Write sends p as one binary message
func (w *WebSocketConnection) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocketConnection) Close() error {
	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return w.conn.Close()
}

func basicAuth(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// OpenWebSocketConnection dials a ws:// or wss:// bridge, sending HTTP Basic
// credentials when a username is given
func OpenWebSocketConnection(wsURL, username, password string, skipSSLVerify bool) (*WebSocketConnection, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("unsupported URL scheme %q (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}
	if u.Scheme == "wss" && skipSSLVerify {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	headers := http.Header{}
	if username != "" {
		headers.Set("Authorization", basicAuth(username, password))
	}

	ctx, cancel := context.WithTimeout(context.Background(), wsDialTimeout)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}
	return &WebSocketConnection{conn: conn, url: wsURL}, nil
}

// GetPassword returns $GNOMON_PASSWORD, or prompts on the terminal, or
// reads a line from stdin when it is not a terminal
func GetPassword() (string, error) {
	if pw := os.Getenv(envPassword); pw != "" {
		return pw, nil
	}

	fd := int(os.Stdin.Fd())
	fmt.Fprint(os.Stderr, "Password: ")
	defer fmt.Fprintln(os.Stderr)

	if term.IsTerminal(fd) {
		pw, err := term.ReadPassword(fd)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// OpenConnection opens the connection selected by --url or --port
func OpenConnection() (Connection, string, error) {
	var (
		conn Connection
		err  error
	)
	switch {
	case wsURL != "":
		password := ""
		if wsUsername != "" {
			if password, err = GetPassword(); err != nil {
				return nil, "", err
			}
		}
		conn, err = OpenWebSocketConnection(wsURL, wsUsername, password, wsNoSSLVerify)
	case portName != "":
		conn, err = OpenSerialConnection(portName, baudRate)
	default:
		return nil, "", errors.New("either --port or --url must be specified")
	}
	if err != nil {
		return nil, "", err
	}
	return conn, conn.String(), nil
}
