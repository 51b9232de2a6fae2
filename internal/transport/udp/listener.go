package udp

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

const (
	// maxDatagram bounds a single command datagram.
	maxDatagram = 1024

	// pollInterval is the read deadline used so the loop can observe
	// a stop request.
	pollInterval = 1 * time.Second
)

// Handler processes one decoded command datagram and reports whether
// the command was accepted.
type Handler func(text string) bool

// Logger is the logging interface the listener needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Listener receives command datagrams and replies with the outcome.
type Listener struct {
	conn    *net.UDPConn
	handler Handler
	log     Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Listen binds the command socket and starts the receive loop.
func Listen(bind string, handler Handler, log Logger) (*Listener, error) {
	addr, err := net.ResolveUDPAddr("udp", bind)
	if err != nil {
		return nil, fmt.Errorf("udp: resolving %q: %w", bind, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("udp: binding %q: %w", bind, err)
	}

	l := &Listener{
		conn:    conn,
		handler: handler,
		log:     log,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go l.loop()

	l.log.Info("listening for command datagrams", "addr", conn.LocalAddr().String())
	return l, nil
}

// Addr returns the bound local address.
func (l *Listener) Addr() net.Addr {
	return l.conn.LocalAddr()
}

// Stop closes the socket and waits for the receive loop to exit.
func (l *Listener) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
		l.conn.Close()
	})
	<-l.done
}

func (l *Listener) loop() {
	defer close(l.done)

	buf := make([]byte, maxDatagram)
	for {
		select {
		case <-l.stop:
			return
		default:
		}

		l.conn.SetReadDeadline(time.Now().Add(pollInterval))
		n, addr, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			select {
			case <-l.stop:
			default:
				l.log.Warn("datagram read failed", "error", err)
			}
			return
		}

		l.log.Debug("received command datagram", "from", addr.String(), "bytes", n)

		response := "NO"
		if l.handler(string(buf[:n])) {
			response = "OK"
		}
		if _, err := l.conn.WriteToUDP([]byte(response), addr); err != nil {
			l.log.Warn("datagram reply failed", "to", addr.String(), "error", err)
		}
	}
}
