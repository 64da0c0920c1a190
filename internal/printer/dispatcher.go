package printer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
)

var (
	ErrPrinterUnreachable = errors.New("printer unreachable")
	ErrPrinterTimeout     = errors.New("printer operation timed out")
	ErrTransport          = errors.New("transport failure")
	ErrEmptyPayload       = errors.New("payload is empty")
	ErrPayloadTooLarge    = errors.New("payload exceeds size limit")
	ErrInvalidCopies      = errors.New("copy count out of range")
)

const (
	DefaultPort     = 9100
	MaxPayloadBytes = 100 * 1024
	MaxCopies       = 100

	defaultDialTimeout = 5 * time.Second
	defaultSendTimeout = 10 * time.Second
)

// Dispatcher streams rendered payloads to printers over raw TCP. One
// connection per copy, nothing read back; a clean write and close is the
// only success signal the wire offers.
type Dispatcher struct {
	dialTimeout time.Duration
	sendTimeout time.Duration
	logger      *zap.Logger
}

func NewDispatcher(dialTimeout, sendTimeout time.Duration, logger *zap.Logger) *Dispatcher {
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	return &Dispatcher{
		dialTimeout: dialTimeout,
		sendTimeout: sendTimeout,
		logger:      logger,
	}
}

// Endpoint builds the host:port address for a printer, applying the
// conventional raw-print port when none is set.
func Endpoint(host string, port int) string {
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// Dispatch writes the payload over one connection.
func (d *Dispatcher) Dispatch(ctx context.Context, endpoint string, payload []byte) error {
	if len(payload) == 0 {
		return ErrEmptyPayload
	}
	if len(payload) > MaxPayloadBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(payload), MaxPayloadBytes)
	}

	dialer := net.Dialer{Timeout: d.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return classifyDialError(err)
	}
	defer conn.Close()

	deadline := time.Now().Add(d.sendTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	n, err := conn.Write(payload)
	if err != nil {
		return classifyWriteError(err)
	}
	if n != len(payload) {
		return fmt.Errorf("%w: short write (%d of %d bytes)", ErrTransport, n, len(payload))
	}

	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.CloseWrite()
	}
	return nil
}

// DispatchCopies sends the payload once per copy, sequentially, aborting on
// the first failure. It returns how many copies were fully written.
func (d *Dispatcher) DispatchCopies(ctx context.Context, endpoint string, payload []byte, copies int) (int, error) {
	if copies < 1 || copies > MaxCopies {
		return 0, fmt.Errorf("%w: %d (must be 1-%d)", ErrInvalidCopies, copies, MaxCopies)
	}

	for i := 0; i < copies; i++ {
		if err := d.Dispatch(ctx, endpoint, payload); err != nil {
			d.logger.Warn("dispatch aborted",
				zap.String("endpoint", endpoint),
				zap.Int("sent", i),
				zap.Int("requested", copies),
				zap.Error(err))
			return i, err
		}
	}

	d.logger.Info("payload dispatched",
		zap.String("endpoint", endpoint),
		zap.Int("copies", copies),
		zap.Int("bytes", len(payload)))
	return copies, nil
}

// TestConnection probes the endpoint without sending anything.
func (d *Dispatcher) TestConnection(ctx context.Context, endpoint string) error {
	dialer := net.Dialer{Timeout: d.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return classifyDialError(err)
	}
	conn.Close()
	return nil
}

func classifyDialError(err error) error {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return fmt.Errorf("%w: %v", ErrPrinterTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrPrinterTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrPrinterUnreachable, err)
}

func classifyWriteError(err error) error {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return fmt.Errorf("%w: %v", ErrPrinterTimeout, err)
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return fmt.Errorf("%w: connection lost mid-write: %v", ErrTransport, err)
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}
