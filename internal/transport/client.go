// Package transport provides the UDP client used to talk to the game
// server. Sends are paced with a token-bucket limiter so probe runs do not
// turn into an accidental flood.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"

	laberrors "github.com/Hazy142/Hytale-Lab/internal/errors"
)

// ErrNoReply reports that the server sent nothing before the read deadline.
// Game servers drop malformed datagrams silently, so callers treat this as
// an observation, not a failure.
var ErrNoReply = errors.New("no reply before deadline")

const maxDatagram = 65535

// Options configures a Client.
type Options struct {
	Timeout    time.Duration // reply timeout per exchange
	RatePerSec float64       // sustained send rate, 0 disables pacing
	Burst      int
}

// Client is a paced UDP client for one target address.
type Client struct {
	addr    string
	timeout time.Duration
	limiter *rate.Limiter

	connMu sync.Mutex
	conn   *net.UDPConn
}

// NewClient resolves the target and opens the socket.
func NewClient(host string, port int, opts Options) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve UDP address %s: %w", addr, err)
	}

	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, laberrors.WrapNetworkError(fmt.Errorf("dial UDP: %w", err), host, port)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	var limiter *rate.Limiter
	if opts.RatePerSec > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), burst)
	}

	return &Client{
		addr:    addr,
		timeout: timeout,
		limiter: limiter,
		conn:    conn,
	}, nil
}

// Addr returns the target address.
func (c *Client) Addr() string {
	return c.addr
}

// Close releases the socket.
func (c *Client) Close() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Send transmits one datagram without waiting for a reply.
func (c *Client) Send(ctx context.Context, data []byte) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("client closed")
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("send datagram: %w", err)
	}
	return nil
}

// Exchange transmits one datagram and waits for a single reply. A quiet
// server yields ErrNoReply.
func (c *Client) Exchange(ctx context.Context, data []byte) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return nil, fmt.Errorf("client closed")
	}

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set write deadline: %w", err)
	}
	if _, err := c.conn.Write(data); err != nil {
		return nil, fmt.Errorf("send datagram: %w", err)
	}

	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set read deadline: %w", err)
	}

	buf := make([]byte, maxDatagram)
	n, err := c.conn.Read(buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, ErrNoReply
		}
		return nil, fmt.Errorf("read reply: %w", err)
	}
	return buf[:n], nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}
