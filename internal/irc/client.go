package irc

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Zeenat-Muzaffar/GHURLBot/internal/bus"
)

// maxLineBytes keeps outbound PRIVMSG payloads inside the 512-byte IRC frame
// with headroom for the server-added prefix.
const maxLineBytes = 400

// Options configures a client connection.
type Options struct {
	Server   string // host:port
	UseTLS   bool
	Nick     string
	RealName string
	Password string  // optional server password
	SendRate float64 // outbound messages per second (0 = 2/s)
	Burst    int     // outbound burst (0 = 4)
}

// Client is a minimal IRC connection implementing bus.Transport.
type Client struct {
	opts    Options
	conn    net.Conn
	lines   chan bus.ChatLine
	limiter *rate.Limiter

	writeMu sync.Mutex

	mu   sync.Mutex
	nick string // may differ from opts.Nick after a collision
}

// Compile-time interface satisfaction check.
var _ bus.Transport = (*Client)(nil)

// Dial connects and registers with the server. The returned client delivers
// inbound lines once Run is started.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	if opts.RealName == "" {
		opts.RealName = opts.Nick
	}
	if opts.SendRate <= 0 {
		opts.SendRate = 2
	}
	if opts.Burst <= 0 {
		opts.Burst = 4
	}

	dialer := &net.Dialer{Timeout: 30 * time.Second}
	var conn net.Conn
	var err error
	if opts.UseTLS {
		conn, err = (&tls.Dialer{NetDialer: dialer}).DialContext(ctx, "tcp", opts.Server)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", opts.Server)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", opts.Server, err)
	}

	c := &Client{
		opts:    opts,
		conn:    conn,
		lines:   make(chan bus.ChatLine, 64),
		limiter: rate.NewLimiter(rate.Limit(opts.SendRate), opts.Burst),
		nick:    opts.Nick,
	}

	if opts.Password != "" {
		if err := c.writeLine("PASS %s", opts.Password); err != nil {
			conn.Close()
			return nil, err
		}
	}
	if err := c.writeLine("NICK %s", opts.Nick); err != nil {
		conn.Close()
		return nil, err
	}
	if err := c.writeLine("USER %s 0 * :%s", opts.Nick, opts.RealName); err != nil {
		conn.Close()
		return nil, err
	}

	return c, nil
}

// Run reads the connection until it closes or ctx is done, translating
// PRIVMSGs into bus.ChatLines. The Lines channel is closed on return.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.lines)
	defer c.conn.Close()

	go func() {
		<-ctx.Done()
		c.conn.Close()
	}()

	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 0, 4096), 8192)
	for scanner.Scan() {
		raw := strings.TrimRight(scanner.Text(), "\r\n")
		if raw == "" {
			continue
		}
		msg, err := parseMessage(raw)
		if err != nil {
			slog.Debug("unparseable irc line skipped", "error", err)
			continue
		}
		c.handle(ctx, msg)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("irc read: %w", err)
	}
	return nil
}

func (c *Client) handle(ctx context.Context, msg Message) {
	switch msg.Command {
	case "PING":
		arg := ""
		if len(msg.Params) > 0 {
			arg = msg.Params[len(msg.Params)-1]
		}
		if err := c.writeLine("PONG :%s", arg); err != nil {
			slog.Warn("pong failed", "error", err)
		}

	case "433": // nick already in use
		c.mu.Lock()
		c.nick += "_"
		nick := c.nick
		c.mu.Unlock()
		slog.Info("nick collision, retrying", "nick", nick)
		if err := c.writeLine("NICK %s", nick); err != nil {
			slog.Warn("nick change failed", "error", err)
		}

	case "001":
		slog.Info("irc registered", "server", c.opts.Server, "nick", c.Nick())

	case "PRIVMSG":
		if len(msg.Params) < 2 {
			return
		}
		target, text := msg.Params[0], msg.Params[1]
		sender := senderNick(msg.Prefix)
		nick := c.Nick()

		if strings.EqualFold(target, nick) {
			// Private message: implicitly addressed; replies go back to
			// the sender.
			c.deliver(ctx, bus.ChatLine{
				Channel: sender, Sender: sender, Text: text, Addressed: true,
			})
			return
		}

		stripped, addressed := stripAddress(text, nick)
		c.deliver(ctx, bus.ChatLine{
			Channel: target, Sender: sender, Text: stripped, Addressed: addressed,
		})
	}
}

func (c *Client) deliver(ctx context.Context, line bus.ChatLine) {
	select {
	case c.lines <- line:
	case <-ctx.Done():
	}
}

// Nick returns the nick currently in use.
func (c *Client) Nick() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nick
}

// Lines implements bus.Transport.
func (c *Client) Lines() <-chan bus.ChatLine { return c.lines }

// Send implements bus.Transport. Messages are paced by the outbound rate
// limiter and truncated to fit one IRC frame.
func (c *Client) Send(ctx context.Context, msg bus.Outbound) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	text := msg.Text
	if len(text) > maxLineBytes {
		text = text[:maxLineBytes-3] + "..."
	}
	return c.writeLine("PRIVMSG %s :%s", msg.Channel, text)
}

// Join implements bus.Transport.
func (c *Client) Join(ctx context.Context, channel string) error {
	return c.writeLine("JOIN %s", channel)
}

// Part implements bus.Transport.
func (c *Client) Part(ctx context.Context, channel string) error {
	return c.writeLine("PART %s", channel)
}

func (c *Client) writeLine(format string, args ...any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := fmt.Fprintf(c.conn, format+"\r\n", args...); err != nil {
		return fmt.Errorf("irc write: %w", err)
	}
	return nil
}
