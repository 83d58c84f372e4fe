package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/mikey/llm-mail-digest/internal/core"
	"go.uber.org/zap"
)

// Connection security modes of the SMTP notifier
const (
	// TLSModeStartTLS upgrades a plain connection with STARTTLS
	TLSModeStartTLS = "starttls"
	// TLSModeImplicit connects with TLS from the start (port 465)
	TLSModeImplicit = "tls"
	// TLSModeNone sends in clear text
	TLSModeNone = "none"
)

// SMTPNotifier mails high-priority alerts through an SMTP relay
type SMTPNotifier struct {
	address   string
	username  string
	password  string
	from      string
	to        []string
	tlsMode   string
	tlsConfig *tls.Config
	timeout   time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewSMTPNotifier creates a new SMTP notifier. Authentication is skipped
// when username is empty; an empty tlsMode means STARTTLS.
func NewSMTPNotifier(address, username, password, from string, to []string, tlsMode string, logger *zap.Logger) (*SMTPNotifier, error) {
	if from == "" {
		from = username
	}
	if from == "" || len(to) == 0 {
		return nil, fmt.Errorf("smtp notifier requires a sender and at least one recipient")
	}

	switch tlsMode {
	case "":
		tlsMode = TLSModeStartTLS
	case TLSModeStartTLS, TLSModeImplicit, TLSModeNone:
	default:
		return nil, fmt.Errorf("unsupported smtp tls mode: %s", tlsMode)
	}

	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return nil, fmt.Errorf("invalid smtp address %q: %w", address, err)
	}

	return &SMTPNotifier{
		address:   address,
		username:  username,
		password:  password,
		from:      from,
		to:        to,
		tlsMode:   tlsMode,
		tlsConfig: &tls.Config{ServerName: host},
		timeout:   30 * time.Second,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// NotifyHighPriority sends one alert mail listing the records
func (n *SMTPNotifier) NotifyHighPriority(ctx context.Context, records []core.ResultRecord) error {
	if len(records) == 0 {
		return nil
	}
	msg, err := n.buildMessage(records)
	if err != nil {
		return err
	}
	if err := n.send(ctx, msg); err != nil {
		return err
	}
	n.logger.Info("High-priority alert mailed", zap.Strings("to", n.to), zap.Int("records", len(records)))
	return nil
}

func (n *SMTPNotifier) buildMessage(records []core.ResultRecord) ([]byte, error) {
	from, err := mail.ParseAddress(n.from)
	if err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", n.from, err)
	}
	to := make([]*mail.Address, 0, len(n.to))
	for _, addr := range n.to {
		parsed, err := mail.ParseAddress(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid recipient address %q: %w", addr, err)
		}
		to = append(to, parsed)
	}

	var h mail.Header
	h.SetDate(n.now())
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", to)
	h.SetSubject("[mail-digest] " + AlertSubject(records))
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create alert message: %w", err)
	}
	if _, err := w.Write([]byte(FormatAlert(records))); err != nil {
		return nil, fmt.Errorf("failed to write alert body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish alert message: %w", err)
	}
	return buf.Bytes(), nil
}

func (n *SMTPNotifier) send(ctx context.Context, msg []byte) error {
	dialer := net.Dialer{Timeout: n.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", n.address)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(n.timeout)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c, err := n.newClient(conn)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if n.username != "" {
		if err := c.Auth(sasl.NewPlainClient("", n.username, n.password)); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := c.Mail(n.from, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	recipientOK := false
	for _, rcpt := range n.to {
		if err := c.Rcpt(rcpt, nil); err != nil {
			n.logger.Warn("RCPT TO failed for recipient", zap.String("recipient", rcpt), zap.Error(err))
			continue
		}
		recipientOK = true
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(msg); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send alert data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		n.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

// newClient opens the SMTP session on conn according to the TLS mode. The
// STARTTLS handshake sends its own EHLO.
func (n *SMTPNotifier) newClient(conn net.Conn) (*smtp.Client, error) {
	switch n.tlsMode {
	case TLSModeStartTLS:
		c, err := smtp.NewClientStartTLS(conn, n.tlsConfig)
		if err != nil {
			return nil, fmt.Errorf("STARTTLS failed: %w", err)
		}
		return c, nil
	case TLSModeImplicit:
		c := smtp.NewClient(tls.Client(conn, n.tlsConfig))
		if err := c.Hello(localName()); err != nil {
			c.Close()
			return nil, fmt.Errorf("EHLO failed: %w", err)
		}
		return c, nil
	default:
		c := smtp.NewClient(conn)
		if err := c.Hello(localName()); err != nil {
			c.Close()
			return nil, fmt.Errorf("EHLO failed: %w", err)
		}
		return c, nil
	}
}

func localName() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "localhost"
	}
	return hostname
}
