// Package mailer sends availability notifications over SMTP.
//
// Messages are plain text and are delivered through gomail. The connection
// must be encrypted before login: either implicit TLS on port 465 or a
// STARTTLS upgrade. A server that offers neither is rejected with
// [ErrInsecureConnection] and no credentials are sent. Sends are throttled by a
// token bucket so that a burst of newly available hardware does not trip the
// relay's rate limits.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sysmon-dev/sysmon"
	"golang.org/x/time/rate"
	"gopkg.in/gomail.v2"
)

// DefaultSendInterval is the minimum spacing between two sends.
const DefaultSendInterval = time.Second

// ErrNoRecipients is returned when a hardware entry has nobody to notify.
var ErrNoRecipients = errors.New("no recipients configured")

// Config holds SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// From is the envelope and header sender. Defaults to Username.
	From string

	// SendInterval is the minimum time between sends. Defaults to
	// DefaultSendInterval; negative disables throttling.
	SendInterval time.Duration

	// Sender replaces SMTP delivery when set. Useful for tests and dry runs.
	Sender gomail.Sender
}

// Mailer implements sysmon.Notifier over SMTP.
type Mailer struct {
	dialer  *gomail.Dialer
	from    string
	limiter *rate.Limiter
	sender  gomail.Sender
}

// New creates a [Mailer]. No connection is made until the first send or
// [Mailer.Verify].
func New(cfg Config) *Mailer {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	interval := cfg.SendInterval
	if interval == 0 {
		interval = DefaultSendInterval
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.Username != "" {
		dialer.Auth = newTLSOnlyAuth(cfg.Username, cfg.Password, cfg.Host)
	}

	return &Mailer{
		dialer:  dialer,
		from:    from,
		limiter: rate.NewLimiter(limit, 1),
		sender:  cfg.Sender,
	}
}

// Subject returns the notification subject for hardware.
func Subject(hardware string) string {
	return fmt.Sprintf("SYS hardware %s available!", hardware)
}

// Body returns the plain-text notification body.
func Body(hardware, offerURL string) string {
	return fmt.Sprintf("%s\nLink: %s\n", Subject(hardware), offerURL)
}

// Message builds the notification email for hw.
func (m *Mailer) Message(hw sysmon.Hardware) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", hw.Recipients...)
	msg.SetHeader("Subject", Subject(hw.Name))
	msg.SetBody("text/plain", Body(hw.Name, hw.OfferURL))
	return msg
}

// Notify emails hw's recipients that it is available.
//
// Notify blocks until the send limiter admits the message or ctx is done.
// Connection, authentication and delivery failures are returned as errors.
func (m *Mailer) Notify(ctx context.Context, hw sysmon.Hardware) error {
	if len(hw.Recipients) == 0 {
		return fmt.Errorf("%s: %w", hw.Name, ErrNoRecipients)
	}

	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("send throttled: %w", err)
	}

	msg := m.Message(hw)
	if m.sender != nil {
		if err := gomail.Send(m.sender, msg); err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	}
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email via %s:%d: %w", m.dialer.Host, m.dialer.Port, err)
	}
	return nil
}

// Verify connects to the SMTP server and authenticates without sending.
func (m *Mailer) Verify() error {
	conn, err := m.dialer.Dial()
	if err != nil {
		return fmt.Errorf("couldn't connect to smtp host %s:%d: %w", m.dialer.Host, m.dialer.Port, err)
	}
	return conn.Close()
}

var _ sysmon.Notifier = (*Mailer)(nil)
