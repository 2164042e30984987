package email

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rsvphq/firstaccess/internal/auth"
	"github.com/rsvphq/firstaccess/internal/registration"
	"github.com/rsvphq/firstaccess/internal/telemetry/metrics"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	adminRecipientsCacheKey = "admin-recipients"
	adminRecipientsCacheTTL = 5 * 60 // seconds

	recipientsCacheSize = 512 * 1024
)

type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type AdminsLister interface {
	List(ctx context.Context) ([]auth.Admin, error)
}

// Notifier sends the operational emails of the service. Every method is safe
// to call from a detached goroutine: failures are logged and counted, never
// returned.
type Notifier struct {
	sender     Sender
	admins     AdminsLister
	recipients *freecache.Cache
	metrics    *metrics.Manager
}

func NewNotifier(sender Sender, admins AdminsLister, metrics *metrics.Manager) *Notifier {
	return &Notifier{
		sender:     sender,
		admins:     admins,
		recipients: freecache.NewCache(recipientsCacheSize),
		metrics:    metrics,
	}
}

func (n *Notifier) RegistrationReceived(ctx context.Context, submission registration.Submission) {
	subject := fmt.Sprintf("New RSVP: %s %s", submission.FirstName, submission.LastName)
	body := fmt.Sprintf(
		`<h2>New registration</h2>
<p><b>%s %s</b> &lt;%s&gt;</p>
<p>Phone: %s<br>Shirt: %s<br>Sneaker: %s</p>`,
		submission.FirstName, submission.LastName, submission.Email,
		submission.Phone, submission.ShirtSize, submission.SneakerSize,
	)

	for _, adminEmail := range n.adminRecipients(ctx) {
		n.send(ctx, adminEmail, subject, body)
	}

	// and the confirmation for the registrant
	n.send(
		ctx, submission.Email,
		"You are in!",
		fmt.Sprintf(
			`<h2>Hi %s,</h2><p>Your registration is confirmed. See you there!</p>`,
			submission.FirstName,
		),
	)
}

func (n *Notifier) PasswordResetRequested(ctx context.Context, toEmail, resetLink string) {
	n.send(
		ctx, toEmail,
		"Password reset",
		fmt.Sprintf(
			`<p>A password reset was requested for your account.</p>
<p><a href="%s">Reset your password</a></p>
<p>The link expires in one hour. If this was not you, ignore this email.</p>`,
			resetLink,
		),
	)
}

func (n *Notifier) send(ctx context.Context, to, subject, body string) {
	if err := n.sender.Send(ctx, to, subject, body); err != nil {
		n.metrics.CounterEmailsFailed.Inc()
		log.Errorf("send email [%s] to %s: %s", subject, to, err)
		return
	}
	n.metrics.CounterEmailsSent.Inc()
	log.Debugf("email [%s] sent to %s", subject, to)
}

// adminRecipients returns the emails of all admins, served from a short lived
// cache so a burst of registrations does not hammer the admins table. A read
// failure yields no recipients, the registration itself already succeeded.
func (n *Notifier) adminRecipients(ctx context.Context) []string {
	if cached, err := n.recipients.Get([]byte(adminRecipientsCacheKey)); err == nil {
		var emails []string
		if err := json.Unmarshal(cached, &emails); err == nil {
			return emails
		}
		log.Errorf("unmarshal cached admin recipients: %s", err)
	}

	admins, err := n.admins.List(ctx)
	if err != nil {
		log.Errorf("list admin recipients: %s", err)
		return nil
	}

	emails := make([]string, 0, len(admins))
	for _, admin := range admins {
		if admin.Email != "" {
			emails = append(emails, admin.Email)
		}
	}

	if emailsBytes, err := json.Marshal(emails); err == nil {
		if err := n.recipients.Set([]byte(adminRecipientsCacheKey), emailsBytes, adminRecipientsCacheTTL); err != nil {
			log.Errorf("cache admin recipients: %s", err)
		}
	}

	return emails
}
