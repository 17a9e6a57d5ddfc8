// internal/notifications/email.go
// Email delivery for invite/accept events via SendGrid.

package notifications

import (
	"context"
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailLookup resolves a user id to an address. Kept as a function type
// so the notifier has no dependency on the users table layout.
type EmailLookup func(ctx context.Context, userID int64) (string, error)

type EmailNotifier struct {
	client *sendgrid.Client
	from   *mail.Email
	lookup EmailLookup
}

func NewEmailNotifier(apiKey, fromName, fromAddress string, lookup EmailLookup) *EmailNotifier {
	return &EmailNotifier{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromAddress),
		lookup: lookup,
	}
}

// Publish implements Publisher. Only person-to-person events become
// emails; capacity flips stay on the realtime channels.
func (n *EmailNotifier) Publish(ctx context.Context, event Event) {
	subject, body := emailContent(event)
	if subject == "" {
		return
	}

	address, err := n.lookup(ctx, event.UserID)
	if err != nil {
		log.Printf("email lookup for user %d: %v", event.UserID, err)
		return
	}

	message := mail.NewSingleEmail(n.from, subject, mail.NewEmail("", address), body, body)
	response, err := n.client.Send(message)
	if err != nil {
		log.Printf("send %s email to user %d: %v", event.Type, event.UserID, err)
		return
	}
	if response.StatusCode >= 400 {
		log.Printf("sendgrid returned %d for %s email to user %d", response.StatusCode, event.Type, event.UserID)
	}
}

func emailContent(event Event) (subject, body string) {
	switch event.Type {
	case EventInvited:
		return "You've been invited to a match",
			fmt.Sprintf("You have a pending invitation to match %s. Open the app to respond.", event.MatchID)
	case EventAccepted:
		return "Your spot is confirmed",
			fmt.Sprintf("You're confirmed for match %s. See you there!", event.MatchID)
	default:
		return "", ""
	}
}
