package notifier

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailOptions holds the credentials for the Gmail API
type GmailOptions struct {
	// CredentialsFile is the OAuth client JSON downloaded from Google Cloud Console
	CredentialsFile string
	// TokenFile holds a cached oauth2.Token as JSON
	TokenFile string
	// RefreshToken is used when no token file is configured
	RefreshToken string
	// From is the sender address; Gmail uses the account address when empty
	From string
}

// GmailNotifier sends notifications through the Gmail API
type GmailNotifier struct {
	service *gmail.Service
	from    string
}

// NewGmailNotifier creates a Gmail notifier authorised for sending only.
// Extra client options are appended after the token source.
func NewGmailNotifier(ctx context.Context, opts GmailOptions, clientOpts ...option.ClientOption) (*GmailNotifier, error) {
	if opts.CredentialsFile == "" {
		return nil, errors.New("gmail credentials file is required")
	}

	data, err := os.ReadFile(opts.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading gmail credentials: %w", err)
	}

	config, err := google.ConfigFromJSON(data, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("parsing gmail credentials: %w", err)
	}

	token, err := loadToken(opts)
	if err != nil {
		return nil, err
	}

	allOpts := append([]option.ClientOption{option.WithTokenSource(config.TokenSource(ctx, token))}, clientOpts...)
	service, err := gmail.NewService(ctx, allOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating gmail service: %w", err)
	}

	return NewGmailNotifierWithService(service, opts.From), nil
}

// NewGmailNotifierWithService wraps an existing Gmail service
func NewGmailNotifierWithService(service *gmail.Service, from string) *GmailNotifier {
	return &GmailNotifier{service: service, from: from}
}

// Send delivers an HTML message through users.messages.send
func (n *GmailNotifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(buildMessage(n.from, to, subject, htmlBody)),
	}

	if _, err := n.service.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("sending gmail message to %s: %w", to, err)
	}
	return nil
}

func loadToken(opts GmailOptions) (*oauth2.Token, error) {
	if opts.TokenFile != "" {
		data, err := os.ReadFile(opts.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("reading gmail token: %w", err)
		}
		var token oauth2.Token
		if err := json.Unmarshal(data, &token); err != nil {
			return nil, fmt.Errorf("parsing gmail token: %w", err)
		}
		return &token, nil
	}

	if opts.RefreshToken != "" {
		return &oauth2.Token{RefreshToken: opts.RefreshToken}, nil
	}

	return nil, errors.New("gmail token file or refresh token is required")
}

// buildMessage renders an RFC 5322 message with an HTML body
func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	if from != "" {
		fmt.Fprintf(&b, "From: %s\r\n", from)
	}
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}
