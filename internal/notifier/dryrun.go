package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
)

// DryRunNotifier prints what would be sent without sending anything
type DryRunNotifier struct {
	w io.Writer
}

// NewDryRunNotifier creates a dry-run notifier writing to w, or stdout when w
// is nil
func NewDryRunNotifier(w io.Writer) *DryRunNotifier {
	if w == nil {
		w = os.Stdout
	}
	return &DryRunNotifier{w: w}
}

// Send prints the message that would be delivered
func (n *DryRunNotifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(n.w, "--- Email (dry run) ---\nTo: %s\nSubject: %s\n\n%s\n\n", to, subject, htmlBody)
	return err
}
