package notifier

import (
	"fmt"
	"io"
	"os"

	"github.com/helsinkigse/seminar-digest/internal/event"
)

// DryRunNotifier prints announcements instead of posting them.
type DryRunNotifier struct {
	out io.Writer
}

// NewDryRunNotifier creates a dry-run notifier writing to stderr, keeping
// stdout free for the CLI's JSON output.
func NewDryRunNotifier() *DryRunNotifier {
	return &DryRunNotifier{out: os.Stderr}
}

// Notify prints what would be posted.
func (n *DryRunNotifier) Notify(events []event.Event) error {
	for i, e := range events {
		post := formatPost(e)
		fmt.Fprintf(n.out, "--- Announcement %d/%d ---\n%s\n\n", i+1, len(events), post)
	}
	return nil
}
