package notifier

import (
	"errors"
	"fmt"
	"time"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // stable v1.1 API
	"github.com/dghubble/oauth1"

	"github.com/helsinkigse/seminar-digest/internal/event"
)

// Credentials are the OAuth1 application and access tokens for the
// announcement account.
type Credentials struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// TwitterNotifier posts seminar announcements to Twitter.
type TwitterNotifier struct {
	client *twitter.Client

	// pause between consecutive posts, to stay friendly with the API
	pause time.Duration
}

// NewTwitterNotifier creates a notifier from explicit credentials.
func NewTwitterNotifier(creds Credentials) (*TwitterNotifier, error) {
	if creds.APIKey == "" || creds.APISecret == "" || creds.AccessToken == "" || creds.AccessSecret == "" {
		return nil, errors.New("incomplete Twitter credentials")
	}

	config := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	httpClient := config.Client(oauth1.NoContext, token)

	return &TwitterNotifier{
		client: twitter.NewClient(httpClient),
		pause:  2 * time.Second,
	}, nil
}

// Notify posts one announcement per event.
func (n *TwitterNotifier) Notify(events []event.Event) error {
	for i, e := range events {
		if _, _, err := n.client.Statuses.Update(formatPost(e), nil); err != nil {
			return fmt.Errorf("posting announcement for %s: %w", e.URL, err)
		}
		if i < len(events)-1 {
			time.Sleep(n.pause)
		}
	}
	return nil
}
