package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/slack-go/slack"
)

// SlackUser is the slice of a workspace member the poller cares about.
type SlackUser struct {
	ID   string
	Name string
}

// SlackService wraps the Slack Web API per-workspace: tokens are looked up
// per call, so a single service instance serves every installed workspace.
type SlackService struct {
	httpClient *http.Client
}

func NewSlackService() *SlackService {
	return &SlackService{httpClient: http.DefaultClient}
}

func (s *SlackService) client(token string) *slack.Client {
	return slack.New(token, slack.OptionHTTPClient(s.httpClient))
}

// ListUsers returns the workspace roster with bots and deleted accounts
// filtered out. Cursor pagination is handled by the SDK.
func (s *SlackService) ListUsers(ctx context.Context, token string) ([]SlackUser, error) {
	members, err := s.client(token).GetUsersContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("slack users.list: %w", err)
	}

	users := make([]SlackUser, 0, len(members))
	for _, m := range members {
		if m.IsBot || m.Deleted || m.ID == "USLACKBOT" {
			continue
		}
		name := m.RealName
		if name == "" {
			name = m.Name
		}
		users = append(users, SlackUser{ID: m.ID, Name: name})
	}
	return users, nil
}

// GetPresence fetches a single user's presence. An error is a soft failure
// for that user only; callers skip the user and keep the previous state.
func (s *SlackService) GetPresence(ctx context.Context, token, userID string) (string, error) {
	presence, err := s.client(token).GetUserPresenceContext(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("slack users.getPresence for %s: %w", userID, err)
	}
	return presence.Presence, nil
}

// PostMessage posts text into a channel as the workspace bot.
func (s *SlackService) PostMessage(ctx context.Context, token, channelID, text string) error {
	_, _, err := s.client(token).PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("slack chat.postMessage: %w", err)
	}
	return nil
}

// ExchangeOAuthCode completes the app-install OAuth flow and returns the
// v2 response carrying the bot token and team identity.
func (s *SlackService) ExchangeOAuthCode(ctx context.Context, clientID, clientSecret, code, redirectURI string) (*slack.OAuthV2Response, error) {
	resp, err := slack.GetOAuthV2ResponseContext(ctx, s.httpClient, clientID, clientSecret, code, redirectURI)
	if err != nil {
		return nil, fmt.Errorf("slack oauth.v2.access: %w", err)
	}
	return resp, nil
}
