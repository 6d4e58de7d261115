package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

var ErrMeetNotConfigured = errors.New("google meet integration is not configured")

// MeetService creates Google Meet links by inserting an instant calendar
// event with a conference request. It authenticates with an offline refresh
// token obtained once through the /google/oauth/callback flow.
type MeetService struct {
	oauthConfig  *oauth2.Config
	refreshToken string
}

func NewMeetService(clientID, clientSecret, redirectURL, refreshToken string) *MeetService {
	return &MeetService{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{calendar.CalendarEventsScope},
			Endpoint:     google.Endpoint,
		},
		refreshToken: refreshToken,
	}
}

func (s *MeetService) Configured() bool {
	return s.oauthConfig.ClientID != "" && s.oauthConfig.ClientSecret != "" && s.refreshToken != ""
}

// AuthURL starts the one-time consent flow that yields the refresh token.
func (s *MeetService) AuthURL() string {
	return s.oauthConfig.AuthCodeURL("state", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExchangeCode trades the consent code for tokens; the refresh token is
// surfaced to the operator to place in the environment.
func (s *MeetService) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google oauth exchange: %w", err)
	}
	return token, nil
}

// CreateMeeting returns a Meet link for an event starting now.
func (s *MeetService) CreateMeeting(ctx context.Context, topic string) (string, error) {
	if !s.Configured() {
		return "", ErrMeetNotConfigured
	}

	tokenSource := s.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: s.refreshToken})
	svc, err := calendar.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return "", fmt.Errorf("calendar service init: %w", err)
	}

	if topic == "" {
		topic = "Quick meeting"
	}

	start := time.Now()
	event := &calendar.Event{
		Summary: topic,
		Start:   &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:     &calendar.EventDateTime{DateTime: start.Add(time.Hour).Format(time.RFC3339)},
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: uuid.NewString(),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: "hangoutsMeet",
				},
			},
		},
	}

	created, err := svc.Events.Insert("primary", event).ConferenceDataVersion(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("calendar event insert: %w", err)
	}

	if created.HangoutLink != "" {
		return created.HangoutLink, nil
	}
	if created.ConferenceData != nil {
		for _, entry := range created.ConferenceData.EntryPoints {
			if entry.EntryPointType == "video" && entry.Uri != "" {
				return entry.Uri, nil
			}
		}
	}
	return "", fmt.Errorf("calendar event %s has no meet link", created.Id)
}
