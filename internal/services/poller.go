package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"slackpulse-backend/internal/models"
	"slackpulse-backend/internal/repository"
)

// PresencePoller periodically walks every active workspace's roster,
// compares each user's Slack presence with the last recorded state, and on a
// transition appends a presence log, opens/closes the activity session, and
// merge-upserts the status document. Each user's write is independent and
// idempotent, so a failed user never aborts the batch.
type PresencePoller struct {
	workspaces *repository.WorkspaceRepo
	statuses   *repository.UserStatusRepo
	logs       *repository.PresenceLogRepo
	sessions   *repository.SessionRepo
	slack      *SlackService
	pubsub     *redis.Client
	interval   time.Duration
	stopChan   chan struct{}
}

func NewPresencePoller(
	workspaces *repository.WorkspaceRepo,
	statuses *repository.UserStatusRepo,
	logs *repository.PresenceLogRepo,
	sessions *repository.SessionRepo,
	slack *SlackService,
	pubsub *redis.Client,
	interval time.Duration,
) *PresencePoller {
	return &PresencePoller{
		workspaces: workspaces,
		statuses:   statuses,
		logs:       logs,
		sessions:   sessions,
		slack:      slack,
		pubsub:     pubsub,
		interval:   interval,
		stopChan:   make(chan struct{}),
	}
}

func (p *PresencePoller) Start() {
	go p.loop()
	log.Printf("Presence poller started (interval %s)", p.interval)
}

func (p *PresencePoller) Stop() {
	select {
	case <-p.stopChan:
		return
	default:
		close(p.stopChan)
	}
}

func (p *PresencePoller) loop() {
	// Run on startup as well as by interval.
	if err := p.RunOnce(context.Background()); err != nil {
		log.Printf("presence poll: %v", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopChan:
			return
		case <-ticker.C:
			if err := p.RunOnce(context.Background()); err != nil {
				log.Printf("presence poll: %v", err)
			}
		}
	}
}

// RunOnce performs a single poll over all active workspaces. Also invoked by
// the manual trigger endpoint.
func (p *PresencePoller) RunOnce(ctx context.Context) error {
	workspaces, err := p.workspaces.ListActive(ctx)
	if err != nil {
		return err
	}

	for _, ws := range workspaces {
		p.pollWorkspace(ctx, ws)
	}
	return nil
}

func (p *PresencePoller) pollWorkspace(ctx context.Context, ws models.SlackWorkspace) {
	users, err := p.slack.ListUsers(ctx, ws.BotToken)
	if err != nil {
		log.Printf("presence poll: workspace %s: list users: %v", ws.WorkspaceID, err)
		return
	}

	for _, user := range users {
		// A presence fetch failure is isolated to this user; the last
		// known state is left untouched.
		presence, err := p.slack.GetPresence(ctx, ws.BotToken, user.ID)
		if err != nil {
			continue
		}
		if err := p.recordObservation(ctx, ws.WorkspaceID, user, presence); err != nil {
			log.Printf("presence poll: workspace %s user %s: %v", ws.WorkspaceID, user.ID, err)
		}
	}
}

func (p *PresencePoller) recordObservation(ctx context.Context, workspaceID string, user SlackUser, presence string) error {
	now := time.Now()

	status, err := p.statuses.Get(ctx, workspaceID, user.ID)
	if err != nil {
		return err
	}

	var previous *string
	if status != nil {
		prev := status.Presence
		previous = &prev
	}

	plan := planTransition(previous, presence)

	if !plan.Changed {
		if status != nil {
			if err := p.statuses.TouchChecked(ctx, workspaceID, user.ID, now); err != nil {
				return err
			}
		}
		if models.IsActive(presence) {
			if err := p.sessions.Touch(ctx, workspaceID, user.ID, now); err != nil {
				return err
			}
		}
		return nil
	}

	log.Printf("presence poll: %s (%s) changed %s -> %s", user.Name, user.ID, plan.PreviousLabel, presence)

	if err := p.logs.Insert(ctx, &models.PresenceLog{
		WorkspaceID:      workspaceID,
		UserID:           user.ID,
		UserName:         user.Name,
		Presence:         presence,
		PreviousPresence: previous,
		Timestamp:        now,
	}); err != nil {
		return err
	}

	if plan.OpenSession {
		if err := p.sessions.Open(ctx, &models.ActivitySession{
			WorkspaceID: workspaceID,
			UserID:      user.ID,
			StartTime:   now,
		}); err != nil {
			return err
		}
	} else if plan.CloseSession {
		if err := p.sessions.Close(ctx, workspaceID, user.ID, now); err != nil {
			return err
		}
	}

	if err := p.statuses.Upsert(ctx, &models.UserStatus{
		WorkspaceID: workspaceID,
		UserID:      user.ID,
		UserName:    user.Name,
		Presence:    presence,
		LastChecked: now,
		LastChanged: now,
	}); err != nil {
		return err
	}

	p.publishUpdate(ctx, workspaceID, user, presence, plan.PreviousLabel, now)
	return nil
}

func (p *PresencePoller) publishUpdate(ctx context.Context, workspaceID string, user SlackUser, presence, previous string, now time.Time) {
	payload, err := json.Marshal(models.WSMessage{
		Type: "presence_update",
		Payload: models.PresenceUpdate{
			WorkspaceID:      workspaceID,
			UserID:           user.ID,
			UserName:         user.Name,
			Presence:         presence,
			PreviousPresence: previous,
			Timestamp:        now.UnixMilli(),
		},
	})
	if err != nil {
		return
	}
	if err := p.pubsub.Publish(ctx, "presence_updates:"+workspaceID, payload).Err(); err != nil {
		log.Printf("presence poll: publish update: %v", err)
	}
}

// transitionPlan captures what a single observation implies for the stores.
type transitionPlan struct {
	Changed       bool
	OpenSession   bool
	CloseSession  bool
	PreviousLabel string
}

// planTransition compares a new observation with the last recorded presence.
// Session boundaries follow active/away semantics: custom statuses count as
// away, so an active→custom flip closes the session while custom→custom
// flips only log.
func planTransition(previous *string, current string) transitionPlan {
	plan := transitionPlan{PreviousLabel: "N/A"}
	if previous != nil {
		plan.PreviousLabel = *previous
	}

	if previous != nil && *previous == current {
		return plan
	}
	plan.Changed = true

	wasActive := previous != nil && models.IsActive(*previous)
	isActive := models.IsActive(current)

	plan.OpenSession = isActive && !wasActive
	plan.CloseSession = !isActive && wasActive
	return plan
}
