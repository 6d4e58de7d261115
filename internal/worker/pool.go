package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"slackpulse-backend/internal/models"
	"slackpulse-backend/internal/repository"
	"slackpulse-backend/internal/services"
)

const MeetingQueue = "queue:meeting-create"

// Pool consumes meeting-creation jobs enqueued by the Slack webhook. The
// webhook must acknowledge the slash command within Slack's 3-second window,
// so the Meet link is created out of band and posted back to the channel.
type Pool struct {
	redis       *redis.Client
	slack       *services.SlackService
	meet        *services.MeetService
	workspaces  *repository.WorkspaceRepo
	workerCount int
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	slack *services.SlackService,
	meet *services.MeetService,
	workspaces *repository.WorkspaceRepo,
	workerCount int,
) *Pool {
	return &Pool{
		redis:       redisClient,
		slack:       slack,
		meet:        meet,
		workspaces:  workspaces,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

// Queue is the producer side of the meeting job list. The webhook handler
// depends on its EnqueueMeeting method through a local interface, so tests
// can stand in a fake without a broker.
type Queue struct {
	redis *redis.Client
}

func NewQueue(redisClient *redis.Client) *Queue {
	return &Queue{redis: redisClient}
}

// EnqueueMeeting pushes a meeting job for the workers to pick up.
func (q *Queue) EnqueueMeeting(ctx context.Context, job models.MeetingJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.redis.RPush(ctx, MeetingQueue, payload).Err()
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	log.Printf("Started %d meeting worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	select {
	case <-p.stopChan:
		return
	default:
		close(p.stopChan)
	}
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Meeting worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, MeetingQueue).Result()
		if err != nil {
			continue // Timeout or error, retry
		}
		if len(result) < 2 {
			continue
		}

		var job models.MeetingJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Meeting worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("meeting_lock:%s", job.ID)
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Meeting worker %d: processing job %s for channel %s", id, job.ID, job.ChannelID)
		p.process(ctx, job)
	}
}

func (p *Pool) process(ctx context.Context, job models.MeetingJob) {
	workspace, err := p.workspaces.Get(ctx, job.WorkspaceID)
	if err != nil || workspace == nil {
		log.Printf("meeting job %s: unknown workspace %s: %v", job.ID, job.WorkspaceID, err)
		return
	}

	link, err := p.meet.CreateMeeting(ctx, job.Topic)
	if err != nil {
		log.Printf("meeting job %s: create meet link: %v", job.ID, err)
		p.postFallback(ctx, workspace.BotToken, job)
		return
	}

	text := fmt.Sprintf("<@%s> started a meeting: %s", job.UserID, link)
	if job.Topic != "" {
		text = fmt.Sprintf("<@%s> started a meeting (%s): %s", job.UserID, job.Topic, link)
	}
	if err := p.slack.PostMessage(ctx, workspace.BotToken, job.ChannelID, text); err != nil {
		log.Printf("meeting job %s: post message: %v", job.ID, err)
	}
}

func (p *Pool) postFallback(ctx context.Context, token string, job models.MeetingJob) {
	text := fmt.Sprintf("<@%s> sorry, the meeting link could not be created. Please try again.", job.UserID)
	if err := p.slack.PostMessage(ctx, token, job.ChannelID, text); err != nil {
		log.Printf("meeting job %s: post fallback: %v", job.ID, err)
	}
}
