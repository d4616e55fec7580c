package services

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"slack-mention-relay/models"
)

// Dispatcher sends a pull request body to each delivery target as a direct message.
type Dispatcher struct {
	// Dedupe sends one message per distinct Slack user rather than one per match.
	Dedupe  bool
	limiter *rate.Limiter
	log     *zap.SugaredLogger
}

// NewDispatcher paces outbound messages at perSecond with the given burst.
// perSecond <= 0 disables pacing.
func NewDispatcher(perSecond float64, burst int, dedupe bool, log *zap.SugaredLogger) *Dispatcher {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &Dispatcher{
		Dedupe:  dedupe,
		limiter: rate.NewLimiter(limit, burst),
		log:     log,
	}
}

// Delivery tracks one fan-out. Each recipient is an independent send.
type Delivery struct {
	Total int

	issued  sync.WaitGroup
	settled sync.WaitGroup
	sent    atomic.Int32
	failed  atomic.Int32
}

// DeliveryReport summarises a finished delivery.
type DeliveryReport struct {
	Total  int
	Sent   int
	Failed int
}

// Wait blocks until every send has finished, successfully or not.
func (d *Delivery) Wait() DeliveryReport {
	d.settled.Wait()
	return DeliveryReport{
		Total:  d.Total,
		Sent:   int(d.sent.Load()),
		Failed: int(d.failed.Load()),
	}
}

// Dispatch starts one send per target and returns once all of them have been
// issued, before any pacing delay. Sends outlive ctx's cancellation so the HTTP response can go out
// while slow recipients are still in flight; call Wait on the result to join them.
func (d *Dispatcher) Dispatch(ctx context.Context, session ChatSession, targets []models.UserRecord, body string) *Delivery {
	if d.Dedupe {
		targets = UniqueRecipients(targets)
	}

	delivery := &Delivery{Total: len(targets)}
	delivery.issued.Add(len(targets))
	delivery.settled.Add(len(targets))

	sendCtx := context.WithoutCancel(ctx)
	for _, target := range targets {
		go d.send(sendCtx, delivery, session, target, body)
	}

	delivery.issued.Wait()
	return delivery
}

func (d *Dispatcher) send(ctx context.Context, delivery *Delivery, session ChatSession, target models.UserRecord, body string) {
	defer delivery.settled.Done()
	delivery.issued.Done()

	// pacing happens after the issue count so it never delays the caller
	if err := d.limiter.Wait(ctx); err != nil {
		delivery.failed.Add(1)
		d.log.Warnw("delivery not paced", "slack_user_id", target.SlackUserID, "error", err)
		return
	}

	channelID, err := session.OpenDirectMessage(ctx, target.SlackUserID)
	if err != nil {
		delivery.failed.Add(1)
		d.log.Warnw("failed to open direct message", "slack_user_id", target.SlackUserID, "error", err)
		return
	}
	if err := session.PostMessage(ctx, channelID, body); err != nil {
		delivery.failed.Add(1)
		d.log.Warnw("failed to deliver pull request message", "slack_user_id", target.SlackUserID, "channel", channelID, "error", err)
		return
	}

	delivery.sent.Add(1)
	d.log.Debugw("pull request message delivered", "slack_user_id", target.SlackUserID, "github_username", target.GithubUsername)
}
