package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v71/github"
	"go.uber.org/zap"

	"slack-mention-relay/services"
)

const pullRequestEvent = "pull_request"

// WebhookHandler receives the pull_request hooks registered by the repo command.
type WebhookHandler struct {
	Relay  *services.Relay
	Secret string
	Log    *zap.SugaredLogger
}

func NewWebhookHandler(relay *services.Relay, secret string, log *zap.SugaredLogger) *WebhookHandler {
	return &WebhookHandler{Relay: relay, Secret: secret, Log: log}
}

// HandlePullRequest relays the description of a pull request to every linked
// Slack user it mentions in the team named by ?slack_team_id. The team is only
// required once the description mentions someone.
func (h *WebhookHandler) HandlePullRequest(c *gin.Context) {
	teamID := c.Query("slack_team_id")

	// an empty secret skips signature validation
	payload, err := github.ValidatePayload(c.Request, []byte(h.Secret))
	if err != nil {
		h.Log.Warnw("rejected webhook payload", "team_id", teamID, "error", err)
		c.String(http.StatusBadRequest, "invalid payload")
		return
	}

	eventType := github.WebHookType(c.Request)
	if eventType == "" {
		eventType = pullRequestEvent
	}
	if eventType != pullRequestEvent {
		h.Log.Debugw("ignoring webhook event", "team_id", teamID, "event", eventType)
		c.String(http.StatusOK, "")
		return
	}

	event, err := github.ParseWebHook(eventType, payload)
	if err != nil {
		c.String(http.StatusBadRequest, "cannot parse webhook")
		return
	}
	e, ok := event.(*github.PullRequestEvent)
	if !ok || e.PullRequest == nil {
		c.String(http.StatusBadRequest, "payload has no pull_request")
		return
	}
	if !h.Relay.AllowsAction(e.GetAction()) {
		c.String(http.StatusOK, "")
		return
	}

	result, err := h.Relay.Notify(c.Request.Context(), teamID, e.GetPullRequest().GetBody())
	if errors.Is(err, services.ErrMissingTeam) {
		c.String(http.StatusBadRequest, "missing slack_team_id")
		return
	}
	if errors.Is(err, services.ErrNotFound) {
		c.String(http.StatusNotFound, "unknown team")
		return
	}
	if err != nil {
		h.Log.Errorw("failed to relay pull request", "team_id", teamID, "pr", e.GetPullRequest().GetHTMLURL(), "error", err)
		c.String(http.StatusInternalServerError, "relay failed")
		return
	}
	if !result.Notified() {
		c.String(http.StatusOK, "")
		return
	}

	pr := e.GetPullRequest().GetHTMLURL()
	go func() {
		report := result.Delivery.Wait()
		h.Log.Infow("pull request delivery finished",
			"team_id", teamID, "pr", pr, "total", report.Total, "sent", report.Sent, "failed", report.Failed)
	}()

	c.String(http.StatusOK, "done")
}
