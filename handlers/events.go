package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack/slackevents"
	"go.uber.org/zap"

	"slack-mention-relay/services"
)

// SlackEventsHandler answers direct messages sent to the bot through the Events API.
type SlackEventsHandler struct {
	Commands      *services.CommandRouter
	Dir           services.Directory
	Sessions      *services.SessionRegistry
	SigningSecret string
	Log           *zap.SugaredLogger

	pending sync.WaitGroup
}

func NewSlackEventsHandler(commands *services.CommandRouter, dir services.Directory, sessions *services.SessionRegistry, signingSecret string, log *zap.SugaredLogger) *SlackEventsHandler {
	return &SlackEventsHandler{
		Commands:      commands,
		Dir:           dir,
		Sessions:      sessions,
		SigningSecret: signingSecret,
		Log:           log,
	}
}

func (h *SlackEventsHandler) HandleEvents(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "failed to read request body")
		return
	}
	if !services.ValidateSlackRequest(c.Request.Header, body, h.SigningSecret) {
		h.Log.Warnw("invalid slack signature", "path", c.Request.URL.Path)
		c.String(http.StatusUnauthorized, "invalid slack signature")
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		h.Log.Warnw("cannot parse slack event", "error", err)
		c.String(http.StatusBadRequest, "invalid payload")
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			c.String(http.StatusBadRequest, "invalid payload")
			return
		}
		c.String(http.StatusOK, challenge.Challenge)
		return
	case slackevents.CallbackEvent:
		// Slack redelivers events it thinks timed out; the first delivery already answered.
		if c.GetHeader("X-Slack-Retry-Num") != "" {
			c.Status(http.StatusOK)
			return
		}
		if msg, ok := event.InnerEvent.Data.(*slackevents.MessageEvent); ok {
			h.handleMessage(c.Request.Context(), event.TeamID, msg)
		}
	}

	c.Status(http.StatusOK)
}

func (h *SlackEventsHandler) handleMessage(ctx context.Context, teamID string, msg *slackevents.MessageEvent) {
	if msg.ChannelType != "im" || msg.BotID != "" || msg.SubType != "" || msg.User == "" {
		return
	}

	team, err := h.Dir.GetTeam(ctx, teamID)
	if err != nil {
		h.Log.Warnw("message from unknown team", "team_id", teamID, "error", err)
		return
	}
	if msg.User == team.BotUserID {
		return
	}
	session := h.Sessions.Ensure(*team)
	cmd := services.Command{TeamID: teamID, UserID: msg.User, Text: msg.Text}

	// Slack wants the event acknowledged within three seconds; replies touching
	// GitHub can take longer.
	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		replyCtx := context.WithoutCancel(ctx)
		reply, ok := h.Commands.Handle(replyCtx, cmd)
		if !ok {
			return
		}
		if err := session.PostMessage(replyCtx, msg.Channel, reply); err != nil {
			h.Log.Errorw("failed to reply to direct message", "team_id", teamID, "channel", msg.Channel, "error", err)
		}
	}()
}

// Wait blocks until in-flight command replies have been posted.
func (h *SlackEventsHandler) Wait() {
	h.pending.Wait()
}
