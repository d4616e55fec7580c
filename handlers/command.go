package handlers

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"slack-mention-relay/services"
)

const commandUsage = "Try `login to github` or `repo:<name>`"

// SlashCommandHandler serves the same commands as the direct message handler
// as a slash command, replying in the HTTP response.
type SlashCommandHandler struct {
	Commands      *services.CommandRouter
	SigningSecret string
	Log           *zap.SugaredLogger
}

func NewSlashCommandHandler(commands *services.CommandRouter, signingSecret string, log *zap.SugaredLogger) *SlashCommandHandler {
	return &SlashCommandHandler{Commands: commands, SigningSecret: signingSecret, Log: log}
}

func (h *SlashCommandHandler) HandleCommand(c *gin.Context) {
	bodyBytes, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "failed to read request body")
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	if !services.ValidateSlackRequest(c.Request.Header, bodyBytes, h.SigningSecret) {
		h.Log.Warnw("invalid slack signature", "path", c.Request.URL.Path)
		c.String(http.StatusUnauthorized, "invalid slack signature")
		return
	}

	s, err := slack.SlashCommandParse(c.Request)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid command")
		return
	}

	reply, ok := h.Commands.Handle(c.Request.Context(), services.Command{
		TeamID: s.TeamID,
		UserID: s.UserID,
		Text:   s.Text,
	})
	if !ok {
		reply = commandUsage
	}
	c.String(http.StatusOK, reply)
}
