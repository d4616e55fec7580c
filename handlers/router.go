package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handlers bundles every HTTP entry point of the relay.
type Handlers struct {
	Webhook      *WebhookHandler
	GitHubAuth   *GitHubAuthHandler
	SlackEvents  *SlackEventsHandler
	SlashCommand *SlashCommandHandler
	SlackInstall *SlackInstallHandler
}

// NewRouter wires the handlers onto a gin engine.
func NewRouter(h Handlers, log *zap.SugaredLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	r.POST("/webhooks/pull-request", h.Webhook.HandlePullRequest)

	r.GET("/github", h.GitHubAuth.HandleLanding)
	r.GET("/github-auth", h.GitHubAuth.HandleAuth)
	r.GET("/callback", h.GitHubAuth.HandleCallback)

	r.POST("/slack/events", h.SlackEvents.HandleEvents)
	r.POST("/slack/command", h.SlashCommand.HandleCommand)
	r.GET("/slack/install", h.SlackInstall.HandleInstall)
	r.GET("/slack/oauth", h.SlackInstall.HandleOAuth)

	return r
}

// RequestLogger logs one line per request, tagged with a request id.
func RequestLogger(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = c.GetHeader("X-GitHub-Delivery")
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		c.Next()

		fields := []interface{}{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Errorw("request", fields...)
			return
		}
		log.Infow("request", fields...)
	}
}
