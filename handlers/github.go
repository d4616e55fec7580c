package handlers

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"slack-mention-relay/services"
)

var landingPage = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html>
<head><title>Slack mention relay</title></head>
<body>
<p>Get a Slack message whenever a pull request mentions you.</p>
<p><a href="{{.}}">Log in with GitHub</a></p>
</body>
</html>
`))

// GitHubAuthHandler links Slack users to their GitHub accounts.
type GitHubAuthHandler struct {
	Linker *services.Linker
	Log    *zap.SugaredLogger
}

func NewGitHubAuthHandler(linker *services.Linker, log *zap.SugaredLogger) *GitHubAuthHandler {
	return &GitHubAuthHandler{Linker: linker, Log: log}
}

// HandleLanding renders a page with the login link for the user in the query.
func (h *GitHubAuthHandler) HandleLanding(c *gin.Context) {
	link := "/github-auth?" + c.Request.URL.RawQuery
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := landingPage.Execute(c.Writer, link); err != nil {
		h.Log.Errorw("failed to render landing page", "error", err)
	}
}

// HandleAuth redirects the browser to GitHub's authorize page.
func (h *GitHubAuthHandler) HandleAuth(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		userID = c.Query("id")
	}
	if userID == "" {
		c.String(http.StatusBadRequest, "missing user_id")
		return
	}

	c.Redirect(http.StatusFound, h.Linker.AuthURL(userID, c.Query("team_id")))
}

// HandleCallback finishes the GitHub OAuth flow.
func (h *GitHubAuthHandler) HandleCallback(c *gin.Context) {
	user, err := h.Linker.CompleteLink(c.Request.Context(), c.Query("code"), c.Query("state"))
	if err != nil {
		h.Log.Errorw("github oauth callback failed", "error", err)
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	h.Log.Infow("github token stored", "slack_user_id", user.SlackUserID, "team_id", user.SlackTeamID)
	c.String(http.StatusOK, "Your GitHub account is connected. You can close this window and go back to Slack.")
}
