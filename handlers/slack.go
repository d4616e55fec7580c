package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"slack-mention-relay/services"
)

// SlackInstallHandler adds the bot to a workspace.
type SlackInstallHandler struct {
	Installer services.SlackInstaller
	Dir       services.Directory
	Sessions  *services.SessionRegistry
	Log       *zap.SugaredLogger
}

func NewSlackInstallHandler(installer services.SlackInstaller, dir services.Directory, sessions *services.SessionRegistry, log *zap.SugaredLogger) *SlackInstallHandler {
	return &SlackInstallHandler{Installer: installer, Dir: dir, Sessions: sessions, Log: log}
}

func (h *SlackInstallHandler) HandleInstall(c *gin.Context) {
	c.Redirect(http.StatusFound, h.Installer.InstallURL(c.Query("state")))
}

// HandleOAuth stores the installed team and brings its bot online.
func (h *SlackInstallHandler) HandleOAuth(c *gin.Context) {
	if denied := c.Query("error"); denied != "" {
		c.String(http.StatusInternalServerError, "ERROR: "+denied)
		return
	}

	team, err := h.Installer.Install(c.Request.Context(), c.Query("code"))
	if err != nil {
		h.Log.Errorw("slack install failed", "error", err)
		c.String(http.StatusInternalServerError, "ERROR: "+err.Error())
		return
	}
	if err := h.Dir.SaveTeam(c.Request.Context(), team); err != nil {
		h.Log.Errorw("failed to save team", "team_id", team.SlackTeamID, "error", err)
		c.String(http.StatusInternalServerError, "ERROR: "+err.Error())
		return
	}
	h.Sessions.Register(*team)

	h.Log.Infow("slack team installed", "team_id", team.SlackTeamID, "team_name", team.TeamName)
	c.String(http.StatusOK, "Success!")
}
