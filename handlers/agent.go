// File: careai/handlers/agent.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	queueRepo "careai/database/repository/queue"
	"careai/models"
	"careai/services/handoff"
	"careai/utils"
)

// AgentLogin establishes a console identity. There is no credential check;
// the console trusts the operator's name and role.
func (hb *HandlerBundle) AgentLogin(c *gin.Context) {
	var input struct {
		Name string           `json:"name" binding:"required"`
		Role models.AgentRole `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	valid := false
	for _, role := range models.AgentRoles {
		if role == input.Role {
			valid = true
			break
		}
	}
	if !valid {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "unknown agent role")
		return
	}

	agent := models.Agent{
		ID:   uuid.New().String(),
		Name: input.Name,
		Role: input.Role,
	}
	getLogger(c).Info("Agent logged in",
		zap.String("agentId", agent.ID), zap.String("role", string(agent.Role)))
	c.JSON(http.StatusOK, agent)
}

// AgentLogout demotes any request the agent holds back to pending.
func (hb *HandlerBundle) AgentLogout(c *gin.Context) {
	agent, ok := bindAgent(c)
	if !ok {
		return
	}

	if err := hb.Console.Logout(c.Request.Context(), agent); err != nil {
		respondConsoleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetQueue returns the latest hand-off queue snapshot.
func (hb *HandlerBundle) GetQueue(c *gin.Context) {
	// Serve the poller's snapshot when available, to keep dashboard reads
	// cheap under many consoles.
	if hb.Poller != nil {
		c.JSON(http.StatusOK, gin.H{"queue": hb.Poller.Latest()})
		return
	}

	reqs, err := hb.Console.ListQueue(c.Request.Context())
	if err != nil {
		respondConsoleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue": reqs})
}

// ClaimHandoff takes ownership of a pending request.
func (hb *HandlerBundle) ClaimHandoff(c *gin.Context) {
	agent, ok := bindAgent(c)
	if !ok {
		return
	}

	req, err := hb.Console.Claim(c.Request.Context(), agent, c.Param("id"))
	if err != nil {
		respondConsoleError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// AgentMessage appends an agent reply to the live conversation.
func (hb *HandlerBundle) AgentMessage(c *gin.Context) {
	var input struct {
		Agent models.Agent `json:"agent" binding:"required"`
		Text  string       `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	req, err := hb.Console.Converse(c.Request.Context(), input.Agent, c.Param("id"), input.Text)
	if err != nil {
		respondConsoleError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// ResolveHandoff closes the request.
func (hb *HandlerBundle) ResolveHandoff(c *gin.Context) {
	agent, ok := bindAgent(c)
	if !ok {
		return
	}

	req, err := hb.Console.Resolve(c.Request.Context(), agent, c.Param("id"))
	if err != nil {
		respondConsoleError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// EscalateHandoff marks the request escalated to the ticketing system.
func (hb *HandlerBundle) EscalateHandoff(c *gin.Context) {
	agent, ok := bindAgent(c)
	if !ok {
		return
	}

	req, err := hb.Console.Escalate(c.Request.Context(), agent, c.Param("id"))
	if err != nil {
		respondConsoleError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func bindAgent(c *gin.Context) (models.Agent, bool) {
	var input struct {
		Agent models.Agent `json:"agent" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return models.Agent{}, false
	}
	if input.Agent.ID == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "agent.id is required")
		return models.Agent{}, false
	}
	return input.Agent, true
}

func respondConsoleError(c *gin.Context, err error) {
	var conflict *handoff.ClaimConflictError
	var terminal *handoff.TerminalRequestError
	var notOwner *handoff.NotOwnerError

	switch {
	case errors.Is(err, queueRepo.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, "handoff not found", err.Error())
	case errors.As(err, &conflict):
		utils.JSONError(c, http.StatusConflict, "claim conflict", err.Error())
	case errors.As(err, &terminal):
		utils.JSONError(c, http.StatusConflict, "request closed", err.Error())
	case errors.As(err, &notOwner):
		utils.JSONError(c, http.StatusForbidden, "not owner", err.Error())
	default:
		getLogger(c).Error("Agent request failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal error", err.Error())
	}
}
