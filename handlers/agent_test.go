package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	queueRepo "careai/database/repository/queue"
	"careai/models"
	"careai/services/handoff"
)

func newAgentRouter(t *testing.T) (*gin.Engine, *queueRepo.MemoryRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := queueRepo.NewMemoryRepo()
	hb := &HandlerBundle{Console: handoff.NewConsoleService(repo)}

	r := gin.New()
	api := r.Group("/api/agent")
	api.POST("/login", hb.AgentLogin)
	api.POST("/logout", hb.AgentLogout)
	api.GET("/queue", hb.GetQueue)
	api.POST("/handoff/:id/claim", hb.ClaimHandoff)
	api.POST("/handoff/:id/message", hb.AgentMessage)
	api.POST("/handoff/:id/resolve", hb.ResolveHandoff)
	api.POST("/handoff/:id/escalate", hb.EscalateHandoff)
	return r, repo
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAgentLoginIssuesIdentity(t *testing.T) {
	r, _ := newAgentRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/agent/login",
		gin.H{"name": "Alice", "role": "Pharmacist"})
	require.Equal(t, http.StatusOK, w.Code)

	var agent models.Agent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &agent))
	assert.NotEmpty(t, agent.ID)
	assert.Equal(t, "Alice", agent.Name)
	assert.Equal(t, models.RolePharmacist, agent.Role)
}

func TestAgentLoginRejectsUnknownRole(t *testing.T) {
	r, _ := newAgentRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/agent/login",
		gin.H{"name": "Alice", "role": "Wizard"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClaimFlowOverHTTP(t *testing.T) {
	r, repo := newAgentRouter(t)
	require.NoError(t, repo.Append(context.Background(), models.HandoffRequest{
		ID:     "req-1",
		UserID: "user-1",
		Status: models.HandoffPending,
	}))

	alice := models.Agent{ID: "agent-a", Name: "Alice", Role: models.RoleCustomerService}
	bob := models.Agent{ID: "agent-b", Name: "Bob", Role: models.RoleCustomerService}

	w := doJSON(t, r, http.MethodPost, "/api/agent/handoff/req-1/claim", gin.H{"agent": alice})
	require.Equal(t, http.StatusOK, w.Code)

	// Second claimant loses with a conflict.
	w = doJSON(t, r, http.MethodPost, "/api/agent/handoff/req-1/claim", gin.H{"agent": bob})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Non-owner message is forbidden.
	w = doJSON(t, r, http.MethodPost, "/api/agent/handoff/req-1/message",
		gin.H{"agent": bob, "text": "hi"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Owner converses and resolves.
	w = doJSON(t, r, http.MethodPost, "/api/agent/handoff/req-1/message",
		gin.H{"agent": alice, "text": "How can I help?"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/agent/handoff/req-1/resolve", gin.H{"agent": alice})
	require.Equal(t, http.StatusOK, w.Code)

	var resolved models.HandoffRequest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resolved))
	assert.Equal(t, models.HandoffResolved, resolved.Status)
	require.Len(t, resolved.CurrentConversation, 1)
	assert.Equal(t, "How can I help?", resolved.CurrentConversation[0].Text)

	// Resolving again reports the request as closed.
	w = doJSON(t, r, http.MethodPost, "/api/agent/handoff/req-1/resolve", gin.H{"agent": alice})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestClaimUnknownRequestIs404(t *testing.T) {
	r, _ := newAgentRouter(t)
	alice := models.Agent{ID: "agent-a", Name: "Alice", Role: models.RoleCustomerService}

	w := doJSON(t, r, http.MethodPost, "/api/agent/handoff/nope/claim", gin.H{"agent": alice})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetQueueListsRequests(t *testing.T) {
	r, repo := newAgentRouter(t)
	require.NoError(t, repo.Append(context.Background(), models.HandoffRequest{
		ID: "req-1", Status: models.HandoffPending,
	}))

	w := doJSON(t, r, http.MethodGet, "/api/agent/queue", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Queue []models.HandoffRequest `json:"queue"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Queue, 1)
	assert.Equal(t, "req-1", body.Queue[0].ID)
}
