package models

import "time"

// HandoffStatus is the lifecycle state of a hand-off request.
type HandoffStatus string

const (
	HandoffPending   HandoffStatus = "pending"
	HandoffActive    HandoffStatus = "active"
	HandoffResolved  HandoffStatus = "resolved"
	HandoffEscalated HandoffStatus = "escalated"
)

// Terminal reports whether no further mutation of the request is permitted
// by the protocol. The store itself does not enforce this.
func (s HandoffStatus) Terminal() bool {
	return s == HandoffResolved || s == HandoffEscalated
}

// AgentRole is the closed set of roles an agent may log in with.
type AgentRole string

const (
	RoleCustomerService  AgentRole = "Customer Service"
	RolePhysician        AgentRole = "Physician"
	RoleAdviceNurse      AgentRole = "Advice Nurse"
	RolePharmacist       AgentRole = "Pharmacist"
	RoleTechnicalSupport AgentRole = "Technical Support"
)

// AgentRoles lists every role the console accepts at login.
var AgentRoles = []AgentRole{
	RoleCustomerService,
	RolePhysician,
	RoleAdviceNurse,
	RolePharmacist,
	RoleTechnicalSupport,
}

// Agent identifies an agent-console operator. No authentication is attached.
type Agent struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Role AgentRole `json:"role"`
}

// HandoffRequest is one record in the shared hand-off queue. It is created
// pending by the member side, claimed and driven to a terminal status by
// the agent side, and never deleted in normal operation.
type HandoffRequest struct {
	ID            string        `bson:"id" json:"id"`
	UserID        string        `bson:"userId" json:"userId"`
	UserName      string        `bson:"userName,omitempty" json:"userName,omitempty"`
	HandoffReason string        `bson:"handoffReason,omitempty" json:"handoffReason,omitempty"`
	Timestamp     time.Time     `bson:"timestamp" json:"timestamp"`
	Status        HandoffStatus `bson:"status" json:"status"`

	// InitialMessages is the history snapshot taken at creation;
	// CurrentConversation starts as the same snapshot and grows with
	// agent and member turns after the claim.
	InitialMessages     []ChatMessage `bson:"initialMessages" json:"initialMessages"`
	CurrentConversation []ChatMessage `bson:"currentConversation" json:"currentConversation"`

	// AgentID/AgentRole are set while the request is active. At creation
	// AgentRole carries the target role implied by the triggering intent.
	AgentID        string `bson:"agentId,omitempty" json:"agentId,omitempty"`
	AgentRole      string `bson:"agentRole,omitempty" json:"agentRole,omitempty"`
	OriginalIntent string `bson:"originalIntent,omitempty" json:"originalIntent,omitempty"`
}

// OwnedBy reports whether the request is actively held by the given agent.
func (h *HandoffRequest) OwnedBy(agentID string) bool {
	return h.Status == HandoffActive && h.AgentID == agentID
}
