// File: careai/handlers/bundle.go
package handlers

import (
	"careai/services/conversation"
	"careai/services/handoff"
)

// HandlerBundle groups the endpoint handlers' dependencies for one process.
// The member binary wires Conversation; the agent binary wires Console.
type HandlerBundle struct {
	Conversation conversation.Service
	Console      handoff.ConsoleService
	Poller       *handoff.Poller
}
