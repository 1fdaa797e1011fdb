// File: utils/constants.go
package utils

// SessionCachePrefix is the prefix used for Redis session keys.
const SessionCachePrefix = "careai:session:"

// HandoffQueueKey is the single Redis key holding the shared hand-off
// queue collection.
const HandoffQueueKey = "careai:handoff:queue"
