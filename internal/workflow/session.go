package workflow

import (
	"github.com/meridian-hooks/meridian/internal/hook"
	"github.com/meridian-hooks/meridian/internal/statestore"
)

// Keys dropped when a fresh session starts.
var startupKeys = []string{
	statestore.KeyActionCounter,
	statestore.KeyPreCompaction,
	statestore.KeyPlanMode,
	statestore.KeyPlanReviewBlocked,
	statestore.KeyPlanActionCounter,
	statestore.KeyDocsResearcher,
	statestore.KeyCodeReviewer,
}

// Keys dropped when the user clears the conversation. The plan counter
// survives so an in-progress plan keeps its review threshold.
var clearKeys = []string{
	statestore.KeyActionCounter,
	statestore.KeyPreCompaction,
	statestore.KeyPlanMode,
	statestore.KeyPlanReviewBlocked,
	statestore.KeyDocsResearcher,
	statestore.KeyCodeReviewer,
}

var sessionEndKeys = []string{
	statestore.KeyPlanActionCounter,
	statestore.KeyDocsResearcher,
	statestore.KeyCodeReviewer,
}

// Session cleans up ephemeral state at session boundaries and arms the
// gates that depend on them.
type Session struct {
	env        *Env
	compaction *PreCompaction
	ack        *ContextAck
}

// NewSession creates the session lifecycle handler.
func NewSession(env *Env, compaction *PreCompaction, ack *ContextAck) *Session {
	return &Session{env: env, compaction: compaction, ack: ack}
}

// Start handles SessionStart.
func (s *Session) Start(source string) hook.Decision {
	switch source {
	case hook.SourceStartup, "":
		s.drop(startupKeys)
	case hook.SourceClear:
		s.drop(clearKeys)
	}

	s.compaction.Rearm()
	s.ack.Arm()
	return hook.Allowed()
}

// End handles SessionEnd.
func (s *Session) End() hook.Decision {
	s.drop(sessionEndKeys)
	return hook.Allowed()
}

func (s *Session) drop(keys []string) {
	for _, key := range keys {
		s.env.Store.Delete(key)
	}
	s.env.Logger.Debug("session state cleaned", "keys", keys)
}
