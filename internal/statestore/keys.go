package statestore

import "path/filepath"

// Directory layout under the project root.
const (
	MeridianDir = ".meridian"
	StateDir    = ".state"
)

// State keys. Each is a file name inside the state directory.
const (
	KeyActionCounter     = "action-counter"
	KeyPlanActionCounter = "plan-action-counter"
	KeyPlanMode          = "plan-mode-state"
	KeyPlanReviewBlocked = "plan-review-blocked"
	KeyPreCompaction     = "pre-compaction-synced"
	KeyContextAck        = "context-acknowledgment-pending"
	KeyDocsResearcher    = "docs-researcher-active"
	KeyCodeReviewer      = "code-reviewer-active"
	KeyLoopState         = "loop-state"
	KeyActivePlan        = "active-plan"
	KeyActiveSubplan     = "active-subplan"
	KeyCurrentPlanAuto   = "current-plan-auto"
	KeyRestartSignal     = "restart-signal"
)

// Kind describes how a key's file is interpreted.
type Kind string

const (
	KindFlag    Kind = "flag"
	KindCounter Kind = "counter"
	KindMode    Kind = "mode"
	KindRecord  Kind = "record"
	KindPath    Kind = "path"
	KindRaw     Kind = "raw"
)

var keyKinds = map[string]Kind{
	KeyActionCounter:     KindCounter,
	KeyPlanActionCounter: KindCounter,
	KeyPlanMode:          KindMode,
	KeyPlanReviewBlocked: KindFlag,
	KeyPreCompaction:     KindFlag,
	KeyContextAck:        KindFlag,
	KeyDocsResearcher:    KindFlag,
	KeyCodeReviewer:      KindFlag,
	KeyLoopState:         KindRecord,
	KeyActivePlan:        KindPath,
	KeyActiveSubplan:     KindPath,
	KeyCurrentPlanAuto:   KindPath,
	KeyRestartSignal:     KindRaw,
}

// KindOf returns the kind of a known key, or KindRaw for anything else.
func KindOf(key string) Kind {
	if k, ok := keyKinds[key]; ok {
		return k
	}
	return KindRaw
}

// KnownKeys returns every key meridian reads or writes, in display order.
func KnownKeys() []string {
	return []string{
		KeyActionCounter,
		KeyPlanActionCounter,
		KeyPlanMode,
		KeyPlanReviewBlocked,
		KeyPreCompaction,
		KeyContextAck,
		KeyDocsResearcher,
		KeyCodeReviewer,
		KeyLoopState,
		KeyActivePlan,
		KeyActiveSubplan,
		KeyCurrentPlanAuto,
		KeyRestartSignal,
	}
}

// Dir returns the state directory for a project root.
func Dir(projectDir string) string {
	return filepath.Join(projectDir, MeridianDir, StateDir)
}
