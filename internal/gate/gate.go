// Package gate implements the release gate: a pure decision function from a
// trigger event to the set of pipeline stages that should run.
//
// The rules are deliberately mutually exclusive: a published release must
// never also hit the staging index, and a manual staging test must never
// accidentally touch production.
package gate

import (
	"github.com/relgate/relgate/internal/trigger"
)

// StageID identifies a gated pipeline stage.
type StageID string

const (
	StageBuild             StageID = "build"
	StageStagingPublish    StageID = "publish-staging"
	StageProductionPublish StageID = "publish-production"
)

// Selection is the outcome of a gate decision. Build is always selected; at
// most one of the publish stages is.
type Selection struct {
	Build             bool
	StagingPublish    bool
	ProductionPublish bool
}

// Selected reports whether the given stage is part of the selection.
func (s Selection) Selected(id StageID) bool {
	switch id {
	case StageBuild:
		return s.Build
	case StageStagingPublish:
		return s.StagingPublish
	case StageProductionPublish:
		return s.ProductionPublish
	default:
		return false
	}
}

// Stages returns the selected stage IDs in dependency order.
func (s Selection) Stages() []StageID {
	ids := make([]StageID, 0, 3)
	if s.Build {
		ids = append(ids, StageBuild)
	}
	if s.StagingPublish {
		ids = append(ids, StageStagingPublish)
	}
	if s.ProductionPublish {
		ids = append(ids, StageProductionPublish)
	}
	return ids
}

// Decide evaluates the release gate for a trigger event.
//
// Build runs unconditionally. StagingPublish runs only for a manual dispatch
// whose test_pypi input is the string "true" (the unset default). Production
// runs for every published release, and for a manual dispatch that explicitly
// set test_pypi to "false". The inputs arrive serialized as strings, so the
// comparison is against the literals "true" and "false"; any other value
// selects neither publish stage.
func Decide(event trigger.Event) Selection {
	selection := Selection{Build: true}

	flag := event.TestPyPI()

	switch event.Kind {
	case trigger.KindReleasePublished:
		selection.ProductionPublish = true
	case trigger.KindManualDispatch:
		switch flag {
		case trigger.FlagTrue:
			selection.StagingPublish = true
		case trigger.FlagFalse:
			selection.ProductionPublish = true
		}
	}

	return selection
}
