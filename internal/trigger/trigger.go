// Package trigger models the external event that starts a release pipeline
// run: either a published release or a manual dispatch carrying a single
// test_pypi input.
package trigger

import (
	"fmt"
	"os"

	"github.com/relgate/relgate/internal/errors"
)

// Kind identifies the kind of event that started a pipeline run.
type Kind string

const (
	// KindReleasePublished is emitted when a release is published.
	KindReleasePublished Kind = "release-published"

	// KindManualDispatch is a manually requested run. It carries the
	// test_pypi input.
	KindManualDispatch Kind = "manual-dispatch"
)

// Flag values for the test_pypi input. The invoking platform serializes
// workflow inputs as strings, so the flag is compared as a string rather
// than parsed into a bool.
const (
	FlagTrue  = "true"
	FlagFalse = "false"
)

// DefaultTestPyPI is applied when a manual dispatch omits the test_pypi input.
const DefaultTestPyPI = FlagTrue

// Event is an immutable trigger event supplied by the invoking platform.
type Event struct {
	Kind Kind

	// TestPyPI is the raw test_pypi input of a manual dispatch. Empty means
	// unset; callers should read it through the TestPyPI() accessor, which
	// applies the default.
	RawTestPyPI string
}

// TestPyPI returns the test_pypi input with the default applied.
func (e Event) TestPyPI() string {
	if e.RawTestPyPI == "" {
		return DefaultTestPyPI
	}
	return e.RawTestPyPI
}

// ParseKind maps a trigger name to a Kind. Both the canonical names and the
// event names used by the hosted CI platform are accepted.
func ParseKind(s string) (Kind, error) {
	switch s {
	case string(KindReleasePublished), "release":
		return KindReleasePublished, nil
	case string(KindManualDispatch), "manual", "workflow_dispatch":
		return KindManualDispatch, nil
	default:
		return "", fmt.Errorf("%w: %q", errors.ErrUnknownTriggerKind, s)
	}
}

// FromEnv reconstructs the trigger event from the CI environment, so the
// binary can run inside a workflow job with no flags. GITHUB_EVENT_NAME
// carries the event kind and INPUT_TEST_PYPI the serialized dispatch input.
func FromEnv() (Event, error) {
	name := os.Getenv("GITHUB_EVENT_NAME")
	if name == "" {
		return Event{}, fmt.Errorf("%w: GITHUB_EVENT_NAME is not set", errors.ErrUnknownTriggerKind)
	}

	kind, err := ParseKind(name)
	if err != nil {
		return Event{}, err
	}

	return Event{
		Kind:        kind,
		RawTestPyPI: os.Getenv("INPUT_TEST_PYPI"),
	}, nil
}
