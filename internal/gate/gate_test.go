package gate

import (
	"testing"

	"github.com/relgate/relgate/internal/trigger"
	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name           string
		event          trigger.Event
		wantStaging    bool
		wantProduction bool
	}{
		{
			name:           "release published goes to production",
			event:          trigger.Event{Kind: trigger.KindReleasePublished},
			wantStaging:    false,
			wantProduction: true,
		},
		{
			name:           "release published ignores a stray flag",
			event:          trigger.Event{Kind: trigger.KindReleasePublished, RawTestPyPI: "true"},
			wantStaging:    false,
			wantProduction: true,
		},
		{
			name:           "manual dispatch with test_pypi true goes to staging",
			event:          trigger.Event{Kind: trigger.KindManualDispatch, RawTestPyPI: "true"},
			wantStaging:    true,
			wantProduction: false,
		},
		{
			name:           "manual dispatch with flag unset defaults to staging",
			event:          trigger.Event{Kind: trigger.KindManualDispatch},
			wantStaging:    true,
			wantProduction: false,
		},
		{
			name:           "manual dispatch with test_pypi false goes to production",
			event:          trigger.Event{Kind: trigger.KindManualDispatch, RawTestPyPI: "false"},
			wantStaging:    false,
			wantProduction: true,
		},
		{
			name:           "manual dispatch with unrecognized flag publishes nowhere",
			event:          trigger.Event{Kind: trigger.KindManualDispatch, RawTestPyPI: "True"},
			wantStaging:    false,
			wantProduction: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selection := Decide(tt.event)

			// Build is selected for every trigger kind, unconditionally.
			assert.True(t, selection.Build, "build must always be selected")

			assert.Equal(t, tt.wantStaging, selection.StagingPublish, "staging selection")
			assert.Equal(t, tt.wantProduction, selection.ProductionPublish, "production selection")

			// At most one publish stage per event.
			assert.False(t, selection.StagingPublish && selection.ProductionPublish,
				"staging and production must be mutually exclusive")
		})
	}
}

func TestSelectionStagesOrder(t *testing.T) {
	selection := Decide(trigger.Event{Kind: trigger.KindManualDispatch, RawTestPyPI: "false"})

	stages := selection.Stages()
	if len(stages) != 2 {
		t.Fatalf("Stages() returned %d stages, want 2", len(stages))
	}
	if stages[0] != StageBuild {
		t.Errorf("stages[0] = %q, want %q", stages[0], StageBuild)
	}
	if stages[1] != StageProductionPublish {
		t.Errorf("stages[1] = %q, want %q", stages[1], StageProductionPublish)
	}
}

func TestSelectionSelected(t *testing.T) {
	selection := Selection{Build: true, StagingPublish: true}

	assert.True(t, selection.Selected(StageBuild))
	assert.True(t, selection.Selected(StageStagingPublish))
	assert.False(t, selection.Selected(StageProductionPublish))
	assert.False(t, selection.Selected(StageID("deploy")))
}
