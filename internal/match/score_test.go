package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sail-placements/sail/internal/model"
)

func TestWeightsNormalized(t *testing.T) {
	t.Run("arbitrary proportions scale to one", func(t *testing.T) {
		w := Weights{Preference: 2, Grade: 1, Statement: 1, Fit: 0}.Normalized()
		assert.InDelta(t, 0.5, w.Preference, 0.0001)
		assert.InDelta(t, 0.25, w.Grade, 0.0001)
		assert.InDelta(t, 0.25, w.Statement, 0.0001)
		assert.InDelta(t, 0.0, w.Fit, 0.0001)
	})

	t.Run("zero weights fall back to defaults", func(t *testing.T) {
		assert.Equal(t, DefaultWeights(), Weights{}.Normalized())
	})

	t.Run("defaults already sum to one", func(t *testing.T) {
		w := DefaultWeights()
		sum := w.Preference + w.Grade + w.Statement + w.Fit
		assert.InDelta(t, 1.0, sum, 0.0001)
	})
}

func TestPreferenceScore(t *testing.T) {
	assert.InDelta(t, 1.0, preferenceScore(1), 0.0001)
	assert.InDelta(t, 0.2, preferenceScore(5), 0.0001)
	assert.Zero(t, preferenceScore(0))
	assert.Zero(t, preferenceScore(6))
}

func TestFitScore(t *testing.T) {
	org := &model.Organization{Location: "Sacramento", WorkMode: model.WorkModeHybrid}

	t.Run("both dimensions match", func(t *testing.T) {
		a := &model.Applicant{
			LocationPreferences: []string{"Sacramento"},
			WorkModePreferences: []model.WorkMode{model.WorkModeHybrid},
		}
		assert.InDelta(t, 1.0, fitScore(a, org), 0.0001)
	})

	t.Run("one dimension matches", func(t *testing.T) {
		a := &model.Applicant{
			LocationPreferences: []string{"Fresno"},
			WorkModePreferences: []model.WorkMode{model.WorkModeHybrid},
		}
		assert.InDelta(t, 0.5, fitScore(a, org), 0.0001)
	})

	t.Run("neither dimension matches", func(t *testing.T) {
		a := &model.Applicant{
			LocationPreferences: []string{"Fresno"},
			WorkModePreferences: []model.WorkMode{model.WorkModeRemote},
		}
		assert.InDelta(t, 0.0, fitScore(a, org), 0.0001)
	})

	t.Run("no stated preference counts as compatible", func(t *testing.T) {
		a := &model.Applicant{}
		assert.InDelta(t, 1.0, fitScore(a, org), 0.0001)
	})
}
