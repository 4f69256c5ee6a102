package maturity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conformeahq/conformea/pkg/models"
)

func TestStoreGetDefaultDoesNotMutate(t *testing.T) {
	st := NewStore(testSpec())

	r := st.Get("A.1")
	assert.Equal(t, "A.1", r.ControlID)
	assert.Equal(t, Level("initial"), r.CurrentLevel)
	assert.Equal(t, Level("defined"), r.TargetLevel)
	assert.Equal(t, StatusNotImplemented, r.Status)
	assert.Empty(t, r.Evidence)
	assert.Empty(t, r.Gaps)

	// Reading a default never inserts it.
	assert.False(t, st.Has("A.1"))
	assert.Zero(t, st.Len())
}

func TestStoreApplyFieldwise(t *testing.T) {
	st := NewStore(testSpec())

	level := Level("managed")
	require.NoError(t, st.Apply("A.1", ResponseUpdate{CurrentLevel: &level}))

	evidence := "Procédure documentée et approuvée"
	require.NoError(t, st.Apply("A.1", ResponseUpdate{Evidence: &evidence}))

	// The second edit must not clobber the first field.
	r := st.Get("A.1")
	assert.Equal(t, Level("managed"), r.CurrentLevel)
	assert.Equal(t, evidence, r.Evidence)
	assert.True(t, st.Has("A.1"))
}

func TestStoreApplyValidation(t *testing.T) {
	st := NewStore(testSpec())

	t.Run("unknown control", func(t *testing.T) {
		level := Level("managed")
		err := st.Apply("X.1", ResponseUpdate{CurrentLevel: &level})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("branch is not assessable", func(t *testing.T) {
		level := Level("managed")
		err := st.Apply("A", ResponseUpdate{CurrentLevel: &level})
		var valErr *models.ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Equal(t, "controlId", valErr.Field)
	})

	t.Run("unknown level", func(t *testing.T) {
		level := Level("transcendent")
		err := st.Apply("A.1", ResponseUpdate{CurrentLevel: &level})
		var valErr *models.ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Equal(t, "currentLevel", valErr.Field)
	})

	t.Run("unknown status", func(t *testing.T) {
		status := ImplementationStatus("maybe")
		err := st.Apply("A.1", ResponseUpdate{Status: &status})
		var valErr *models.ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Equal(t, "status", valErr.Field)
	})

	// Failed edits leave the store untouched.
	assert.Zero(t, st.Len())
}

func TestStoreGapsSplitPerLine(t *testing.T) {
	st := NewStore(testSpec())

	text := "Pas de revue formelle\n\n  Absence de journalisation  \nPas de sensibilisation"
	require.NoError(t, st.Apply("A.1", ResponseUpdate{GapsText: &text}))

	r := st.Get("A.1")
	assert.Equal(t, []string{
		"Pas de revue formelle",
		"Absence de journalisation",
		"Pas de sensibilisation",
	}, r.Gaps)
}

func TestStoreIsComplete(t *testing.T) {
	st := NewStore(testSpec())

	assert.False(t, st.IsComplete("A.1"), "unanswered control is incomplete")

	status := StatusPartial
	require.NoError(t, st.Apply("A.1", ResponseUpdate{Status: &status}))
	assert.False(t, st.IsComplete("A.1"), "no evidence yet")

	evidence := "Capture d'écran du paramétrage"
	require.NoError(t, st.Apply("A.1", ResponseUpdate{Evidence: &evidence}))
	assert.True(t, st.IsComplete("A.1"))

	blank := "   "
	require.NoError(t, st.Apply("A.1", ResponseUpdate{Evidence: &blank}))
	assert.False(t, st.IsComplete("A.1"), "blank evidence does not count")
}

func TestStoreCompletionRatio(t *testing.T) {
	st := NewStore(testSpec())

	ratio, err := st.CompletionRatio("")
	require.NoError(t, err)
	assert.Zero(t, ratio)

	evidence := "Preuve"
	require.NoError(t, st.Apply("A.1", ResponseUpdate{Evidence: &evidence}))
	require.NoError(t, st.Apply("A.2", ResponseUpdate{Evidence: &evidence}))

	ratio, err = st.CompletionRatio("A")
	require.NoError(t, err)
	assert.Equal(t, 1.0, ratio)

	ratio, err = st.CompletionRatio("")
	require.NoError(t, err)
	assert.Equal(t, 0.5, ratio)

	_, err = st.CompletionRatio("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreReset(t *testing.T) {
	st := NewStore(testSpec())
	answer(st, "A.1", "managed", "optimized")
	require.Equal(t, 1, st.Len())

	st.Reset()
	assert.Zero(t, st.Len())
	assert.False(t, st.Has("A.1"))
}

func TestStorePutRoundTrip(t *testing.T) {
	st := NewStore(testSpec())
	original := Response{
		ControlID:    "B.1",
		CurrentLevel: "defined",
		TargetLevel:  "optimized",
		Status:       StatusPartial,
		Evidence:     "Matrice d'habilitation",
		Gaps:         []string{"Comptes génériques encore actifs"},
		Comment:      "Revue prévue au T3",
	}
	require.NoError(t, st.Put(original))
	assert.Equal(t, original, st.Get("B.1"))
}
