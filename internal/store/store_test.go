package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileStartsFresh(t *testing.T) {
	t.Parallel()

	st := New(filepath.Join(t.TempDir(), "bot_state.json"))
	_, found, err := st.Load()
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bot_state.json")
	st := New(path)

	state := PersistedState{
		AccountBalance:    10234.5,
		CurrentEquity:     10180.2,
		AllTimeHighEquity: 10500,
		TotalTrades:       17,
		ProfitableDays:    4,
		TradingDays:       []string{"2025-03-03", "2025-03-04"},
		TotalProfit:       180.2,
		ConsecutiveLosses: 1,
	}
	require.NoError(t, st.Save(state))

	loaded, found, err := st.Load()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, state, loaded)

	// No temp file left behind.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestLoad_CorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bot_state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, _, err := New(path).Load()
	assert.Error(t, err)
}
