package rg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeState_BackfillsMissingFields(t *testing.T) {
	st, err := DecodeState([]byte(`{"lossLimit": 100}`))
	require.NoError(t, err)
	assert.Equal(t, int64(0), st.BreakEndsAt)
	assert.Equal(t, 100.0, st.LossLimit)
	assert.Equal(t, 0.0, st.SessionLosses)
	assert.NotNil(t, st.BetHistory)
	assert.Empty(t, st.BetHistory)
}

func TestDecodeState_Corrupt(t *testing.T) {
	st, err := DecodeState([]byte(`{not json`))
	assert.Error(t, err)
	assert.Equal(t, DefaultState(), st)

	st, err = DecodeState([]byte(`{"betHistory": null}`))
	require.NoError(t, err)
	assert.Equal(t, DefaultState(), st)
}

func TestDecodeState_TrimsOversizedHistory(t *testing.T) {
	in := DefaultState()
	in.BetHistory = seq("NBA", repeat(ResultWin, MaxHistory+5)...)
	raw, err := EncodeState(in)
	require.NoError(t, err)

	st, err := DecodeState(raw)
	require.NoError(t, err)
	require.Len(t, st.BetHistory, MaxHistory)
	assert.Equal(t, "b5", st.BetHistory[0].ID)
}

func TestEncodeState_ExactFields(t *testing.T) {
	raw, err := EncodeState(SessionState{LossLimit: -1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"breakEndsAt":0,"lossLimit":-1,"sessionLosses":0,"betHistory":[]}`, string(raw))
}

func TestDerivedFlags(t *testing.T) {
	st := DefaultState()
	st.BreakEndsAt = 1_000

	assert.True(t, st.OnBreak(999))
	assert.False(t, st.OnBreak(1_000))
	assert.Equal(t, int64(1), st.BreakRemainingMs(999))
	assert.Equal(t, int64(0), st.BreakRemainingMs(5_000))

	st.SessionLosses = 50
	assert.False(t, st.LossLimitReached(), "no limit configured")
	st.LossLimit = 50
	assert.True(t, st.LossLimitReached())
	st.LossLimit = 0
	assert.False(t, st.LossLimitReached(), "zero limit never trips")
	st.LossLimit = -20
	assert.False(t, st.LossLimitReached())
}

func TestViewAt(t *testing.T) {
	st := DefaultState()
	st.BreakEndsAt = 10
	st.BetHistory = []BetRecord{bet(1, 10, ResultLoss, "NBA", 1), bet(2, 20, ResultLoss, "NBA", 2)}
	v := ViewAt(st, 4)
	assert.True(t, v.IsOnBreak)
	assert.Equal(t, int64(6), v.BreakRemainingMs)
	assert.True(t, v.IsChasingLosses)
	assert.False(t, v.IsLossLimitReached)
}
