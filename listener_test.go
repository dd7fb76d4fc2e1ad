package descent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/descentlang/descent"
)

func TestLogListener_WritesReports(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.ErrorLevel)
	p := descent.New(xyzGrammar(t),
		descent.WithListeners(descent.NewLogListener(zap.New(core))))

	require.NoError(t, p.Parse(descent.StreamOf(tok(tX, "x"), tok(tZ, "z")), "a"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "syntax error", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Contains(t, fields["msg"], "missing 'y'")
	assert.Equal(t, "'z'", fields["token"])
}

func TestListeners_FanOutInOrder(t *testing.T) {
	t.Parallel()

	var first, second descent.CollectListener
	p := descent.New(xyzGrammar(t), descent.WithListeners(&first, &second))

	require.NoError(t, p.Parse(descent.StreamOf(tok(tX, "x"), tok(tZ, "z")), "a"))

	assert.Equal(t, 1, first.Count())
	assert.Equal(t, 1, second.Count())
}
