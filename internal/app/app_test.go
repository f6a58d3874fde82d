package app

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freelancehub/platform_be/internal/config"
	"github.com/freelancehub/platform_be/internal/mailer"
	"github.com/freelancehub/platform_be/internal/testutil"
)

func TestNewLoggerLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger("debug").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("nonsense").GetLevel())
	_, ok := NewLogger("warn").Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)
}

func TestNewAndClose(t *testing.T) {
	log := testutil.NewLogger()
	a := New(config.Config{}, log, testutil.NewDB(t), nil, &mailer.LogMailer{Log: log})

	require.NotNil(t, a.Metrics)
	require.NotNil(t, a.Notifier)

	families, err := a.Registry.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["freelancehub_ws_connections"])

	assert.NoError(t, a.Close())
}
