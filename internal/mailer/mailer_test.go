package mailer

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordResetMail(t *testing.T) {
	m, err := PasswordReset("ana@example.com", "ana", "https://app.example/reset/abc", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", m.To)
	assert.Equal(t, "Password Reset Request", m.Subject)
	assert.Contains(t, m.Text, "https://app.example/reset/abc")
	assert.Contains(t, m.Text, "1 hour")
	assert.Contains(t, m.HTML, `href="https://app.example/reset/abc"`)
}

func TestNewMessageMailEscapesHTML(t *testing.T) {
	m, err := NewMessage("bob@example.com", "bob", "ana", "<b>hi</b>", "see <script>", "https://app.example/m/1")
	require.NoError(t, err)

	assert.Equal(t, "New message from ana", m.Subject)
	assert.Contains(t, m.Text, "<b>hi</b>")
	assert.NotContains(t, m.HTML, "<script>")
	assert.Contains(t, m.HTML, "&lt;script&gt;")
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "2 hours", humanDuration(2*time.Hour))
	assert.Equal(t, "30 minutes", humanDuration(30*time.Minute))
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})

	require.NoError(t, (&LogMailer{Log: l}).Send(context.Background(), Mail{To: "x@example.com", Subject: "s", Text: "body"}))
	assert.Contains(t, buf.String(), `"to":"x@example.com"`)
}
