package chat

import (
	"testing"
	"time"

	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderStudentTranscript(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output, err := Render(domain.Conversation{
		Role:    domain.RoleStudent,
		Context: domain.ContextSelf,
		Messages: []domain.Message{
			{ID: 1, Sender: domain.SenderBot, Text: domain.StudentWelcomeText, CreatedAt: now.Add(-3 * time.Hour)},
			{ID: 2, Sender: domain.SenderUser, Text: "scholarships for me?", CreatedAt: now.Add(-10 * time.Minute)},
			{ID: 3, Sender: domain.SenderBot, Text: "Error: Federated engine offline", CreatedAt: now.Add(-10 * time.Second)},
		},
	}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "Student chat")
	assert.Contains(t, output, "messages: 3")
	assert.Contains(t, output, "3 hours ago")
	assert.Contains(t, output, "10 minutes ago")
	assert.Contains(t, output, "just now")
	assert.Contains(t, output, "You")
	assert.Contains(t, output, "Error: Federated engine offline")
	assert.NotContains(t, output, "thinking")
}

func TestRenderAdminTailWhileSending(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output, err := Render(domain.Conversation{
		Role:    domain.RoleAdmin,
		Context: domain.StudentContext(7),
		Messages: []domain.Message{
			{ID: 1, Sender: domain.SenderBot, Text: "first answer", CreatedAt: now},
			{ID: 2, Sender: domain.SenderUser, Text: "second question", CreatedAt: now},
		},
	}, RenderOptions{Now: now, Tail: 1, State: domain.QuerySending})

	require.NoError(t, err)
	assert.Contains(t, output, "Admin chat (student 7)")
	assert.NotContains(t, output, "first answer")
	assert.Contains(t, output, "second question")
	assert.Contains(t, output, "Eziii is thinking...")
}

func TestFormatSent(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	assert.Equal(t, "1 minute ago", formatSent(now.Add(-90*time.Second), now))
	assert.Equal(t, "1 hour ago", formatSent(now.Add(-61*time.Minute), now))
	assert.Empty(t, formatSent(time.Time{}, now))
	assert.Equal(t, lipgloss.Color("255"), ageColor(now, now))
}
