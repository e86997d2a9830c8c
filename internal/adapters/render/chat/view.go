package chat

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now time.Time
	// Tail limits the transcript to the last n messages; zero shows all.
	Tail  int
	State domain.QueryState
}

const errorPrefix = "Error: "

func renderView(conv domain.Conversation, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render(conversationTitle(conv)),
		s.header.Render(fmt.Sprintf("messages: %d", len(conv.Messages))),
	}

	messages := conv.Messages
	if opts.Tail > 0 && len(messages) > opts.Tail {
		messages = messages[len(messages)-opts.Tail:]
	}

	for _, msg := range messages {
		lines = append(lines, s.section.Render(renderMessage(msg, opts.Now, s)))
	}

	if opts.State == domain.QuerySending {
		lines = append(lines, s.section.Render(s.pending.Render("Eziii is thinking...")))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func conversationTitle(conv domain.Conversation) string {
	if conv.Role == domain.RoleAdmin {
		if conv.Context == domain.ContextAggregate {
			return "Admin chat (all students)"
		}
		return fmt.Sprintf("Admin chat (student %s)", conv.Context)
	}
	return "Student chat"
}

func renderMessage(msg domain.Message, now time.Time, s styles) string {
	label := s.bot.Render("Eziii")
	if msg.Sender == domain.SenderUser {
		label = s.user.Render("You")
	}

	stamp := lipgloss.NewStyle().
		Foreground(ageColor(msg.CreatedAt, now)).
		Render(formatSent(msg.CreatedAt, now))

	body := s.body
	if msg.Sender == domain.SenderBot && strings.HasPrefix(msg.Text, errorPrefix) {
		body = s.errBody
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, label, " ", stamp),
		body.Render(msg.Text),
	)
}

func formatSent(sent, now time.Time) string {
	if sent.IsZero() {
		return ""
	}
	if now.IsZero() {
		return sent.Format(time.RFC3339)
	}

	elapsed := now.Sub(sent)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return plural(int(elapsed.Minutes()), "minute") + " ago"
	case elapsed < 24*time.Hour:
		return plural(int(math.Floor(elapsed.Hours())), "hour") + " ago"
	}

	yearA, _, _ := now.Date()
	if sent.Year() == yearA {
		return sent.Local().Format("02 Jan 15:04")
	}
	return sent.Local().Format("02 Jan 2006")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// ageColor fades timestamps from bright to grey over a week.
func ageColor(sent, now time.Time) lipgloss.Color {
	if sent.IsZero() || now.IsZero() || sent.After(now) {
		return lipgloss.Color("255")
	}

	window := (7 * 24 * time.Hour).Seconds()
	return interpolateColor(window-now.Sub(sent).Seconds(), 0, window)
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	// 240 is faded grey and 255 bright white on the 256-colour greyscale ramp.
	return lipgloss.Color(fmt.Sprintf("%d", int(240+15*normalized)))
}
