// Package message renders pipeline state into Discord embeds. Everything
// here is a pure function of its inputs; no I/O, no stored state.
package message

import (
	"fmt"
	"strings"
	"time"

	"github.com/deliverybot/discord-tracker/internal/discord"
	"github.com/deliverybot/discord-tracker/internal/pipeline"
)

// Embed colors
const (
	colorSuccess    = 0x00ff00
	colorFailure    = 0xff0000
	colorInProgress = 0xffff00
)

// BuildInit renders the "pipeline started" message
func BuildInit(state *pipeline.PipelineState) *discord.Message {
	now := time.Now().UTC()

	embed := discord.Embed{
		Title: fmt.Sprintf("🚀 Pipeline Started - PR #%d", state.PRNumber),
		Description: fmt.Sprintf("**%s**\n\n**Author:** %s\n**Repository:** %s\n**Branch:** %s",
			state.PRTitle, state.Author, state.Repository, state.Branch),
		Color: colorSuccess,
		Fields: []discord.Field{
			{Name: "Status", Value: "🔄 Initializing...", Inline: true},
			{Name: "Progress", Value: "0/0 steps completed", Inline: true},
		},
		Footer:    &discord.Footer{Text: fmt.Sprintf("Started at %s", now.Format("2006-01-02 15:04:05 UTC"))},
		Timestamp: now,
	}

	return &discord.Message{Embeds: []discord.Embed{embed}}
}

// BuildProgress renders a step-update edit of the tracked message
func BuildProgress(state *pipeline.PipelineState, currentStep, totalSteps int) *discord.Message {
	now := time.Now().UTC()

	succeeded := state.CountByStatus(pipeline.StatusSuccess)
	failed := state.CountByStatus(pipeline.StatusFailed)

	percentage := 0
	if totalSteps > 0 {
		percentage = succeeded * 100 / totalSteps
	}

	emoji, text := "🔄", "In Progress"
	switch {
	case failed > 0:
		emoji, text = "❌", "Failed"
	case succeeded == totalSteps:
		emoji, text = "✅", "Completed"
	}

	fields := []discord.Field{
		{Name: "Status", Value: fmt.Sprintf("%s %s", emoji, text), Inline: true},
		{Name: "Progress", Value: fmt.Sprintf("%d/%d steps completed (%d%%)", succeeded, totalSteps, percentage), Inline: true},
		{Name: "Current Step", Value: fmt.Sprintf("Step %d of %d", currentStep, totalSteps), Inline: true},
	}
	if lines := stepLines(state); lines != "" {
		fields = append(fields, discord.Field{Name: "Steps", Value: lines})
	}

	embed := discord.Embed{
		Title:       fmt.Sprintf("%s Pipeline Update - PR #%d", emoji, state.PRNumber),
		Description: fmt.Sprintf("**%s**", state.PRTitle),
		Color:       statusColor(failed, succeeded, totalSteps),
		Fields:      fields,
		Footer:      &discord.Footer{Text: fmt.Sprintf("Updated at %s", now.Format("2006-01-02 15:04:05 UTC"))},
		Timestamp:   now,
	}

	return &discord.Message{Embeds: []discord.Embed{embed}}
}

// BuildCompletion renders the final summary edit
func BuildCompletion(state *pipeline.PipelineState, elapsed time.Duration) *discord.Message {
	now := time.Now().UTC()

	succeeded := state.CountByStatus(pipeline.StatusSuccess)
	total := len(state.Steps)

	// Skipped steps do not block a green result; only failures do
	emoji, text, color := "✅", "Completed", colorSuccess
	switch state.Outcome() {
	case pipeline.OutcomeFailed:
		emoji, text, color = "❌", "Failed", colorFailure
	case pipeline.OutcomeSuccessWithSkips:
		text = "Completed with skipped steps"
	}

	fields := []discord.Field{
		{Name: "Status", Value: fmt.Sprintf("%s %s", emoji, text), Inline: true},
		{Name: "Duration", Value: pipeline.FormatElapsed(elapsed), Inline: true},
	}
	if lines := stepLines(state); lines != "" {
		fields = append(fields, discord.Field{Name: "Steps", Value: lines})
	}

	embed := discord.Embed{
		Title: fmt.Sprintf("%s Pipeline %s - PR #%d", emoji, text, state.PRNumber),
		Description: fmt.Sprintf("**%s**\n\n**Duration:** %s\n**Steps:** %d/%d completed",
			state.PRTitle, pipeline.FormatElapsed(elapsed), succeeded, total),
		Color:     color,
		Fields:    fields,
		Footer:    &discord.Footer{Text: fmt.Sprintf("Completed at %s", now.Format("2006-01-02 15:04:05 UTC"))},
		Timestamp: now,
	}

	return &discord.Message{Embeds: []discord.Embed{embed}}
}

// stepLines renders the observed steps in discovery order, one line each
func stepLines(state *pipeline.PipelineState) string {
	if len(state.Steps) == 0 {
		return ""
	}
	lines := make([]string, 0, len(state.Steps))
	for i := range state.Steps {
		lines = append(lines, state.Steps[i].FormatLine())
	}
	return strings.Join(lines, "\n")
}

func statusColor(failed, succeeded, total int) int {
	switch {
	case failed > 0:
		return colorFailure
	case total > 0 && succeeded == total:
		return colorSuccess
	default:
		return colorInProgress
	}
}
