package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"dental-bot/api/internal/dental"
)

const (
	titleText        = "Dental Health Scanner"
	instructionText  = "Select a clear image of your teeth for AI analysis."
	startText        = "🦷 " + titleText + "\n\n" + instructionText + "\n\nSend a photo to start. Commands: /engine, /health"
	analyzingText    = "📷 Photo received, analyzing…"
	busyText         = "⏳ Your previous photo is still being analyzed. Please wait for the result."
	noTeethText      = "This image does not appear to show teeth. Please upload a clear image of teeth."
	badImageText     = "Could not read this image. Please send a JPEG or PNG photo."
	timeoutText      = "The analysis took too long. Please try again."
	genericErrorText = "An error occurred during analysis."
	dateUnavailable  = "Processing date unavailable"
	dateLayout       = "January 2, 2006 at 3:04 PM"
)

// UserMessage maps a scan error to what the chat sees. Only the missing-teeth
// case gets its own wording; the rest collapse into a generic failure.
func UserMessage(err error) string {
	var ie *dental.ImageError
	switch {
	case errors.Is(err, dental.ErrNoTeethFound):
		return noTeethText
	case errors.As(err, &ie):
		return badImageText
	case errors.Is(err, context.DeadlineExceeded):
		return timeoutText
	}
	return genericErrorText
}

func severityMark(s dental.Severity) string {
	switch s {
	case dental.SeverityGood:
		return "🟢"
	case dental.SeverityFair:
		return "🟠"
	case dental.SeverityBad:
		return "🔴"
	}
	return "⚪"
}

// FormatReport renders an analysis as a plain-text chat message.
func FormatReport(a dental.Analysis) string {
	r := a.Report
	var b strings.Builder
	b.WriteString("🦷 Scan Results\n")
	if a.CompletedAt.IsZero() {
		b.WriteString(dateUnavailable)
	} else {
		b.WriteString(a.CompletedAt.Format(dateLayout))
	}
	b.WriteString("\n\nAI Analysis Report\n")

	row := func(label string, s dental.Severity, value string) {
		fmt.Fprintf(&b, "%s %s: %s\n", severityMark(s), label, value)
	}
	row("Cavity Risk", r.CavityRisk.Severity(), string(r.CavityRisk))
	row("Plaque Level", r.PlaqueLevel.Severity(), string(r.PlaqueLevel))
	row("Alignment", r.Alignment.Severity(), string(r.Alignment))
	row("Teeth Color", r.ToothColor.Severity(), string(r.ToothColor))
	row("Gum Health", r.GumHealth.Severity(), string(r.GumHealth))
	fmt.Fprintf(&b, "⭐ Overall Score: %d/%d\n", r.OverallScore, dental.MaxScore)

	b.WriteString("\nRecommended Care Tips:\n")
	for i, tip := range r.CareTips {
		fmt.Fprintf(&b, "%d. %s\n", i+1, tip)
	}
	return strings.TrimRight(b.String(), "\n")
}

func makeNewScanKeyboard() tgbotapi.InlineKeyboardMarkup {
	btn := tgbotapi.NewInlineKeyboardButtonData("📷 New scan", "scan_again")
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(btn))
}
