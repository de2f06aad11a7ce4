package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ideaplan-api/internal/application/planview"
	"ideaplan-api/internal/domain/entity"
)

// RenderPlan 把计划渲染为终端文本，width <= 0 时不折行
func RenderPlan(plan entity.PlanData, width int) string {
	body := styleBody
	if width > 4 {
		body = body.Width(width - 2)
	}

	var b strings.Builder
	for _, g := range planview.Build(plan) {
		b.WriteString(styleGroup.Render(g.Title))
		b.WriteString("\n\n")
		for _, s := range g.Sections {
			b.WriteString(styleSection.Render(s.Icon + " " + s.Title))
			b.WriteString("\n")
			b.WriteString(body.Render(renderSection(s)))
			b.WriteString("\n\n")
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func renderSection(s planview.Section) string {
	switch s.Display {
	case planview.DisplayNames, planview.DisplayFonts:
		return strings.Join(s.Items, " · ")
	case planview.DisplayColors:
		swatches := make([]string, 0, len(s.Items))
		for _, c := range s.Items {
			swatches = append(swatches, swatch(c))
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, swatches...)
	case planview.DisplayList:
		lines := make([]string, 0, len(s.Items))
		for _, item := range s.Items {
			lines = append(lines, "• "+item)
		}
		return strings.Join(lines, "\n")
	case planview.DisplaySchema:
		lines := make([]string, 0, len(s.Tables))
		for _, t := range s.Tables {
			lines = append(lines, fmt.Sprintf("%s %s", t.Name, styleMuted.Render("("+strings.Join(t.Fields, ", ")+")")))
		}
		return strings.Join(lines, "\n")
	case planview.DisplayCompetitors:
		lines := make([]string, 0, len(s.Competitors))
		for i, c := range s.Competitors {
			line := fmt.Sprintf("%d) %s", i+1, c.Name)
			if c.Description != "" {
				line += styleMuted.Render(" - " + c.Description)
			}
			lines = append(lines, line)
		}
		return strings.Join(lines, "\n")
	default:
		return s.Text
	}
}
