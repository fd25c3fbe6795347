package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rodri-oliveira/atendeja/internal/board"
	"github.com/rodri-oliveira/atendeja/internal/order"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	cardStyle = lipgloss.NewStyle().
			Padding(0, 0, 1, 0)
	selectedCardStyle = lipgloss.NewStyle().
				Bold(true).
				Border(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("#5B8DEF")).
				Padding(0, 1)
	busyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E05561"))
	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
)

// View renders either the board or the drawer overlay.
func (a *App) View() string {
	if a.drawer != nil {
		return a.drawer.View()
	}
	sections := []string{a.renderHeader(), a.renderBoard()}
	if a.prompt != nil {
		sections = append(sections, a.renderPrompt())
	}
	if panel := a.renderLogPanel(); panel != "" {
		sections = append(sections, panel)
	}
	sections = append(sections, a.renderFooter())
	return strings.Join(sections, "\n")
}

func (a *App) renderHeader() string {
	title := titleStyle.Render("⬡ " + a.cfg.Branding.AppTitle)
	filters := a.renderFilterLine()
	lines := []string{title, filters}
	if a.errMsg != "" {
		lines = append(lines, errStyle.Render("⚠ "+a.errMsg))
	}
	if a.loading {
		lines = append(lines, a.spin.View()+" loading...")
	} else if a.status != "" {
		lines = append(lines, hintStyle.Render(a.status))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderFilterLine() string {
	statusLabel := "all"
	if a.filterIdx > 0 {
		statusLabel = order.Statuses()[a.filterIdx-1].DisplayName()
	}
	parts := []string{
		fmt.Sprintf("status: %s", statusLabel),
		a.search.View(),
		fmt.Sprintf("limit: %d", a.model.Filters().Limit),
		fmt.Sprintf("orders: %d", a.model.OrderCount()),
	}
	return hintStyle.Render(strings.Join(parts, "    "))
}

func (a *App) renderBoard() string {
	buckets := a.model.Buckets()
	if len(buckets) == 0 {
		return hintStyle.Render("no columns configured")
	}
	colWidth := a.columnWidth(len(buckets))
	rendered := make([]string, 0, len(buckets))
	for i, bucket := range buckets {
		rendered = append(rendered, a.renderColumn(bucket, i == a.colIdx, colWidth))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (a *App) columnWidth(columns int) int {
	width := a.cfg.UI.ColumnWidth
	if a.width > 0 && columns > 0 {
		if fit := a.width/columns - 2; fit < width {
			width = fit
		}
	}
	if width < minColumnWidth {
		width = minColumnWidth
	}
	return width
}

func (a *App) renderColumn(bucket board.Bucket, focused bool, width int) string {
	header := headerStyle.Render(fmt.Sprintf("%s (%d)", bucket.Column.Title, len(bucket.Orders)))
	lines := []string{header}
	if len(bucket.Orders) == 0 {
		lines = append(lines, hintStyle.Render("—"))
	}
	for i, o := range bucket.Orders {
		selected := focused && i == a.rowIdx
		lines = append(lines, a.renderCard(o, selected, width-4))
	}
	style := columnStyle.Width(width)
	if focused {
		style = style.BorderForeground(lipgloss.Color("#5B8DEF"))
	}
	return style.Render(strings.Join(lines, "\n"))
}

func (a *App) renderCard(o order.Order, selected bool, width int) string {
	busy := a.model.Busy(o.ID)
	head := fmt.Sprintf("#%s · R$ %.2f", o.ID, o.TotalAmount)
	if busy {
		head += " ⏳"
	}
	lines := []string{head}
	if !a.compact {
		info := fmt.Sprintf("%d item(s)", o.TotalItems)
		if !o.CreatedAt.IsZero() {
			info += fmt.Sprintf(" · %s ago", humanizeDuration(time.Since(o.CreatedAt)))
		}
		lines = append(lines, info)
		if actions := a.cfg.ActionsFor(o.Status); len(actions) > 0 && !busy {
			var keys []string
			for i, action := range actions {
				keys = append(keys, fmt.Sprintf("%d:%s", i+1, action.Label))
			}
			lines = append(lines, hintStyle.Render(strings.Join(keys, " ")))
		}
	}
	content := strings.Join(lines, "\n")
	style := cardStyle.Width(max(1, width))
	if selected {
		style = selectedCardStyle.Width(max(1, width))
	}
	if busy {
		content = busyStyle.Render(content)
	}
	return style.Render(content)
}

func (a *App) renderPrompt() string {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(lipgloss.Color("#E05561")).
		Padding(0, 2).
		Render(fmt.Sprintf("Cancel order %s? This cannot be undone.  y / n", a.prompt.id))
}

func (a *App) renderLogPanel() string {
	lines := a.logbook.Tail(logPanelLines)
	if len(lines) == 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(headerStyle.Render("LOG") + "\n" + hintStyle.Render(strings.Join(lines, "\n")))
}

func (a *App) renderFooter() string {
	return hintStyle.Render(
		"←→↑↓ move · enter details · 1-9 actions · / search · f filter · x clear · r refresh · v compact · q quit")
}

func humanizeDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}
