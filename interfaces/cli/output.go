package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"todolist-backend/interfaces/http/rest/handlers"
)

const timeLayout = "2006-01-02 15:04:05"

// Printer writes command results as styled text or JSON
type Printer struct {
	format string
	color  bool
	out    io.Writer

	title   lipgloss.Style
	done    lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
}

// NewPrinter creates a printer for out. color is ignored for JSON output.
func NewPrinter(out io.Writer, format string, color bool) *Printer {
	r := lipgloss.NewRenderer(out)
	return &Printer{
		format:  format,
		color:   color,
		out:     out,
		title:   r.NewStyle().Bold(true),
		done:    r.NewStyle().Faint(true).Strikethrough(true),
		muted:   r.NewStyle().Faint(true),
		success: r.NewStyle().Foreground(lipgloss.Color("42")),
	}
}

// JSON reports whether output is machine readable
func (p *Printer) JSON() bool {
	return p.format == "json"
}

func (p *Printer) paint(style lipgloss.Style, s string) string {
	if !p.color {
		return s
	}
	return style.Render(s)
}

func (p *Printer) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format, args...)
}

// Encode writes v as indented JSON
func (p *Printer) Encode(v interface{}) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Action prints a one-line confirmation such as "Added <id>  Buy milk"
func (p *Printer) Action(verb string, todo handlers.TodoResponse) {
	p.printf("%s %s  %s\n", p.paint(p.success, verb), todo.ID, todo.Text)
}

// Line prints a single line of text
func (p *Printer) Line(s string) {
	p.printf("%s\n", s)
}

// Section prints a titled partition of todos
func (p *Printer) Section(title string, todos []handlers.TodoResponse) {
	p.printf("%s\n", p.paint(p.title, fmt.Sprintf("%s (%d)", title, len(todos))))
	if len(todos) == 0 {
		p.printf("  %s\n", p.paint(p.muted, "(none)"))
		return
	}
	for _, todo := range todos {
		p.printf("  %s\n", p.item(todo))
	}
}

func (p *Printer) item(todo handlers.TodoResponse) string {
	if todo.Completed {
		return fmt.Sprintf("[x] %s  %s", p.paint(p.muted, todo.ID), p.paint(p.done, todo.Text))
	}
	return fmt.Sprintf("[ ] %s  %s", p.paint(p.muted, todo.ID), todo.Text)
}

// Detail prints a todo with its full edit history
func (p *Printer) Detail(todo handlers.TodoResponse) {
	status := "active"
	if todo.Completed {
		status = "completed"
	}

	p.printf("%s\n", p.paint(p.title, todo.ID))
	p.printf("  Text:      %s\n", todo.Text)
	p.printf("  Status:    %s\n", status)
	p.printf("  Created:   %s\n", formatTime(todo.CreatedAt))
	if todo.CompletedAt != nil {
		p.printf("  Completed: %s\n", formatTime(*todo.CompletedAt))
	}
	if len(todo.EditHistory) == 0 {
		p.printf("  History:   %s\n", p.paint(p.muted, "none"))
		return
	}
	p.printf("  History:\n")
	for _, rec := range todo.EditHistory {
		p.printf("    %s  %s\n", p.paint(p.muted, formatTime(rec.EditedAt)), rec.Text)
	}
}

// Stats prints partition counts on one line
func (p *Printer) Stats(stats handlers.StatsResponse) {
	parts := []string{
		fmt.Sprintf("Active: %d", stats.ActiveCount),
		fmt.Sprintf("Completed: %d", stats.CompletedCount),
		fmt.Sprintf("Total: %d", stats.Total),
	}
	p.printf("%s\n", strings.Join(parts, "  "))
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
