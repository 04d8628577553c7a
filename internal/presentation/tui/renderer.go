package tui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/aretw0/foundry/pkg/domain"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ResultMarkdown summarizes a run record as markdown.
func ResultMarkdown(record *domain.RunRecord) string {
	var sb strings.Builder

	title := record.Alignment
	if title == "" {
		title = "run"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "- **Run:** `%s`\n", record.ID)
	fmt.Fprintf(&sb, "- **Status:** %s\n", record.Status)
	fmt.Fprintf(&sb, "- **Steps:** %d\n", record.Steps)
	if !record.FinishedAt.IsZero() && !record.StartedAt.IsZero() {
		fmt.Fprintf(&sb, "- **Duration:** %s\n", record.FinishedAt.Sub(record.StartedAt))
	}
	if record.Instruction != "" {
		fmt.Fprintf(&sb, "\n> %s\n", record.Instruction)
	}

	if record.Error != "" {
		fmt.Fprintf(&sb, "\n## Error\n\n```\n%s\n```\n", record.Error)
	}

	if len(record.Output) > 0 {
		sb.WriteString("\n## Output\n\n| Key | Value |\n| --- | --- |\n")
		keys := make([]string, 0, len(record.Output))
		for k := range record.Output {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			value := strings.ReplaceAll(fmt.Sprintf("%v", record.Output[k]), "|", "\\|")
			fmt.Fprintf(&sb, "| %s | %s |\n", k, strings.ReplaceAll(value, "\n", " "))
		}
	}

	return sb.String()
}
