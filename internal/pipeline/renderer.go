package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/ltlbench/internal/model"
)

// Renderer writes problem sets and single problems for humans and tools
type Renderer struct{}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// WriteJSON writes problems as an indented JSON array
func (r *Renderer) WriteJSON(w io.Writer, problems []*model.Problem) error {
	if problems == nil {
		problems = []*model.Problem{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(problems)
}

// RenderJSON writes problems to path, creating parent directories
func (r *Renderer) RenderJSON(problems []*model.Problem, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := r.WriteJSON(f, problems); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode problems: %w", err)
	}
	return f.Close()
}

// RenderMarkdown formats one problem with its question, formula and
// checker program
func (r *Renderer) RenderMarkdown(p *model.Problem) string {
	var b strings.Builder

	title := "Problem"
	if p.ID != 0 {
		title = fmt.Sprintf("Problem %d", p.ID)
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "- **Events:** %d\n", p.Events)
	fmt.Fprintf(&b, "- **Formula length:** %d\n", p.FormulaLength)
	fmt.Fprintf(&b, "- **Seed / index:** %d / %d\n", p.Seed, p.Index)
	fmt.Fprintf(&b, "- **Initial state:** %s\n", p.InitialState)
	fmt.Fprintf(&b, "- **Answer:** %s\n\n", answerLabel(p.Answer))

	b.WriteString("## Question\n\n```text\n")
	b.WriteString(strings.TrimRight(p.Question, "\n"))
	b.WriteString("\n```\n\n")

	b.WriteString("## Formula\n\n")
	fmt.Fprintf(&b, "`%s`\n\n", p.Formula)

	b.WriteString("## NuSMV\n\n```smv\n")
	b.WriteString(strings.TrimRight(p.Code, "\n"))
	b.WriteString("\n```\n")

	return b.String()
}

// RenderSummary prints a one-block batch summary to w
func (r *Renderer) RenderSummary(w io.Writer, problems []*model.Problem, failed int) {
	trueCount := 0
	for _, p := range problems {
		if p.Answer {
			trueCount++
		}
	}

	fmt.Fprintf(w, "\n═══════════════════════════════════════\n")
	fmt.Fprintf(w, "Generated: %d problems\n", len(problems))
	fmt.Fprintf(w, "  ✓ True:  %d\n", trueCount)
	fmt.Fprintf(w, "  ✓ False: %d\n", len(problems)-trueCount)
	if failed > 0 {
		fmt.Fprintf(w, "  ✗ Failed: %d\n", failed)
	}
	fmt.Fprintf(w, "═══════════════════════════════════════\n")
}

func answerLabel(answer bool) string {
	if answer {
		return "True"
	}
	return "False"
}
