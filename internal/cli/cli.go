// Package cli renders the conversation and lessons in a terminal.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/buger/goterm"
	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/capitalize-ai/theology-chat/internal/conversation"
	"github.com/capitalize-ai/theology-chat/internal/model"
	"github.com/capitalize-ai/theology-chat/internal/theology"
)

var (
	userColor      = color.New(color.FgWhite, color.Bold)
	assistantColor = color.New(color.FgCyan)
	errorColor     = color.New(color.FgRed)
	titleColor     = color.New(color.FgBlue, color.Bold)
	separatorColor = color.New(color.FgHiBlack)
	hintColor      = color.New(color.FgHiBlack, color.Italic)
	promptColor    = color.New(color.FgHiBlue)
	headingColor   = color.New(color.FgYellow, color.Bold)
)

// badgeColors follow the badge classes of the web client.
var badgeColors = map[string]*color.Color{
	"category-theology-propria": color.New(color.BgBlue, color.FgWhite),
	"category-soteriologia":     color.New(color.BgGreen, color.FgBlack),
	"category-ecclesiologia":    color.New(color.BgMagenta, color.FgWhite),
	"category-escatologia":      color.New(color.BgYellow, color.FgBlack),
}

var defaultBadgeColor = color.New(color.BgWhite, color.FgBlack)

// Printer writes to a terminal.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a printer for out. A zero width uses the terminal width.
func NewPrinter(out io.Writer, width int) *Printer {
	if width <= 0 {
		width = goterm.Width()
	}
	if width <= 0 {
		width = 80
	}
	return &Printer{out: out, width: width}
}

// Separator prints a full-width rule.
func (p *Printer) Separator() {
	separatorColor.Fprintln(p.out, strings.Repeat("-", p.width))
}

// Title prints text centered in a rule.
func (p *Printer) Title(text string, args ...any) {
	title := "  " + fmt.Sprintf(text, args...) + "  "
	left := (p.width - len(title)) / 2
	if left < 0 {
		left = 0
	}
	right := p.width - len(title) - left
	if right < 0 {
		right = 0
	}
	titleColor.Fprintln(p.out, strings.Repeat("-", left)+title+strings.Repeat("-", right))
}

// Welcome prints the prompt shown for an empty conversation.
func (p *Printer) Welcome() {
	p.Title(conversation.WelcomeTitle)
	hintColor.Fprintln(p.out, "Desarrollado por "+theology.Authors)
	fmt.Fprintln(p.out, conversation.WelcomeHint)
	p.Separator()
}

// QuickActions lists the canned questions, numbered from 1.
func (p *Printer) QuickActions() {
	for i, qa := range theology.QuickActions {
		hintColor.Fprintf(p.out, "  /%d  ", i+1)
		fmt.Fprintln(p.out, qa.Label)
	}
}

// Commands lists the slash commands of the interactive session.
func (p *Printer) Commands() {
	hintColor.Fprintln(p.out, "  /temas  /leccion [tema]  /archivo  /limpiar  /salir")
}

// Message prints one conversation entry with its category badge and time.
func (p *Printer) Message(m conversation.Message) {
	stamp := conversation.FormatTimestamp(m.Timestamp)
	if m.Sender == conversation.SenderUser {
		userColor.Fprintf(p.out, "> %s", m.Text)
		hintColor.Fprintf(p.out, "  %s\n", stamp)
		return
	}

	if class := conversation.BadgeClass(m.Category); class != "" {
		badge := defaultBadgeColor
		if c, ok := badgeColors[class]; ok {
			badge = c
		}
		if m.Category == conversation.CategoryError {
			badge = errorColor
		}
		badge.Fprintf(p.out, " %s ", m.Category)
		fmt.Fprintln(p.out)
	}
	text := assistantColor
	if m.Category == conversation.CategoryError {
		text = errorColor
	}
	text.Fprintln(p.out, m.Text)
	hintColor.Fprintln(p.out, stamp)
}

// Loading prints the in-flight indicator.
func (p *Printer) Loading() {
	hintColor.Fprintln(p.out, "Pensando...")
}

// Error prints err.
func (p *Printer) Error(err error) {
	errorColor.Fprintf(p.out, "error: %v\n", err)
}

// Lesson prints a lesson with its recognized sections; unrecognized text is
// printed as is.
func (p *Printer) Lesson(l *model.Lesson) {
	p.Title("Lección: %s", l.Topic)
	parsed := theology.ParseLesson(l.Content)
	if parsed.Empty() {
		fmt.Fprintln(p.out, l.Content)
		p.Separator()
		return
	}

	section := func(label, body string) {
		if body == "" {
			return
		}
		headingColor.Fprintln(p.out, label)
		fmt.Fprintln(p.out, body)
		fmt.Fprintln(p.out)
	}
	list := func(label string, items []string) {
		if len(items) == 0 {
			return
		}
		headingColor.Fprintln(p.out, label)
		for _, item := range items {
			fmt.Fprintf(p.out, "  - %s\n", item)
		}
		fmt.Fprintln(p.out)
	}

	section(theology.LabelTitle, parsed.Title)
	section(theology.LabelCategory, parsed.Category)
	section(theology.LabelScripture, parsed.Scripture)
	section(theology.LabelExplanation, parsed.Explanation)
	list(theology.LabelApplication, parsed.Application)
	list(theology.LabelReflection, parsed.Reflection)
	section(theology.LabelPrayer, parsed.Prayer)
	hintColor.Fprintln(p.out, l.Date.Local().Format("2006-01-02"))
	p.Separator()
}

// Topics prints a numbered topic list.
func (p *Printer) Topics(topics []string) {
	for i, topic := range topics {
		hintColor.Fprintf(p.out, "%3d. ", i+1)
		fmt.Fprintln(p.out, topic)
	}
}

// Archive prints one line per archived lesson.
func (p *Printer) Archive(lessons []model.Lesson) {
	if len(lessons) == 0 {
		hintColor.Fprintln(p.out, "No hay lecciones archivadas.")
		return
	}
	for _, l := range lessons {
		hintColor.Fprintf(p.out, "%s  ", l.Date.Local().Format("2006-01-02"))
		fmt.Fprintln(p.out, l.Topic)
	}
}

// NewPrompt opens the interactive line reader.
func NewPrompt(historyFile string) (*readline.Instance, error) {
	return readline.NewEx(&readline.Config{
		Prompt:            promptColor.Sprint("> "),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistoryFile:       historyFile,
		HistorySearchFold: true,
	})
}
