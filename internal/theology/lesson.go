package theology

import (
	"strings"
)

// Section labels recognized in generated lessons.
const (
	LabelTitle       = "Título:"
	LabelCategory    = "Categoría:"
	LabelScripture   = "Versículo(s) clave:"
	LabelExplanation = "Explicación doctrinal:"
	LabelApplication = "Aplicación práctica:"
	LabelReflection  = "Preguntas para reflexión:"
	LabelPrayer      = "Oración sugerida:"
)

// ParsedLesson is the structured view of a lesson's text.
type ParsedLesson struct {
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Scripture   string   `json:"scripture"`
	Explanation string   `json:"explanation"`
	Application []string `json:"application"`
	Reflection  []string `json:"reflection"`
	Prayer      string   `json:"prayer"`
}

// ParseLesson splits content on blank lines and fills the section whose label
// starts each block. Blocks without a known label are dropped.
func ParseLesson(content string) ParsedLesson {
	var p ParsedLesson
	content = strings.ReplaceAll(content, "\r\n", "\n")

	for _, block := range strings.Split(content, "\n\n") {
		block = strings.TrimLeft(strings.TrimSpace(block), "#*0123456789. ")
		switch {
		case strings.HasPrefix(block, LabelTitle):
			p.Title = body(block, LabelTitle)
		case strings.HasPrefix(block, LabelCategory):
			p.Category = body(block, LabelCategory)
		case strings.HasPrefix(block, LabelScripture):
			p.Scripture = body(block, LabelScripture)
		case strings.HasPrefix(block, LabelExplanation):
			p.Explanation = body(block, LabelExplanation)
		case strings.HasPrefix(block, LabelApplication):
			p.Application = bullets(body(block, LabelApplication))
		case strings.HasPrefix(block, LabelReflection):
			p.Reflection = bullets(body(block, LabelReflection))
		case strings.HasPrefix(block, LabelPrayer):
			p.Prayer = body(block, LabelPrayer)
		}
	}
	return p
}

// Empty reports whether no section was recognized.
func (p ParsedLesson) Empty() bool {
	return p.Title == "" && p.Category == "" && p.Scripture == "" && p.Explanation == "" &&
		len(p.Application) == 0 && len(p.Reflection) == 0 && p.Prayer == ""
}

func body(block, label string) string {
	rest := strings.TrimPrefix(block, label)
	return strings.TrimSpace(strings.TrimLeft(rest, "* "))
}

func bullets(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "-") {
			continue
		}
		items = append(items, strings.TrimSpace(strings.TrimPrefix(line, "-")))
	}
	return items
}
