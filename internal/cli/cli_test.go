package cli

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/capitalize-ai/theology-chat/internal/conversation"
	"github.com/capitalize-ai/theology-chat/internal/model"
	"github.com/capitalize-ai/theology-chat/internal/theology"
)

func init() {
	color.NoColor = true
}

func TestPrinter_Message(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, 40)
	at := time.Date(2024, 5, 1, 10, 30, 0, 0, time.Local)

	p.Message(conversation.Message{Text: "¿Qué es la gracia?", Sender: conversation.SenderUser, Timestamp: at})
	p.Message(conversation.Message{Text: "Favor inmerecido.", Sender: conversation.SenderAssistant, Timestamp: at, Category: theology.CategorySoteriology})

	out := buf.String()
	assert.Contains(t, out, "> ¿Qué es la gracia?")
	assert.Contains(t, out, " "+theology.CategorySoteriology+" ")
	assert.Contains(t, out, "Favor inmerecido.")
	assert.Contains(t, out, "10:30:00")
}

func TestPrinter_Title(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, 20).Title("hola")
	assert.Equal(t, "------  hola  ------\n", buf.String())

	buf.Reset()
	NewPrinter(&buf, 4).Title("un título largo")
	assert.Equal(t, "  un título largo  \n", buf.String())
}

func TestPrinter_Lesson(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, 40)
	p.Lesson(&model.Lesson{
		Topic:   "La gracia",
		Date:    time.Now(),
		Content: "Título: La gracia soberana\n\nAplicación práctica:\n- Descansar\n- Agradecer\n\nOración sugerida: Señor, gracias.",
	})

	out := buf.String()
	assert.Contains(t, out, "Lección: La gracia")
	assert.Contains(t, out, "La gracia soberana")
	assert.Contains(t, out, "  - Descansar\n")
	assert.Contains(t, out, "Señor, gracias.")
}

func TestPrinter_LessonUnstructured(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, 40).Lesson(&model.Lesson{Topic: "x", Content: "texto libre"})
	assert.Contains(t, buf.String(), "texto libre")
}

func TestPrinter_ArchiveAndErrors(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, 40)

	p.Archive(nil)
	assert.Contains(t, buf.String(), "No hay lecciones archivadas.")

	buf.Reset()
	p.Archive([]model.Lesson{{Topic: "Escatología", Date: time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)}})
	assert.Contains(t, buf.String(), "2024-05-01  Escatología")

	buf.Reset()
	p.Error(errors.New("boom"))
	assert.Equal(t, "error: boom\n", buf.String())
}
