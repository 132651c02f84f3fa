// Package main is a terminal client for the theology chat API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/capitalize-ai/theology-chat/internal/cli"
	"github.com/capitalize-ai/theology-chat/internal/client"
	"github.com/capitalize-ai/theology-chat/internal/conversation"
	"github.com/capitalize-ai/theology-chat/internal/model"
	"github.com/capitalize-ai/theology-chat/internal/theology"
)

var opts struct {
	BaseURL string
	Timeout time.Duration
}

func main() {
	rootCmd := &cobra.Command{
		Use:     "theology-chat",
		Short:   "Asistente de teología reformada en la terminal",
		Version: "1.0.0",
		Args:    cobra.NoArgs,
		RunE:    runREPL,
	}

	baseURL := os.Getenv("THEOLOGY_API_URL")
	if baseURL == "" {
		baseURL = client.DefaultBaseURL
	}
	rootCmd.PersistentFlags().StringVar(&opts.BaseURL, "api", baseURL, "API root URL")
	rootCmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", client.DefaultTimeout, "request timeout")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "ask <pregunta>",
			Short: "Hace una sola pregunta",
			Args:  cobra.MinimumNArgs(1),
			RunE:  runAsk,
		},
		&cobra.Command{
			Use:   "topics",
			Short: "Lista los temas de las lecciones",
			Args:  cobra.NoArgs,
			RunE:  runTopics,
		},
		&cobra.Command{
			Use:   "lesson [tema]",
			Short: "Genera la lección del día",
			RunE:  runLesson,
		},
		&cobra.Command{
			Use:   "archive",
			Short: "Lista las lecciones archivadas",
			Args:  cobra.NoArgs,
			RunE:  runArchive,
		},
		&cobra.Command{
			Use:   "history <sessionId>",
			Short: "Muestra el historial de una sesión",
			Args:  cobra.ExactArgs(1),
			RunE:  runHistory,
		},
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newClient() *client.Client {
	return client.New(client.WithBaseURL(opts.BaseURL), client.WithTimeout(opts.Timeout))
}

func runAsk(cmd *cobra.Command, args []string) error {
	p := cli.NewPrinter(cmd.OutOrStdout(), 0)
	session := conversation.NewSession(newClient())
	if err := session.Send(cmd.Context(), strings.Join(args, " ")); err != nil {
		return err
	}
	for _, m := range session.Snapshot().Messages[1:] {
		p.Message(m)
	}
	return nil
}

func runTopics(cmd *cobra.Command, _ []string) error {
	topics, err := newClient().Topics(cmd.Context())
	if err != nil {
		return err
	}
	cli.NewPrinter(cmd.OutOrStdout(), 0).Topics(topics)
	return nil
}

func runLesson(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")
	if topic == "" {
		topic = topicOfTheDay(time.Now())
	}
	lesson, err := newClient().DailyLesson(cmd.Context(), topic)
	if err != nil {
		return err
	}
	cli.NewPrinter(cmd.OutOrStdout(), 0).Lesson(lesson)
	return nil
}

func runArchive(cmd *cobra.Command, _ []string) error {
	lessons, err := newClient().Archive(cmd.Context())
	if err != nil {
		return err
	}
	cli.NewPrinter(cmd.OutOrStdout(), 0).Archive(lessons)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	h, err := newClient().History(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	p := cli.NewPrinter(cmd.OutOrStdout(), 0)
	for _, m := range h.Messages {
		sender := conversation.SenderAssistant
		if m.Role == model.RoleUser {
			sender = conversation.SenderUser
		}
		p.Message(conversation.Message{
			ID:        m.ID,
			Text:      m.Content,
			Sender:    sender,
			Timestamp: m.CreatedAt,
			Category:  m.Category,
		})
	}
	return nil
}

// topicOfTheDay rotates through the lesson topics by day of the year.
func topicOfTheDay(now time.Time) string {
	topics := theology.Topics()
	return topics[now.YearDay()%len(topics)]
}

func runREPL(cmd *cobra.Command, _ []string) error {
	c := newClient()
	p := cli.NewPrinter(cmd.OutOrStdout(), 0)
	session := conversation.NewSession(c)

	home, _ := os.UserHomeDir()
	rl, err := cli.NewPrompt(filepath.Join(home, ".theology-chat.history"))
	if err != nil {
		return err
	}
	defer rl.Close()

	p.Welcome()
	p.QuickActions()
	printed := 0

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		text := line
		echoed := true
		if strings.HasPrefix(line, "/") {
			quick, done, err := command(cmd.Context(), c, session, p, line)
			if err != nil {
				p.Error(err)
			}
			if done {
				return nil
			}
			if quick == "" {
				if conversation.EmptyState(session.Snapshot()) {
					printed = 0
				}
				continue
			}
			text = quick
			echoed = false
		}

		p.Loading()
		ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
		err = session.Send(ctx, text)
		cancel()
		if err != nil {
			p.Error(err)
			continue
		}

		msgs := session.Snapshot().Messages
		from := printed
		if echoed {
			from++
		}
		for i := from; i < len(msgs); i++ {
			p.Message(msgs[i])
		}
		printed = len(msgs)
	}
}

// command runs a slash command. It returns the text to send for quick
// actions, and done when the session should end.
func command(ctx context.Context, c *client.Client, session *conversation.Session, p *cli.Printer, line string) (string, bool, error) {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	arg = strings.TrimSpace(arg)

	if n, err := strconv.Atoi(name); err == nil {
		if n < 1 || n > len(theology.QuickActions) {
			return "", false, fmt.Errorf("no hay acción rápida %d", n)
		}
		return theology.QuickActions[n-1].Prompt, false, nil
	}

	switch name {
	case "salir", "exit":
		return "", true, nil
	case "limpiar", "clear":
		session.Clear()
		if err := c.ClearHistory(ctx, session.SessionID()); err != nil {
			return "", false, err
		}
		p.Welcome()
		return "", false, nil
	case "temas", "topics":
		topics, err := c.Topics(ctx)
		if err != nil {
			return "", false, err
		}
		p.Topics(topics)
		return "", false, nil
	case "leccion", "lesson":
		if arg == "" {
			arg = topicOfTheDay(time.Now())
		}
		p.Loading()
		lesson, err := c.DailyLesson(ctx, arg)
		if err != nil {
			return "", false, err
		}
		p.Lesson(lesson)
		return "", false, nil
	case "archivo", "archive":
		lessons, err := c.Archive(ctx)
		if err != nil {
			return "", false, err
		}
		p.Archive(lessons)
		return "", false, nil
	case "ayuda", "help":
		p.QuickActions()
		p.Commands()
		return "", false, nil
	default:
		return "", false, fmt.Errorf("comando desconocido: /%s", name)
	}
}
