package nats

import (
	"context"
	"fmt"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/theology-chat/internal/model"
	"github.com/capitalize-ai/theology-chat/pkg/logger"
)

func TestSubjects(t *testing.T) {
	assert.Equal(t, "chat.abc-1.msg.user", MessageSubject("abc-1", model.RoleUser))
	assert.Equal(t, "chat.abc-1.msg.assistant", MessageSubject("abc-1", model.RoleAssistant))
	assert.Equal(t, "chat.abc-1.msg.>", SessionFilter("abc-1"))
}

func TestNewHistoryStore_DefaultMaxAge(t *testing.T) {
	s := NewHistoryStore(nil, 0)
	assert.Equal(t, 30*24*60*60, int(s.maxAge.Seconds()))
}

// newJetStreamStore starts an embedded JetStream server and returns a history
// store connected to it.
func newJetStreamStore(t *testing.T) *HistoryStore {
	t.Helper()
	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	srv := natsserver.RunServer(&opts)
	t.Cleanup(srv.Shutdown)

	client, err := Connect(context.Background(), Config{URL: srv.ClientURL()}, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(client.Close)

	store := NewHistoryStore(client, time.Hour)
	require.NoError(t, store.EnsureStream(context.Background()))
	return store
}

func appendTurn(t *testing.T, s *HistoryStore, sessionID string, role model.Role, content string) {
	t.Helper()
	seq, err := s.Append(context.Background(), &model.Message{
		ID:        content,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NotZero(t, seq)
}

func contents(msgs []model.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Content
	}
	return out
}

func TestHistoryStore_AppendListClear(t *testing.T) {
	ctx := context.Background()
	s := newJetStreamStore(t)

	require.NoError(t, s.Ready(ctx))

	empty, err := s.List(ctx, "s1", 10)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	appendTurn(t, s, "s1", model.RoleUser, "¿Qué es la gracia?")
	appendTurn(t, s, "s2", model.RoleUser, "otra sesión")
	appendTurn(t, s, "s1", model.RoleAssistant, "Favor inmerecido.")
	appendTurn(t, s, "s1", model.RoleUser, "¿Y la fe?")

	msgs, err := s.List(ctx, "s1", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"¿Qué es la gracia?", "Favor inmerecido.", "¿Y la fe?"}, contents(msgs))
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
	assert.Less(t, msgs[0].Sequence, msgs[1].Sequence)

	last, err := s.List(ctx, "s1", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Favor inmerecido.", "¿Y la fe?"}, contents(last))

	require.NoError(t, s.Clear(ctx, "s1"))

	cleared, err := s.List(ctx, "s1", 10)
	require.NoError(t, err)
	assert.Empty(t, cleared)

	other, err := s.List(ctx, "s2", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"otra sesión"}, contents(other))
}

func TestHistoryStore_AppendRejectsWildcardSessions(t *testing.T) {
	s := newJetStreamStore(t)
	for _, id := range []string{"", "a.b", "a*", "a>", "a b"} {
		_, err := s.Append(context.Background(), &model.Message{SessionID: id, Role: model.RoleUser, Content: "x"})
		assert.Error(t, err, fmt.Sprintf("session id %q", id))
	}
}

func TestHistoryStore_EnsureStreamIsIdempotent(t *testing.T) {
	s := newJetStreamStore(t)
	require.NoError(t, s.EnsureStream(context.Background()))
}
