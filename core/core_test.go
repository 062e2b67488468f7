package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationStartsWithSystemMessage(t *testing.T) {
	conv := NewConversation("You are a calendar assistant.")

	msgs := conv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Equal(t, "You are a calendar assistant.", msgs[0].Content)
}

func TestConversationAppendOrder(t *testing.T) {
	conv := NewConversation("sys")

	require.NoError(t, conv.Append(NewUserMessage("fetch meetings")))
	require.NoError(t, conv.Append(NewAssistantMessage("done", nil)))

	msgs := conv.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, RoleUser, msgs[1].Role)
	assert.Equal(t, RoleAssistant, msgs[2].Role)
}

func TestConversationToolMessageRequiresPendingCall(t *testing.T) {
	conv := NewConversation("sys")

	err := conv.Append(NewToolMessage("call-1", "{}"))
	assert.Error(t, err, "orphan tool message must be rejected")

	require.NoError(t, conv.Append(NewAssistantMessage("", []ToolCall{{ID: "call-1", Name: "fetch_meetings"}})))
	require.NoError(t, conv.Append(NewToolMessage("call-1", `{"count":3}`)))

	// A second answer for the same call id is rejected.
	err = conv.Append(NewToolMessage("call-1", "{}"))
	assert.Error(t, err)
}

func TestConversationDuplicateCallIDsCounted(t *testing.T) {
	conv := NewConversation("sys")

	require.NoError(t, conv.Append(NewAssistantMessage("", []ToolCall{
		{ID: "dup", Name: "alpha"},
		{ID: "dup", Name: "beta"},
	})))

	// One result per emitted call, even when the model reuses an id.
	require.NoError(t, conv.Append(NewToolMessage("dup", `{"from":"alpha"}`)))
	require.NoError(t, conv.Append(NewToolMessage("dup", `{"from":"beta"}`)))

	err := conv.Append(NewToolMessage("dup", "{}"))
	assert.Error(t, err, "third answer exceeds the two emitted calls")
}

func TestConversationSetSystem(t *testing.T) {
	conv := NewConversation("first prompt")
	require.NoError(t, conv.Append(NewUserMessage("hello")))

	conv.SetSystem("second prompt")
	assert.Equal(t, "second prompt", conv.Messages()[0].Content)

	// The replacement survives a reset.
	conv.Reset()
	msgs := conv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "second prompt", msgs[0].Content)
}

func TestConversationResetIsWholesale(t *testing.T) {
	conv := NewConversation("sys")
	require.NoError(t, conv.Append(NewUserMessage("hello")))
	require.NoError(t, conv.Append(NewAssistantMessage("", []ToolCall{{ID: "c1", Name: "t"}})))

	conv.Reset()

	msgs := conv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleSystem, msgs[0].Role)

	// Pending call ids do not survive a reset.
	err := conv.Append(NewToolMessage("c1", "{}"))
	assert.Error(t, err)
}

func TestConversationMessagesIsDefensiveCopy(t *testing.T) {
	conv := NewConversation("sys")
	require.NoError(t, conv.Append(NewUserMessage("hi")))

	msgs := conv.Messages()
	msgs[0].Content = "mutated"

	assert.Equal(t, "sys", conv.Messages()[0].Content)
}

func TestContextMergeLastWriterWins(t *testing.T) {
	shared := NewContext()
	shared.Set(KeyStartDate, "2024-03-01")
	shared.Set(KeyMeetings, []string{"old"})

	local := NewContext()
	local.Set(KeyMeetings, []string{"a", "b"})
	local.Set(KeyExecutiveSummary, "busy week")

	shared.Merge(local)

	v, ok := shared.Get(KeyMeetings)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, v)

	s, ok := shared.GetString(KeyExecutiveSummary)
	require.True(t, ok)
	assert.Equal(t, "busy week", s)

	s, ok = shared.GetString(KeyStartDate)
	require.True(t, ok)
	assert.Equal(t, "2024-03-01", s)
}

func TestContextSnapshotIsolated(t *testing.T) {
	ctx := NewContext()
	ctx.Set("k", 1)

	snap := ctx.Snapshot()
	snap["k"] = 2

	v, _ := ctx.Get("k")
	assert.Equal(t, 1, v)
}

func TestContextReset(t *testing.T) {
	ctx := NewContext()
	ctx.Set("k", "v")
	ctx.Reset()

	assert.Zero(t, ctx.Len())
	_, ok := ctx.Get("k")
	assert.False(t, ok)
}

func TestNewEvent(t *testing.T) {
	ev := NewEvent(EventToolCall, "calendar", "fetch_meetings")

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, EventToolCall, ev.Type)
	assert.Equal(t, "calendar", ev.Agent)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestCallLimiter(t *testing.T) {
	l := NewCallLimiter(2)

	require.NoError(t, l.Increment())
	require.NoError(t, l.Increment())
	assert.Error(t, l.Increment())
	assert.Equal(t, 3, l.Count())
}

func TestCallLimiterUnlimited(t *testing.T) {
	l := NewCallLimiter(0)
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Increment())
	}
	assert.Equal(t, -1, l.Remaining())
}
