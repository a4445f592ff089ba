package tray

import (
	"testing"

	"github.com/chatkit/push-dispatch-go/internal/domain/push"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostAndCancel(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Post(10, push.RenderContent{Title: "hi"}, false))
	require.NoError(t, tr.Post(11, push.RenderContent{Title: "group"}, true))

	assert.ElementsMatch(t, []int{10, 11}, tr.ActiveIDs())

	require.NoError(t, tr.Cancel(10))
	assert.ElementsMatch(t, []int{11}, tr.ActiveIDs())

	// cancelling twice is harmless
	require.NoError(t, tr.Cancel(10))
}

func TestCancelByConferenceOnlyMatches(t *testing.T) {
	tr := New()
	tr.Post(1, push.RenderContent{ConferenceID: "conf-a", FullScreen: true}, false)
	tr.Post(2, push.RenderContent{ChannelID: "c1"}, false)

	id, ok := tr.CancelByConference("conf-b")
	assert.False(t, ok)
	assert.Zero(t, id)

	id, ok = tr.CancelByConference("conf-a")
	require.True(t, ok)
	assert.Equal(t, 1, id)
	assert.ElementsMatch(t, []int{2}, tr.ActiveIDs())
}

func TestCancelByKeyRemovesIndividualsAndSummary(t *testing.T) {
	tr := New()
	tr.Post(100, push.RenderContent{ServerID: "s1", ChannelID: "c1"}, false)
	tr.Post(101, push.RenderContent{ServerID: "s1", ChannelID: "c1"}, true)
	tr.Post(200, push.RenderContent{ServerID: "s1", ChannelID: "c2"}, false)

	cancelled := tr.CancelByKey("s1", "c1")
	assert.ElementsMatch(t, []int{100, 101}, cancelled)
	assert.ElementsMatch(t, []int{200}, tr.ActiveIDs())
}
