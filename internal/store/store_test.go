// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/medscope-tui/internal/model"
)

// seedSession submits and immediately finishes one exchange so the store
// holds a materialized, idle session. Returns its ID.
func seedSession(t *testing.T, s *Store, prompt string) string {
	t.Helper()
	sub, err := s.Submit(prompt, nil)
	require.NoError(t, err)
	s.EndStream(sub.Reply.ID)
	return s.ActiveID()
}

func TestStartSessionMaterializesLazily(t *testing.T) {
	s := New()

	require.NoError(t, s.StartSession())
	assert.Equal(t, 0, s.Count(), "new-chat intent alone must not create a session")
	assert.Nil(t, s.Active())
	assert.Empty(t, s.ActiveID())

	_, err := s.Submit("first question", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count(), "first submit materializes the session")
	require.NotNil(t, s.Active())
}

func TestStartSessionDetachesFromActive(t *testing.T) {
	s := New()
	firstID := seedSession(t, s, "first question")

	require.NoError(t, s.StartSession())
	assert.Empty(t, s.ActiveID())
	assert.Equal(t, 1, s.Count(), "detaching must not add an empty session")

	_, err := s.Submit("second question", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count())
	assert.NotEqual(t, firstID, s.ActiveID())
}

func TestSubmitAppendsPairAtomically(t *testing.T) {
	s := New()

	sub, err := s.Submit("is the fracture healed?", nil)
	require.NoError(t, err)

	sess := s.Active()
	require.Equal(t, 2, sess.MessageCount())
	assert.Equal(t, model.RoleUser, sess.Messages[0].Role)
	assert.Equal(t, model.RoleModel, sess.Messages[1].Role)
	assert.Equal(t, sub.User.ID, sess.Messages[0].ID)
	assert.Equal(t, sub.Reply.ID, sess.Messages[1].ID)
	assert.Equal(t, "", sub.Reply.Content, "reply starts empty; the stream fills it in")
	assert.True(t, sub.Reply.Streaming)
	assert.True(t, s.IsStreaming())
}

func TestSubmitEmptyWithoutAttachmentIsNoOp(t *testing.T) {
	s := New()

	for _, prompt := range []string{"", "   ", "\t\n"} {
		_, err := s.Submit(prompt, nil)
		assert.ErrorIs(t, err, ErrEmptySubmit)
	}

	assert.Equal(t, 0, s.Count())
	assert.False(t, s.IsStreaming())
}

func TestSubmitImageOnlyAccepted(t *testing.T) {
	s := New()
	att := &model.Attachment{Path: "/tmp/scan.png", MIME: "image/png", Size: 2048}

	sub, err := s.Submit("", att)
	require.NoError(t, err)

	sess := s.Active()
	require.Equal(t, 2, sess.MessageCount())
	assert.True(t, sess.Messages[0].HasImage())
	assert.Equal(t, "Image analysis", sess.GetTitle())
	assert.True(t, s.IsStreaming())
	s.EndStream(sub.Reply.ID)
}

func TestSubmitWhileStreamingRefused(t *testing.T) {
	s := New()
	_, err := s.Submit("first", nil)
	require.NoError(t, err)

	_, err = s.Submit("second", nil)
	assert.ErrorIs(t, err, ErrBusy)
}

func TestSubmitCreatesSessionImplicitly(t *testing.T) {
	s := New()

	_, err := s.Submit("hello", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count())
	require.NotNil(t, s.Active())
}

func TestUpdateMessageContent(t *testing.T) {
	s := New()
	sub, err := s.Submit("prompt", nil)
	require.NoError(t, err)

	require.NoError(t, s.UpdateMessageContent(sub.Reply.ID, "Analyzing..."))
	require.NoError(t, s.UpdateMessageContent(sub.Reply.ID, "The scan shows"))

	assert.Equal(t, "The scan shows", s.Active().Messages[1].Content)

	err = s.UpdateMessageContent("msg_unknown", "x")
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestEndStreamReleasesSlot(t *testing.T) {
	s := New()
	sub, err := s.Submit("prompt", nil)
	require.NoError(t, err)

	s.EndStream(sub.Reply.ID)

	assert.False(t, s.IsStreaming())
	assert.False(t, sub.Reply.Streaming)
	assert.Empty(t, s.StreamingMessageID())

	_, err = s.Submit("next", nil)
	assert.NoError(t, err)
}

func TestEndStreamIdempotent(t *testing.T) {
	s := New()
	s.EndStream("")
	assert.False(t, s.IsStreaming())
}

func TestSelectSessionWhileStreamingRefused(t *testing.T) {
	s := New()
	firstID := seedSession(t, s, "first question")
	require.NoError(t, s.StartSession())
	secondID := seedSession(t, s, "second question")

	require.NoError(t, s.SelectSession(firstID))
	assert.Equal(t, firstID, s.ActiveID())

	_, err := s.Submit("streaming now", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, s.SelectSession(secondID), ErrBusy)
	assert.ErrorIs(t, s.SelectIndex(2), ErrBusy)
	assert.ErrorIs(t, s.StartSession(), ErrBusy)
}

func TestSelectSessionUnknown(t *testing.T) {
	s := New()
	assert.ErrorIs(t, s.SelectSession("sess_nope"), ErrSessionNotFound)
	assert.ErrorIs(t, s.SelectIndex(0), ErrSessionNotFound)
	assert.ErrorIs(t, s.SelectIndex(1), ErrSessionNotFound)
}

func TestSelectIndex(t *testing.T) {
	s := New()
	firstID := seedSession(t, s, "first question")
	require.NoError(t, s.StartSession())
	seedSession(t, s, "second question")

	require.NoError(t, s.SelectIndex(1))
	assert.Equal(t, firstID, s.ActiveID())
}

func TestUpdateLandsInInactiveSession(t *testing.T) {
	// A cancelled stream's final update may arrive after the user switched
	// sessions; it must still land on the right message.
	s := New()
	sub, err := s.Submit("prompt", nil)
	require.NoError(t, err)
	s.EndStream(sub.Reply.ID)

	require.NoError(t, s.StartSession())

	require.NoError(t, s.UpdateMessageContent(sub.Reply.ID, "late content"))
	assert.Equal(t, "late content", sub.Reply.Content)
}

func TestListOrder(t *testing.T) {
	s := New()
	firstID := seedSession(t, s, "first question")
	require.NoError(t, s.StartSession())
	secondID := seedSession(t, s, "second question")

	metas := s.List()
	require.Len(t, metas, 2)
	assert.Equal(t, firstID, metas[0].ID)
	assert.Equal(t, secondID, metas[1].ID)
}

func TestFormatSessionList(t *testing.T) {
	s := New()
	assert.Equal(t, "No sessions yet.", s.FormatSessionList())

	_, err := s.Submit("check the left knee", nil)
	require.NoError(t, err)

	out := s.FormatSessionList()
	assert.Contains(t, out, "Sessions:")
	assert.Contains(t, out, "check the left knee")
	assert.Contains(t, out, "*1")
}

func TestConcurrentSubmitSingleWinner(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	wins := make(chan *Submission, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sub, err := s.Submit("race", nil); err == nil {
				wins <- sub
			}
		}()
	}
	wg.Wait()
	close(wins)

	var count int
	for range wins {
		count++
	}
	assert.Equal(t, 1, count, "exactly one submit may take the stream slot")
	assert.Equal(t, 2, s.Active().MessageCount())
}

func TestStoreErrorIs(t *testing.T) {
	assert.ErrorIs(t, ErrBusy, ErrBusy)
	assert.NotErrorIs(t, ErrBusy, ErrEmptySubmit)
}

func TestSessionTitleFromSubmit(t *testing.T) {
	s := New()
	long := strings.Repeat("a", 80)
	_, err := s.Submit(long, nil)
	require.NoError(t, err)

	title := s.Active().GetTitle()
	assert.True(t, strings.HasSuffix(title, "..."))
	assert.Len(t, []rune(title), model.MaxTitleLen+3)
}
