package editor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func heroDoc() Document {
	return Document{
		{ID: "hero", Type: TypeHero, Content: Content{"title": "Welcome", "subtitle": "Sub"}},
		{ID: "txt", Type: TypeText, Content: Content{"text": "<p>x</p>"}},
	}
}

func TestInlineEdit_EscapeRestores(t *testing.T) {
	s, _, _ := newTestSession(t, heroDoc())

	e, ok := s.BeginEdit("hero", "title")
	require.True(t, ok)
	assert.Equal(t, "Welcome", e.Original())
	assert.Equal(t, "hero", s.Selected())

	e.Input("Hi")
	assert.False(t, e.Key(KeyEscape, false))
	assert.Equal(t, "Welcome", e.Value())
	assert.Nil(t, s.Editing())
	assert.Equal(t, 1, s.History().Len())
}

func TestInlineEdit_EnterCommitsSingleLine(t *testing.T) {
	s, _, _ := newTestSession(t, heroDoc())

	e, _ := s.BeginEdit("hero", "title")
	e.Input("Hi")
	assert.False(t, e.Key(KeyEnter, false))

	got, _ := FindByID(s.Document(), "hero")
	assert.Equal(t, "Hi", got.Content["title"])
	assert.Equal(t, 2, s.History().Len())
}

func TestInlineEdit_LineBreaks(t *testing.T) {
	s, _, _ := newTestSession(t, heroDoc())

	e, _ := s.BeginEdit("hero", "title")
	e.Input("one")
	assert.True(t, e.Key(KeyEnter, true))
	assert.Equal(t, "one<br>", e.Value())

	e2, _ := s.BeginEdit("txt", "text")
	assert.False(t, e.Active(), "opening another edit commits the first")
	hero, _ := FindByID(s.Document(), "hero")
	assert.Equal(t, "one<br>", hero.Content["title"])

	assert.True(t, e2.Multiline())
	assert.True(t, e2.Key(KeyEnter, false))
	assert.True(t, e2.Active())
	assert.True(t, e2.Blur())
	txt, _ := FindByID(s.Document(), "txt")
	assert.Equal(t, "<p>x</p><br>", txt.Content["text"])
}

func TestInlineEdit_ConfirmCommitsMultiline(t *testing.T) {
	s, _, _ := newTestSession(t, heroDoc())

	e, ok := s.BeginEdit("txt", "text")
	require.True(t, ok)
	require.True(t, e.Multiline())
	e.Input("<p>y</p>")
	assert.False(t, e.Key(KeyConfirm, false))
	assert.Nil(t, s.Editing())

	txt, _ := FindByID(s.Document(), "txt")
	assert.Equal(t, "<p>y</p>", txt.Content["text"])
	assert.Equal(t, 2, s.History().Len())

	e, _ = s.BeginEdit("hero", "title")
	e.Input("Hi")
	cmd, err := s.HandleKey(context.Background(), "Ctrl+Enter")
	require.NoError(t, err)
	assert.Equal(t, CmdCommitEdit, cmd)
	assert.False(t, e.Active())
	hero, _ := FindByID(s.Document(), "hero")
	assert.Equal(t, "Hi", hero.Content["title"])

	cmd, _ = s.HandleKey(context.Background(), "mod+enter")
	assert.Equal(t, CmdNone, cmd, "nothing to commit")
}

func TestInlineEdit_UnchangedCommitRecordsNothing(t *testing.T) {
	s, _, _ := newTestSession(t, heroDoc())
	e, _ := s.BeginEdit("hero", "title")
	assert.False(t, e.Commit())
	assert.Equal(t, 1, s.History().Len())
}

func TestInlineEdit_OnlyTextFields(t *testing.T) {
	s, _, _ := newTestSession(t, heroDoc())

	_, ok := s.BeginEdit("hero", "align")
	assert.False(t, ok)
	_, ok = s.BeginEdit("ghost", "title")
	assert.False(t, ok)

	e1, _ := s.BeginEdit("hero", "subtitle")
	e2, _ := s.BeginEdit("hero", "subtitle")
	assert.Same(t, e1, e2)
}

func TestInlineEdit_FallsBackToDefault(t *testing.T) {
	s, _, _ := newTestSession(t, Document{{ID: "h", Type: TypeHeading, Content: Content{"text": 42.0}}})
	e, ok := s.BeginEdit("h", "text")
	require.True(t, ok)
	assert.Equal(t, "Heading", e.Value())
}

func TestInlineEdit_DeleteKeyBelongsToText(t *testing.T) {
	s, _, _ := newTestSession(t, heroDoc())
	_, ok := s.BeginEdit("hero", "title")
	require.True(t, ok)

	cmd, err := s.HandleKey(context.Background(), "Backspace")
	assert.NoError(t, err)
	assert.Equal(t, CmdNone, cmd)
	assert.Len(t, s.Document(), 2)
}
