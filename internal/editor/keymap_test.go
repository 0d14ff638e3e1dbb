package editor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeChord(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Ctrl+Z", "mod+z"},
		{"cmd+shift+z", "mod+shift+z"},
		{"Shift+Meta+Z", "mod+shift+z"},
		{"ctrl+cmd+d", "mod+d"},
		{" Delete ", "delete"},
		{"shift", "shift"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeChord(tt.in); got != tt.want {
			t.Errorf("NormalizeChord(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHandleKey(t *testing.T) {
	s, saver, _ := newTestSession(t, docOf("a", "b"))
	ctx := context.Background()

	s.SelectBlock("a")
	cmd, err := s.HandleKey(ctx, "ctrl+d")
	require.NoError(t, err)
	assert.Equal(t, CmdDuplicate, cmd)
	assert.Len(t, s.Document(), 3)

	cmd, _ = s.HandleKey(ctx, "Delete")
	assert.Equal(t, CmdDelete, cmd)
	assert.Len(t, s.Document(), 2)

	s.HandleKey(ctx, "cmd+z")
	assert.Len(t, s.Document(), 3)
	s.HandleKey(ctx, "ctrl+y")
	assert.Len(t, s.Document(), 2)

	cmd, err = s.HandleKey(ctx, "mod+s")
	require.NoError(t, err)
	assert.Equal(t, CmdSave, cmd)
	assert.Len(t, saver.docs, 1)

	s.HandleKey(ctx, "mod+e")
	assert.Equal(t, ModePreview, s.Mode())

	cmd, err = s.HandleKey(ctx, "alt+q")
	assert.NoError(t, err)
	assert.Equal(t, CmdNone, cmd)
}
