package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("LAZYSTAGE_TEST_DIR", "/opt/stage")

	tests := []struct {
		in   string
		want string
	}{
		{in: "~", want: home},
		{in: "~/logs/debug.log", want: filepath.Join(home, "logs/debug.log")},
		{in: "$LAZYSTAGE_TEST_DIR/debug.log", want: "/opt/stage/debug.log"},
		{in: "/abs/path", want: "/abs/path"},
		{in: "~other/file", want: "~other/file"},
	}
	for _, tt := range tests {
		got, err := ExpandPath(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestElideMiddle(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{name: "fits", in: "foo.txt", width: 40, want: "foo.txt"},
		{name: "exact", in: "abcdefghij", width: 10, want: "abcdefghij"},
		{name: "elided", in: "internal/app/really_long_file_name.go", width: 20, want: "internal...e_name.go"},
		{name: "disabled", in: "anything at all", width: 0, want: "anything at all"},
		{name: "tiny width", in: "abcdefghij", width: 2, want: "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ElideMiddle(tt.in, tt.width)
			assert.Equal(t, tt.want, got)
			if tt.width > 0 {
				assert.LessOrEqual(t, runewidth.StringWidth(got), tt.width)
			}
		})
	}
}

func TestElideMiddleWideRunes(t *testing.T) {
	got := ElideMiddle("日本語のファイル名がとても長い.txt", 16)
	assert.LessOrEqual(t, runewidth.StringWidth(got), 16)
	assert.Contains(t, got, "...")
	assert.True(t, len(got) > 0 && got[len(got)-4:] == ".txt")
}
