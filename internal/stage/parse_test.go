package stage

import (
	"strings"
	"testing"

	"github.com/chmouel/lazystage/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSampleStatus(t *testing.T) {
	snap := Parse(strings.Split(sampleStatus, "\n"))

	assert.Equal(t, []string{"foo.txt", "bar.txt"}, models.Paths(snap.Unstaged))
	assert.Equal(t, []string{"baz.txt"}, models.Paths(snap.Staged))
	assert.Equal(t, " M", snap.Unstaged[0].Code)
	assert.Equal(t, "??", snap.Unstaged[1].Code)
	assert.Equal(t, "A ", snap.Staged[0].Code)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		line   string
		path   string
		staged bool
	}{
		{line: " M src/main.go", path: "src/main.go", staged: false},
		{line: " D gone.txt", path: "gone.txt", staged: false},
		{line: "?? new dir/file.txt", path: "new dir/file.txt", staged: false},
		{line: "M  staged.go", path: "staged.go", staged: true},
		{line: "MM both.go", path: "both.go", staged: true},
		{line: "A  added.go", path: "added.go", staged: true},
		{line: "D  removed.go", path: "removed.go", staged: true},
		{line: "R  old.go -> new.go", path: "old.go -> new.go", staged: true},
		{line: "UU conflict.go", path: "conflict.go", staged: true},
		{line: "!! ignored.log", path: "ignored.log", staged: true},
		{line: `?? "tab\there"`, path: `"tab\there"`, staged: false},
		{line: "?? güncelle.md", path: "güncelle.md", staged: false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			entry, ok := Classify(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.path, entry.Path)
			assert.Equal(t, tt.staged, entry.Staged)
		})
	}
}

func TestClassifySkipsShortLines(t *testing.T) {
	for _, line := range []string{"", " ", "M", "?? "} {
		_, ok := Classify(line)
		assert.False(t, ok, "line %q", line)
	}
}

func TestEveryLineLandsInExactlyOneBucket(t *testing.T) {
	codes := []byte(" MADRCU?!T")
	var lines []string
	for _, x := range codes {
		for _, y := range codes {
			lines = append(lines, string([]byte{x, y})+" file-"+string([]byte{x, y}))
		}
	}

	snap := Parse(lines)
	require.Equal(t, len(lines), len(snap.Unstaged)+len(snap.Staged))

	seen := map[string]int{}
	for _, e := range snap.Unstaged {
		seen[e.Path]++
		assert.True(t, e.Code[0] == ' ' || e.Code == "??", "unstaged entry %q", e.Code)
	}
	for _, e := range snap.Staged {
		seen[e.Path]++
		assert.False(t, e.Code[0] == ' ' || e.Code == "??", "staged entry %q", e.Code)
	}
	for _, n := range seen {
		assert.Equal(t, 1, n)
	}
}

func TestParseKeepsGitOrder(t *testing.T) {
	snap := Parse([]string{"?? c.txt", "?? a.txt", "M  z.txt", "?? b.txt", "A  y.txt"})
	assert.Equal(t, []string{"c.txt", "a.txt", "b.txt"}, models.Paths(snap.Unstaged))
	assert.Equal(t, []string{"z.txt", "y.txt"}, models.Paths(snap.Staged))
}
