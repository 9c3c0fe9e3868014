package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntry_Path(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		entry Entry
		want  string
	}{
		{"root dir dot", Entry{Dir: ".", Name: "a.txt"}, "a.txt"},
		{"root dir empty", Entry{Dir: "", Name: "a.txt"}, "a.txt"},
		{"subdir", Entry{Dir: "sub", Name: "a.txt"}, "sub/a.txt"},
		{"nested", Entry{Dir: "sub/deep", Name: "b.bin"}, "sub/deep/b.bin"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.entry.Path())
		})
	}
}

func TestReport_Count(t *testing.T) {
	t.Parallel()

	r := &Report{
		Entries: []Entry{
			{Name: "a", Class: ClassModified},
			{Name: "b", Class: ClassMissing},
			{Name: "c", Class: ClassAdded},
			{Name: "d", Class: ClassAdded},
		},
	}

	assert.Equal(t, 1, r.Count(ClassModified))
	assert.Equal(t, 1, r.Count(ClassMissing))
	assert.Equal(t, 2, r.Count(ClassAdded))
	assert.Equal(t, 0, r.Count(ClassError))
}

func TestReport_Failed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entries []Entry
		want    bool
	}{
		{"empty", nil, false},
		{"added only is a warning", []Entry{{Name: "a", Class: ClassAdded}}, false},
		{"modified fails", []Entry{{Name: "a", Class: ClassModified}}, true},
		{"missing fails", []Entry{{Name: "a", Class: ClassMissing}}, true},
		{"read error fails", []Entry{{Name: "a", Class: ClassError}}, true},
		{"mixed", []Entry{{Name: "a", Class: ClassAdded}, {Name: "b", Class: ClassMissing}}, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := &Report{Entries: tt.entries}
			assert.Equal(t, tt.want, r.Failed())
		})
	}
}

func TestFormatSize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0 B", FormatSize(0))
	assert.Equal(t, "0 B", FormatSize(-5))
	assert.Equal(t, "1.0 KiB", FormatSize(1024))
}
