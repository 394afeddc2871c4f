package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name      string
		cached    []string
		desired   []string
		toInstall []string
		toDelete  []string
	}{
		{"everything removed", []string{"rst"}, nil, []string{}, []string{"rst"}},
		{"one added", []string{"foo"}, []string{"rst", "foo"}, []string{"rst"}, []string{}},
		{"replace", []string{"git", "old"}, []string{"git", "new"}, []string{"new"}, []string{"old"}},
		{"identical", []string{"a", "b"}, []string{"b", "a"}, []string{}, []string{}},
		{"both empty", nil, nil, []string{}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Diff(NewPackageSet(tt.cached...), NewPackageSet(tt.desired...))
			assert.Equal(t, tt.toInstall, c.ToInstall.Sorted())
			assert.Equal(t, tt.toDelete, c.ToDelete.Sorted())
			assert.Equal(t, len(tt.toInstall) == 0 && len(tt.toDelete) == 0, c.Empty())
		})
	}
}

func TestDiffProperties(t *testing.T) {
	a := NewPackageSet("a", "b", "c")
	b := NewPackageSet("b", "c", "d", "e")

	c := Diff(a, b)
	for _, name := range c.ToInstall.Sorted() {
		assert.False(t, c.ToDelete.Contains(name), "%s in both sets", name)
		assert.True(t, b.Contains(name))
		assert.False(t, a.Contains(name))
	}
	for _, name := range c.ToDelete.Sorted() {
		assert.True(t, a.Contains(name))
		assert.False(t, b.Contains(name))
	}
	assert.False(t, c.Empty())
	assert.True(t, Diff(b, b).Empty())
}

func TestDiffZeroValues(t *testing.T) {
	var cached PackageSet
	c := Diff(cached, NewPackageSet("git"))
	assert.Equal(t, []string{"git"}, c.ToInstall.Sorted())
	assert.True(t, c.ToDelete.IsEmpty())
}
