// Package manifest reads package manifests: plain text files listing one
// package name per line, with '#' starting a comment.
package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// CommentDelimiter starts a whole-line or trailing comment.
const CommentDelimiter = "#"

// MaxLineSize bounds a single manifest line, comments included.
const MaxLineSize = 1 << 20

// ErrManifestNotFound is returned when a manifest file does not exist.
var ErrManifestNotFound = errors.New("manifest not found")

// PackageSet is an unordered set of normalized package names.
// The zero value is an empty set.
type PackageSet struct {
	set mapset.Set[string]
}

func NewPackageSet(names ...string) PackageSet {
	return PackageSet{set: mapset.NewSet[string](names...)}
}

func (s PackageSet) items() mapset.Set[string] {
	if s.set == nil {
		return mapset.NewSet[string]()
	}
	return s.set
}

func (s PackageSet) Len() int {
	if s.set == nil {
		return 0
	}
	return s.set.Cardinality()
}

func (s PackageSet) IsEmpty() bool {
	return s.Len() == 0
}

func (s PackageSet) Contains(name string) bool {
	return s.set != nil && s.set.Contains(name)
}

func (s PackageSet) Equal(other PackageSet) bool {
	return s.items().Equal(other.items())
}

// Sorted returns the names in lexicographic order.
func (s PackageSet) Sorted() []string {
	names := s.items().ToSlice()
	sort.Strings(names)
	return names
}

func (s PackageSet) String() string {
	return strings.Join(s.Sorted(), ", ")
}

// ParseLine returns the package name held by a single manifest line, if any.
func ParseLine(line string) (string, bool) {
	if i := strings.Index(line, CommentDelimiter); i >= 0 {
		line = line[:i]
	}
	name := strings.TrimSpace(line)
	return name, name != ""
}

// Parse turns raw manifest lines into a PackageSet. Comments and blank lines
// are dropped and duplicates collapse. Names are not validated here.
func Parse(lines []string) PackageSet {
	set := mapset.NewSet[string]()
	for _, line := range lines {
		if name, ok := ParseLine(line); ok {
			set.Add(name)
		}
	}
	return PackageSet{set: set}
}

func ParseReader(r io.Reader) (PackageSet, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return PackageSet{}, err
	}
	return Parse(lines), nil
}

// ReadFile parses the manifest at path. A missing file yields
// ErrManifestNotFound and an empty set.
func ReadFile(path string) (PackageSet, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewPackageSet(), fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		return NewPackageSet(), err
	}
	defer f.Close()

	set, err := ParseReader(f)
	if err != nil {
		return NewPackageSet(), fmt.Errorf("reading %s: %w", path, err)
	}
	return set, nil
}
