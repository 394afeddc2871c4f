package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/moby/sys/atomicwriter"
)

// Add appends the packages missing from the manifest at path. A non-empty
// message is written once, as a trailing comment on the first added line.
func Add(path string, packages []string, message string) (added, present []string, err error) {
	for _, p := range packages {
		if err := ValidateName(p); err != nil {
			return nil, nil, err
		}
	}

	data, err := readExisting(path)
	if err != nil {
		return nil, nil, err
	}
	existing := Parse(strings.Split(string(data), "\n"))

	seen := make(map[string]bool, len(packages))
	for _, p := range packages {
		if seen[p] {
			continue
		}
		seen[p] = true
		if existing.Contains(p) {
			present = append(present, p)
		} else {
			added = append(added, p)
		}
	}
	if len(added) == 0 {
		return nil, present, nil
	}

	var b strings.Builder
	if len(data) > 0 && data[len(data)-1] != '\n' {
		b.WriteString("\n")
	}
	for i, p := range added {
		if i == 0 && message != "" {
			fmt.Fprintf(&b, "%s \t%s %s\n", p, CommentDelimiter, message)
			continue
		}
		b.WriteString(p + "\n")
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return nil, present, err
	}
	defer f.Close()
	if _, err := f.WriteString(b.String()); err != nil {
		return nil, present, fmt.Errorf("appending to %s: %w", path, err)
	}
	return added, present, nil
}

// Remove deletes the lines whose package name is one of packages. Comments
// and unrelated lines are kept as they are.
func Remove(path string, packages []string) (removed []string, err error) {
	data, err := readExisting(path)
	if err != nil {
		return nil, err
	}

	drop := NewPackageSet(packages...)
	found := mapset.NewSet[string]()
	lines := strings.SplitAfter(string(data), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if name, ok := ParseLine(line); ok && drop.Contains(name) {
			found.Add(name)
			continue
		}
		kept = append(kept, line)
	}
	if found.Cardinality() == 0 {
		return nil, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if err := atomicwriter.WriteFile(path, []byte(strings.Join(kept, "")), info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("rewriting %s: %w", path, err)
	}
	return PackageSet{set: found}.Sorted(), nil
}

func readExisting(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
	}
	return data, err
}
