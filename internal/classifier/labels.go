package classifier

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// InvalidLabel is returned by predictions that cannot be made and by ID
// lookups of unknown labels.
const InvalidLabel = -1

// LabelMap maps label strings to class ids and back. It is built once from
// the training corpus and persisted next to the model.
type LabelMap struct {
	ids    map[string]int
	labels map[int]string
}

// NewLabelMap assigns ids 0..n-1 to labels in the given order.
func NewLabelMap(labels []string) *LabelMap {
	m := newLabelMap()
	for i, label := range labels {
		m.set(label, i)
	}
	return m
}

func newLabelMap() *LabelMap {
	return &LabelMap{
		ids:    make(map[string]int),
		labels: make(map[int]string),
	}
}

func (m *LabelMap) set(label string, id int) {
	m.ids[label] = id
	m.labels[id] = label
}

// BuildLabelMap creates a map with one id per subdirectory of dataDir, in
// sorted name order.
func BuildLabelMap(dataDir string) (*LabelMap, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return NewLabelMap(names), nil
}

// LoadLabelMap reads a file of "<label> <id>" lines.
func LoadLabelMap(path string) (*LabelMap, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open label map: %w", err)
	}
	defer file.Close()

	m := newLabelMap()
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("label map %s:%d: expected \"<label> <id>\"", path, lineNo)
		}
		id, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("label map %s:%d: bad id: %w", path, lineNo, err)
		}
		if _, dup := m.ids[fields[0]]; dup {
			return nil, fmt.Errorf("label map %s:%d: duplicate label %q", path, lineNo, fields[0])
		}
		if other, dup := m.labels[id]; dup {
			return nil, fmt.Errorf("label map %s:%d: id %d already used by %q", path, lineNo, id, other)
		}
		m.set(fields[0], id)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read label map: %w", err)
	}
	return m, nil
}

// Save writes the map as "<label> <id>" lines sorted by label.
func (m *LabelMap) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	labels := make([]string, 0, len(m.ids))
	for label := range m.ids {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var b strings.Builder
	for _, label := range labels {
		fmt.Fprintf(&b, "%s %d\n", label, m.ids[label])
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write label map: %w", err)
	}
	return nil
}

// ID returns the id for label, or InvalidLabel.
func (m *LabelMap) ID(label string) int {
	if id, ok := m.ids[label]; ok {
		return id
	}
	return InvalidLabel
}

// Label returns the label for id, or "" when id is unknown.
func (m *LabelMap) Label(id int) string {
	return m.labels[id]
}

// Len returns the number of labels.
func (m *LabelMap) Len() int {
	return len(m.ids)
}

// Labels returns all labels ordered by id.
func (m *LabelMap) Labels() []string {
	ids := make([]int, 0, len(m.labels))
	for id := range m.labels {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = m.labels[id]
	}
	return out
}
