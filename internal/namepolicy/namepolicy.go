// Package namepolicy implements the character-name validation rules the
// session state machine's GetName step applies, grounded in
// original_source game/src/core/nanny.c's name-check block. Reserved words
// and the homograph confusables/skeleton table are data, loaded from YAML
// the way the declarative content loaders read their tables
// (gopkg.in/yaml.v3), not hardcoded.
package namepolicy

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

type Table struct {
	MinLength   int               `yaml:"min_length"`
	MaxLength   int               `yaml:"max_length"`
	Reserved    []string          `yaml:"reserved"`
	Confusables map[string]string `yaml:"confusables"` // rune -> canonical skeleton rune
}

func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read name policy %s: %w", path, err)
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse name policy %s: %w", path, err)
	}
	if t.MinLength == 0 {
		t.MinLength = 2
	}
	if t.MaxLength == 0 {
		t.MaxLength = 12
	}
	return &t, nil
}

// Skeleton folds a name down to its confusables-normalized, lowercase form
// so "Ι1" and "Il" collide the way original nanny.c's homograph check
// intends — preventing visually indistinguishable duplicate names.
func (t *Table) Skeleton(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if repl, ok := t.Confusables[string(r)]; ok {
			b.WriteString(repl)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Validate applies the structural rules: letters only, length bounds, and
// rejection of reserved words. It does not check uniqueness or confusable
// collisions; Skeleton computes the folded form of a name, and no caller
// compares it against existing names.
func (t *Table) Validate(name string) error {
	if len([]rune(name)) < t.MinLength || len([]rune(name)) > t.MaxLength {
		return fmt.Errorf("name must be between %d and %d characters", t.MinLength, t.MaxLength)
	}
	for _, r := range name {
		if !unicode.IsLetter(r) {
			return fmt.Errorf("name must contain only letters")
		}
	}
	lower := strings.ToLower(name)
	for _, r := range t.Reserved {
		if strings.ToLower(r) == lower {
			return fmt.Errorf("that name is reserved")
		}
	}
	return nil
}
