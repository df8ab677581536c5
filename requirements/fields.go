package requirements

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger replaces the package logger. The host service calls this once at
// startup so domain logs share the service formatter.
func SetLogger(l *logrus.Logger) {
	if l != nil {
		log = l
	}
}

// Comparators accepted in a requirement specifier. EqOp must be tried before
// the single-character forms when scanning a line.
const (
	GteOp = ">="
	EqOp  = "=="
	LteOp = "<="
	GtOp  = ">"
	LtOp  = "<"
)

// Ops lists the accepted comparators, longest first.
var Ops = []string{GteOp, EqOp, LteOp, GtOp, LtOp}

// Requirement is a single parsed specifier: one package name, one comparator
// and one version. Line is the 1-based source line it was read from, zero for
// requirements built programmatically. Comment carries a trailing comment
// stripped off the specifier, without the leading '#'.
type Requirement struct {
	Name    string `json:"name" binding:"required,reqname"`
	Op      string `json:"op" binding:"required,oneof=>= == <= > <"`
	Version string `json:"version" binding:"required,reqversion"`
	Line    int    `json:"line,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// Key returns the normalized package name used for lookups and duplicate
// detection.
func (r Requirement) Key() string {
	return Normalize(r.Name)
}

// Specifier renders the requirement back into manifest form, comments and
// surrounding whitespace dropped.
func (r Requirement) Specifier() string {
	return r.Name + r.Op + r.Version
}

// Same reports whether two requirements carry the same (name, op, version)
// triple. Names are compared normalized, source line and comment are ignored.
func (r Requirement) Same(other Requirement) bool {
	return r.Key() == other.Key() && r.Op == other.Op && r.Version == other.Version
}

// Normalize lowercases a package name and collapses runs of '-', '_' and '.'
// into a single '-', following the registry convention pip itself uses.
func Normalize(name string) string {
	var out strings.Builder
	lastSep := false
	for _, c := range strings.ToLower(name) {
		if c == '-' || c == '_' || c == '.' {
			lastSep = true
			continue
		}
		if lastSep && out.Len() > 0 {
			out.WriteByte('-')
		}
		lastSep = false
		out.WriteRune(c)
	}
	return out.String()
}

// Manifest is an ordered collection of requirements parsed from a single
// file. Order is first-seen source order; comments and blank lines are not
// retained beyond each requirement's trailing comment.
type Manifest struct {
	Requirements []Requirement `json:"requirements"`
}

// Set returns the manifest as a map keyed by normalized package name. Later
// duplicates overwrite earlier ones; Validate is the place that rejects them.
func (m *Manifest) Set() map[string]Requirement {
	set := make(map[string]Requirement, len(m.Requirements))
	for _, r := range m.Requirements {
		set[r.Key()] = r
	}
	return set
}

// Names returns the normalized package names in sorted order.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Requirements))
	for key := range m.Set() {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether two manifests describe the same requirement set,
// ignoring order, comments and source lines.
func (m *Manifest) Equal(other *Manifest) bool {
	if m == nil || other == nil {
		return m == other
	}
	a, b := m.Set(), other.Set()
	if len(a) != len(b) {
		return false
	}
	for key, req := range a {
		got, ok := b[key]
		if !ok || !req.Same(got) {
			return false
		}
	}
	return true
}

// Serialize renders the manifest in canonical form: one specifier per line in
// first-seen order, comments and blank lines dropped. Parsing the output
// yields a manifest Equal to the receiver.
func (m *Manifest) Serialize() string {
	var out strings.Builder
	for _, r := range m.Requirements {
		out.WriteString(r.Specifier())
		out.WriteByte('\n')
	}
	return out.String()
}

// Violation is a validation finding tied to a source line.
type Violation struct {
	Line    int    `json:"line,omitempty"`
	Package string `json:"package,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (v Violation) Error() string {
	if v.Line > 0 {
		return fmt.Sprintf("line %d: %s", v.Line, v.Message)
	}
	return v.Message
}

// Validate checks manifest-level rules on an already-parsed manifest: every
// package name must be unique after normalization.
func (m *Manifest) Validate() []Violation {
	var violations []Violation
	seen := make(map[string]Requirement, len(m.Requirements))
	for _, r := range m.Requirements {
		key := r.Key()
		if first, ok := seen[key]; ok {
			violations = append(violations, Violation{
				Line:    r.Line,
				Package: r.Name,
				Code:    "duplicate_package",
				Message: fmt.Sprintf("package %q already listed on line %d", r.Name, first.Line),
			})
			continue
		}
		seen[key] = r
	}
	return violations
}
