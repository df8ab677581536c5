package requirements

import (
	"strconv"
	"strings"
)

type versionSegment struct {
	num    int
	suffix string
}

func parseVersion(v string) []versionSegment {
	parts := strings.Split(v, ".")
	segments := make([]versionSegment, 0, len(parts))
	for _, part := range parts {
		cut := len(part)
		for i, c := range part {
			if c < '0' || c > '9' {
				cut = i
				break
			}
		}
		num, _ := strconv.Atoi(part[:cut])
		segments = append(segments, versionSegment{num: num, suffix: part[cut:]})
	}
	return segments
}

// CompareVersions orders two dotted versions. Missing segments count as zero,
// so "3.5" equals "3.5.0". A segment with a pre-release suffix sorts before
// the bare numeric segment ("1.0b1" < "1.0").
func CompareVersions(a, b string) int {
	as, bs := parseVersion(a), parseVersion(b)
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		var sa, sb versionSegment
		if i < len(as) {
			sa = as[i]
		}
		if i < len(bs) {
			sb = bs[i]
		}
		if sa.num != sb.num {
			if sa.num < sb.num {
				return -1
			}
			return 1
		}
		if sa.suffix != sb.suffix {
			// empty suffix is the release, which sorts last
			if sa.suffix == "" {
				return 1
			}
			if sb.suffix == "" {
				return -1
			}
			if sa.suffix < sb.suffix {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Matches reports whether a concrete version satisfies the requirement's
// constraint.
func (r Requirement) Matches(version string) bool {
	cmp := CompareVersions(version, r.Version)
	switch r.Op {
	case GteOp:
		return cmp >= 0
	case EqOp:
		return cmp == 0
	case LteOp:
		return cmp <= 0
	case GtOp:
		return cmp > 0
	case LtOp:
		return cmp < 0
	}
	return false
}

func lowerBound(r Requirement) bool { return r.Op == GteOp || r.Op == GtOp }
func upperBound(r Requirement) bool { return r.Op == LteOp || r.Op == LtOp }

// Conflicts reports whether two constraints on the same package exclude each
// other, meaning no version can satisfy both. Constraints on different
// packages never conflict. Open intervals are treated as conflicting when the
// bounds touch (">1.0" with "<1.0" has no room between them; ">1.0" with
// "<=1.0" neither).
func Conflicts(a, b Requirement) bool {
	if a.Key() != b.Key() {
		return false
	}
	if a.Op == EqOp && b.Op == EqOp {
		return CompareVersions(a.Version, b.Version) != 0
	}
	if a.Op == EqOp {
		return !b.Matches(a.Version)
	}
	if b.Op == EqOp {
		return !a.Matches(b.Version)
	}

	var lo, hi Requirement
	switch {
	case lowerBound(a) && upperBound(b):
		lo, hi = a, b
	case upperBound(a) && lowerBound(b):
		lo, hi = b, a
	default:
		// same direction, the tighter bound wins but both are satisfiable
		return false
	}

	cmp := CompareVersions(lo.Version, hi.Version)
	if cmp > 0 {
		return true
	}
	if cmp < 0 {
		return false
	}
	// bounds are equal: only ">=v" with "<=v" leaves v itself
	return lo.Op == GtOp || hi.Op == LtOp
}

// AuditFailure records one package whose installed version does not satisfy
// the manifest.
type AuditFailure struct {
	Requirement Requirement `json:"requirement"`
	Installed   string      `json:"installed"`
}

// AuditReport is the result of checking a manifest against a concrete
// installed set.
type AuditReport struct {
	Missing     []Requirement  `json:"missing"`
	Unsatisfied []AuditFailure `json:"unsatisfied"`
	Satisfied   int            `json:"satisfied"`
}

// Ok reports whether every requirement was present and satisfied.
func (a AuditReport) Ok() bool {
	return len(a.Missing) == 0 && len(a.Unsatisfied) == 0
}

// Audit checks every requirement against installed, a map of package name to
// concrete version. Keys are normalized before lookup, so callers may pass
// names in any of the spellings the manifest accepts.
func (m *Manifest) Audit(installed map[string]string) AuditReport {
	byKey := make(map[string]string, len(installed))
	for name, version := range installed {
		byKey[Normalize(name)] = version
	}
	var report AuditReport
	for _, r := range m.Requirements {
		version, ok := byKey[r.Key()]
		if !ok {
			report.Missing = append(report.Missing, r)
			continue
		}
		if !r.Matches(version) {
			report.Unsatisfied = append(report.Unsatisfied, AuditFailure{Requirement: r, Installed: version})
			continue
		}
		report.Satisfied++
	}
	return report
}
