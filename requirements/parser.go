package requirements

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var (
	nameRe = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)
	// dot-separated numeric segments, the last one may carry a lowercase
	// pre-release suffix (1.20.0, 3.5, 1.0b1)
	versionRe = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*([a-z][0-9a-z]*)?$`)
)

// ParseError describes a line that could not be read as a specifier.
type ParseError struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// ParseErrors aggregates every bad line found in one pass, so callers can
// report all of them at once instead of stopping at the first.
type ParseErrors []ParseError

func (e ParseErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	reasons := make([]string, len(e))
	for i, pe := range e {
		reasons[i] = pe.Error()
	}
	return strings.Join(reasons, "; ")
}

// ParseLine reads a single manifest line. The second return value reports
// whether the line carried a requirement at all: blank lines and full-line
// comments return (zero, false, nil).
func ParseLine(line string, lineno int) (Requirement, bool, error) {
	text := line
	comment := ""
	if idx := strings.Index(text, "#"); idx >= 0 {
		comment = strings.TrimSpace(text[idx+1:])
		text = text[:idx]
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Requirement{}, false, nil
	}

	opIdx := -1
	op := ""
	for _, candidate := range Ops {
		idx := strings.Index(text, candidate)
		if idx < 0 {
			continue
		}
		// Ops is ordered longest first, so ">=" wins over ">" at the same
		// offset; across offsets the earliest occurrence wins.
		if opIdx < 0 || idx < opIdx {
			opIdx = idx
			op = candidate
		}
	}
	if opIdx < 0 {
		return Requirement{}, false, ParseError{Line: lineno, Text: strings.TrimSpace(line), Reason: "missing version comparator"}
	}

	name := strings.TrimSpace(text[:opIdx])
	version := strings.TrimSpace(text[opIdx+len(op):])
	if name == "" {
		return Requirement{}, false, ParseError{Line: lineno, Text: strings.TrimSpace(line), Reason: "missing package name"}
	}
	if !nameRe.MatchString(name) {
		return Requirement{}, false, ParseError{Line: lineno, Text: strings.TrimSpace(line), Reason: fmt.Sprintf("invalid package name %q", name)}
	}
	if version == "" {
		return Requirement{}, false, ParseError{Line: lineno, Text: strings.TrimSpace(line), Reason: "missing version"}
	}
	if !versionRe.MatchString(version) {
		return Requirement{}, false, ParseError{Line: lineno, Text: strings.TrimSpace(line), Reason: fmt.Sprintf("invalid version %q", version)}
	}

	return Requirement{Name: name, Op: op, Version: version, Line: lineno, Comment: comment}, true, nil
}

// Parse reads a whole manifest. It keeps going past bad lines and returns the
// requirements it could read together with a ParseErrors holding every
// failure; err is nil when the whole file parsed.
func Parse(r io.Reader) (*Manifest, error) {
	manifest := &Manifest{}
	var errs ParseErrors

	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		req, ok, err := ParseLine(scanner.Text(), lineno)
		if err != nil {
			var pe ParseError
			if perr, isPE := err.(ParseError); isPE {
				pe = perr
			} else {
				pe = ParseError{Line: lineno, Reason: err.Error()}
			}
			errs = append(errs, pe)
			parseLineResult("error")
			continue
		}
		if !ok {
			continue
		}
		manifest.Requirements = append(manifest.Requirements, req)
		parseLineResult("ok")
	}
	if err := scanner.Err(); err != nil {
		return manifest, ParseErrors{{Line: lineno, Reason: err.Error()}}
	}
	if len(errs) > 0 {
		return manifest, errs
	}
	return manifest, nil
}

// ParseString parses a manifest held in memory.
func ParseString(s string) (*Manifest, error) {
	return Parse(strings.NewReader(s))
}

// ParseFile parses a manifest from disk.
func ParseFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}
