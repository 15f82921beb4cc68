package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sarchlab/l1sweep/geometry"
)

var errDuplicateHeading = errors.New("duplicate heading")

// ParseError reports a report that is missing a field or has a field that
// does not decode.
type ParseError struct {
	// Path is set when the report was read from a file.
	Path    string
	Section string
	Field   string

	// Line is the 1-based line of the offending token, 0 when the field was
	// not found at all.
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	var b strings.Builder

	b.WriteString("report")
	if e.Path != "" {
		b.WriteString(" " + e.Path)
	}

	if e.Section != "" {
		b.WriteString(": " + e.Section)
	}

	if e.Field != "" {
		b.WriteString(": " + e.Field)
	}

	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}

	fmt.Fprintf(&b, ": %v", e.Err)

	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseFile parses the report at path.
func ParseFile(path string) (SimulationResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return SimulationResult{}, &ParseError{Path: path, Section: "file", Err: err}
	}
	defer f.Close()

	res, err := Parse(f)
	if perr, ok := err.(*ParseError); ok {
		perr.Path = path
	}

	return res, err
}

// ParseString parses a report held in memory.
func ParseString(text string) (SimulationResult, error) {
	return Parse(strings.NewReader(text))
}

// Parse decodes a complete report. Either every required field is found and
// decoded, or an error is returned and the result is zero.
func Parse(r io.Reader) (SimulationResult, error) {
	sections, err := split(r)
	if err != nil {
		return SimulationResult{}, err
	}

	var res SimulationResult

	err = extract("parameters", sections.parameters, parameterFields, &res)
	if err != nil {
		return SimulationResult{}, err
	}

	for i := range res.Cores {
		name := fmt.Sprintf("core %d", i)
		if !sections.coreSeen[i] {
			return SimulationResult{}, &ParseError{
				Section: name,
				Err:     fmt.Errorf("heading %q not found", fmt.Sprintf(coreHeadingFormat, i)),
			}
		}

		err = extract(name, sections.cores[i], coreFields, &res.Cores[i])
		if err != nil {
			return SimulationResult{}, err
		}
	}

	if !sections.busSeen {
		return SimulationResult{}, &ParseError{
			Section: "bus",
			Err:     fmt.Errorf("heading %q not found", busHeading),
		}
	}

	err = extract("bus", sections.bus, busFields, &res.Bus)
	if err != nil {
		return SimulationResult{}, err
	}

	return res, nil
}

type sections struct {
	parameters []line
	cores      [geometry.NumCores][]line
	coreSeen   [geometry.NumCores]bool
	bus        []line
	busSeen    bool
}

// split assigns every line to the section whose heading precedes it.
func split(r io.Reader) (*sections, error) {
	s := &sections{}
	current := &s.parameters

	scanner := bufio.NewScanner(r)
	num := 0
	for scanner.Scan() {
		num++
		text := scanner.Text()
		trimmed := strings.TrimSpace(text)

		if core, ok := coreHeading(trimmed); ok {
			if core < 0 || core >= geometry.NumCores {
				return nil, &ParseError{
					Section: "core",
					Line:    num,
					Err:     fmt.Errorf("core %d out of range [0, %d)", core, geometry.NumCores),
				}
			}

			if s.coreSeen[core] {
				return nil, &ParseError{
					Section: fmt.Sprintf("core %d", core),
					Line:    num,
					Err:     errDuplicateHeading,
				}
			}

			s.coreSeen[core] = true
			current = &s.cores[core]
			continue
		}

		if trimmed == busHeading {
			if s.busSeen {
				return nil, &ParseError{
					Section: "bus",
					Line:    num,
					Err:     errDuplicateHeading,
				}
			}

			s.busSeen = true
			current = &s.bus
			continue
		}

		*current = append(*current, line{num: num, text: text})
	}

	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Section: "input", Line: num, Err: err}
	}

	return s, nil
}

func coreHeading(text string) (int, bool) {
	if !strings.HasPrefix(text, "Core ") || !strings.HasSuffix(text, "Statistics:") {
		return 0, false
	}

	var core int
	if _, err := fmt.Sscanf(text, coreHeadingFormat, &core); err != nil {
		return 0, false
	}

	return core, true
}
