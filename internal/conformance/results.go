package conformance

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/goliatone/go-jszoo/internal/logging"
	"github.com/goliatone/go-jszoo/pkg/interfaces"
)

// Aggregate score names.
const (
	ScoreES1ToES5   = "es1-es5"
	ScoreES2016Plus = "kangax-es2016plus"
)

const resultOK = "OK"

var (
	resultLine   = regexp.MustCompile(`^(([^:/]+)/([^:]+)): (.+)$`)
	classicDirs  = regexp.MustCompile(`^es[1-5]$`)
	yearlyKangax = regexp.MustCompile(`^kangax-es20..$`)
)

// FormatError reports a malformed results line.
type FormatError struct {
	Path string
	Line int
	Text string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s:%d: malformed result line: %q", e.Path, e.Line, e.Text)
}

// Test is one executed conformance test.
type Test struct {
	Test   string
	Dir    string
	Weight float64
	Result string
}

// Passed reports whether the test result is OK.
func (t Test) Passed() bool {
	return t.Result == resultOK
}

// Crashed reports whether the engine crashed or panicked on the test.
func (t Test) Crashed() bool {
	return strings.HasPrefix(t.Result, "crashed") || strings.HasPrefix(t.Result, "panic:")
}

// Record holds the parsed results of one engine.
type Record struct {
	Name         string
	ResultsPath  string
	Tests        []Test
	TestsByDir   map[string][]Test
	FailingByDir map[string][]Test
	Crashes      int
	CrashesByDir map[string]int
	// Scores holds per-directory and aggregate weighted pass ratios rounded
	// to four decimals.
	Scores map[string]float64
}

// ParseResults reads "<dir>/<test>: <result>" lines. Metadata lines and
// blank lines are skipped.
func ParseResults(name, resultsPath string, r io.Reader, weights Weights) (*Record, error) {
	rec := &Record{
		Name:         name,
		ResultsPath:  resultsPath,
		TestsByDir:   map[string][]Test{},
		FailingByDir: map[string][]Test{},
		CrashesByDir: map[string]int{},
		Scores:       map[string]float64{},
	}
	passed := map[string]float64{}
	total := map[string]float64{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" || strings.HasPrefix(line, "Metadata:") {
			continue
		}
		m := resultLine.FindStringSubmatch(line)
		if m == nil {
			return nil, &FormatError{Path: resultsPath, Line: lineNo, Text: line}
		}
		test := Test{Test: m[1], Dir: m[2], Weight: weights.Weight(m[1]), Result: m[4]}
		rec.Tests = append(rec.Tests, test)
		rec.TestsByDir[test.Dir] = append(rec.TestsByDir[test.Dir], test)

		total[test.Dir] += test.Weight
		if test.Passed() {
			passed[test.Dir] += test.Weight
		} else {
			rec.FailingByDir[test.Dir] = append(rec.FailingByDir[test.Dir], test)
		}
		if test.Crashed() {
			rec.Crashes++
			rec.CrashesByDir[test.Dir]++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("conformance: read %s: %w", resultsPath, err)
	}

	dirs := make([]string, 0, len(total))
	for dir := range total {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	for _, dir := range dirs {
		rec.Scores[dir] = round4(passed[dir] / total[dir])
	}
	aggregate := func(name string, match *regexp.Regexp) {
		var p, q float64
		for _, dir := range dirs {
			if match.MatchString(dir) {
				p += passed[dir]
				q += total[dir]
			}
		}
		if q > 0 {
			rec.Scores[name] = round4(p / q)
		}
	}
	aggregate(ScoreES1ToES5, classicDirs)
	aggregate(ScoreES2016Plus, yearlyKangax)

	return rec, nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Set indexes records by engine name.
type Set map[string]*Record

// Scores returns the score map of name.
func (s Set) Scores(name string) (map[string]float64, bool) {
	rec, ok := s[name]
	if !ok || rec == nil {
		return nil, false
	}
	return rec.Scores, true
}

// Record returns the record of id, falling back to the engine part of a
// variant identifier.
func (s Set) Record(id string) (*Record, bool) {
	if rec, ok := s[id]; ok {
		return rec, true
	}
	engine, _, found := strings.Cut(id, "_")
	if !found {
		return nil, false
	}
	rec, ok := s[engine]
	return rec, ok
}

// LoadResultsDir parses root/dir/*.txt. File names are "<id>[_full|_intl].txt";
// two files resolving to the same id are rejected. A missing directory
// yields an empty set.
func LoadResultsDir(ctx context.Context, root, dir string, weights Weights, logger interfaces.Logger) (Set, error) {
	if logger == nil {
		logger = logging.NoOp()
	}
	files, err := filepath.Glob(filepath.Join(root, dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("conformance: list %s: %w", dir, err)
	}
	sort.Strings(files)

	set := Set{}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		base := filepath.Base(file)
		name := strings.TrimSuffix(base, ".txt")
		name = strings.TrimSuffix(name, "_full")
		name = strings.TrimSuffix(name, "_intl")
		if _, dup := set[name]; dup {
			return nil, fmt.Errorf("conformance: %s: duplicate results for %q", file, name)
		}

		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("conformance: read %s: %w", file, err)
		}
		rec, err := ParseResults(name, path.Join(filepath.ToSlash(dir), base), bytes.NewReader(data), weights)
		if err != nil {
			return nil, err
		}
		logger.Debug("conformance.results.parsed", "file", file, "engine", name, "tests", len(rec.Tests), "crashes", rec.Crashes)
		set[name] = rec
	}
	return set, nil
}
