package rules

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// List is an ordered set of compiled rules.
type List []Rule

// ParseOptions controls how rule text is parsed.
type ParseOptions struct {
	Logger *slog.Logger
	// ErrorLimit caps how many invalid rules are logged individually.
	// Zero disables the per-rule log lines, a negative value logs all of them.
	ErrorLimit int
}

// ParseStats summarises rule parsing results.
type ParseStats struct {
	TotalLines int
	Rules      int
	Invalid    int
	Duplicates int
}

type errorLimiter struct {
	limit int
	count int
}

// Parse reads newline delimited rule text. Blank lines and lines starting with
// "#" are skipped, repeated lines are kept once.
func Parse(r io.Reader, opts ParseOptions) (List, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	stats := ParseStats{}
	limiter := errorLimiter{limit: opts.ErrorLimit}
	seen := make(map[string]struct{})
	list := List{}

	scanner := bufio.NewScanner(r)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		stats.TotalLines++
		line := strings.TrimSpace(stripBOM(scanner.Text()))
		if line == "" || isCommentLine(line) {
			continue
		}
		if _, dup := seen[line]; dup {
			stats.Duplicates++
			continue
		}
		seen[line] = struct{}{}

		rule := Compile(line)
		if !rule.Valid() {
			stats.Invalid++
			limiter.log(logger, lineNum, rule)
		}
		list = append(list, rule)
		stats.Rules++
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan rules: %w", err)
	}

	limiter.summary(logger, stats.Invalid)
	logger.Debug("parsed rules", "rules", stats.Rules, "invalid", stats.Invalid, "duplicates", stats.Duplicates)
	return list, nil
}

// ParseText parses rule text held in memory.
func ParseText(text string, opts ParseOptions) (List, error) {
	return Parse(strings.NewReader(text), opts)
}

// LoadFile parses the rules stored in path.
func LoadFile(path string, opts ParseOptions) (List, error) {
	file, err := os.Open(path) // #nosec G304 -- path is provided by the user.
	if err != nil {
		return nil, fmt.Errorf("open rules: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log := opts.Logger
			if log == nil {
				log = slog.Default()
			}
			log.Warn("failed to close rules file", "error", err)
		}
	}()

	return Parse(file, opts)
}

// Valid returns the rules that can take part in matching.
func (l List) Valid() List {
	out := make(List, 0, len(l))
	for _, r := range l {
		if r.Valid() {
			out = append(out, r)
		}
	}
	return out
}

// Invalid returns the rules that failed to compile.
func (l List) Invalid() List {
	out := make(List, 0)
	for _, r := range l {
		if !r.Valid() {
			out = append(out, r)
		}
	}
	return out
}

// Of returns the rules of the given kind, in order.
func (l List) Of(kind Kind) List {
	out := make(List, 0)
	for _, r := range l {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

func (l *errorLimiter) log(logger *slog.Logger, lineNum int, rule Rule) {
	if l.limit == 0 {
		return
	}
	if l.limit > 0 && l.count >= l.limit {
		l.count++
		return
	}
	l.count++
	logger.Error(InvalidMessage(rule), "line", lineNum)
}

func (l *errorLimiter) summary(logger *slog.Logger, invalid int) {
	if l.limit <= 0 {
		return
	}
	if invalid > l.limit {
		logger.Warn("invalid rule errors suppressed", "errors", invalid, "logged", l.limit)
	}
}

func stripBOM(line string) string {
	return strings.TrimPrefix(line, "\ufeff")
}

func isCommentLine(line string) bool {
	return strings.HasPrefix(line, "#")
}
