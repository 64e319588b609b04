// Package orgmode reads TODO headlines with deadlines out of Org-mode files.
package orgmode

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/harrisonrobin/tugas/pkg/model"
)

// Entry is one headline that can become a task.
type Entry struct {
	Text      string
	Completed bool
	Deadline  time.Time
	Tags      []string
	Source    string
}

// Fields converts the entry into a task payload.
func (e Entry) Fields() model.Fields {
	return model.Fields{
		Text:      e.Text,
		Completed: e.Completed,
		Deadline:  model.FormatDeadline(e.Deadline),
	}
}

var (
	headlineRegex = regexp.MustCompile(`^\*+\s+(TODO|DONE)\s+(?:\[#[A-Z]\]\s*)?(.*?)(?:\s+(:[\w@:]+:))?\s*$`)
	deadlineRegex = regexp.MustCompile(`DEADLINE:\s+<(\d{4}-\d{2}-\d{2})(?:\s+[A-Za-z]{2,3}\.?)?(?:\s+(\d{1,2}:\d{2}))?[^>]*>`)
	anyHeadline   = regexp.MustCompile(`^\*+\s`)
)

// ParseFiles parses every file in order.
func ParseFiles(filePaths []string) ([]Entry, error) {
	var all []Entry
	for _, filePath := range filePaths {
		entries, err := parseFile(filePath)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	return all, nil
}

func parseFile(filePath string) ([]Entry, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Parse(file, filePath)
}

// Parse returns the TODO and DONE headlines of r that carry a DEADLINE.
// A deadline without a time of day is due at the end of that day.
func Parse(r io.Reader, source string) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	var entries []Entry
	var current *Entry

	flush := func() {
		if current != nil && current.Text != "" && !current.Deadline.IsZero() {
			entries = append(entries, *current)
		}
		current = nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if anyHeadline.MatchString(line) {
			flush()
			matches := headlineRegex.FindStringSubmatch(line)
			if matches == nil {
				continue
			}
			current = &Entry{
				Text:      strings.TrimSpace(matches[2]),
				Completed: matches[1] == "DONE",
				Source:    source,
			}
			if matches[3] != "" {
				current.Tags = strings.Split(strings.Trim(matches[3], ":"), ":")
			}
			continue
		}
		if current == nil {
			continue
		}
		if matches := deadlineRegex.FindStringSubmatch(line); matches != nil {
			if deadline, ok := parseDeadline(matches[1], matches[2]); ok {
				current.Deadline = deadline
			}
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func parseDeadline(date, clock string) (time.Time, bool) {
	if clock == "" {
		day, err := time.ParseInLocation("2006-01-02", date, time.Local)
		if err != nil {
			return time.Time{}, false
		}
		y, m, d := day.Date()
		return time.Date(y, m, d, 23, 59, 0, 0, time.Local), true
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FilterEntries keeps the entries carrying tag. An empty tag keeps everything.
func FilterEntries(entries []Entry, tag string) []Entry {
	if tag == "" {
		return entries
	}
	var filtered []Entry
	for _, e := range entries {
		for _, t := range e.Tags {
			if t == tag {
				filtered = append(filtered, e)
				break
			}
		}
	}
	return filtered
}
