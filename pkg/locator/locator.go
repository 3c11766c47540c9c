// Package locator finds the most recent prior snapshot under a destination
// root, if one exists.
package locator

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/showtak/pdumpfs/pkg/pathops"
)

var (
	yearPattern  = regexp.MustCompile(`^\d{4}$`)
	monthPattern = regexp.MustCompile(`^\d{2}$`)
	dayPattern   = regexp.MustCompile(`^\d{2}$`)
)

// Result is the most recent prior snapshot found under a destination root.
type Result struct {
	// Path is DestRoot/YYYY/MM/DD/BaseName.
	Path string
	Year, Month, Day int
}

// Find enumerates every path under destRoot matching the literal shape
// YYYY/MM/DD, sorts descending, and returns the first candidate that is a
// valid calendar date strictly before today and whose BaseName subdirectory
// exists. It returns ok=false when no such candidate exists.
func Find(destRoot, baseName string, today time.Time) (result Result, ok bool, err error) {
	candidates, err := enumerateDateDirs(destRoot)
	if err != nil {
		return Result{}, false, err
	}

	sort.Sort(sort.Reverse(sort.StringSlice(candidates)))

	todayDate := truncateToDate(today)

	for _, rel := range candidates {
		year, month, day, ok := parseDateDirComponents(rel)
		if !ok {
			continue
		}
		candidateDate := time.Date(year, time.Month(month), day, 0, 0, 0, 0, today.Location())
		if !candidateDate.Before(todayDate) {
			continue
		}
		snapshotPath := filepath.Join(destRoot, rel, baseName)
		info, statErr := os.Stat(snapshotPath)
		if statErr != nil || !info.IsDir() {
			continue
		}
		return Result{Path: snapshotPath, Year: year, Month: month, Day: day}, true, nil
	}
	return Result{}, false, nil
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// enumerateDateDirs walks destRoot exactly three levels deep, returning each
// survivor as a relative YYYY/MM/DD path, without validating it as a real
// calendar date yet.
func enumerateDateDirs(destRoot string) ([]string, error) {
	years, err := readMatchingDirs(destRoot, yearPattern)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []string
	for _, year := range years {
		yearPath := filepath.Join(destRoot, year)
		months, err := readMatchingDirs(yearPath, monthPattern)
		if err != nil {
			continue
		}
		for _, month := range months {
			monthPath := filepath.Join(yearPath, month)
			days, err := readMatchingDirs(monthPath, dayPattern)
			if err != nil {
				continue
			}
			for _, day := range days {
				out = append(out, filepath.Join(year, month, day))
			}
		}
	}
	return out, nil
}

func readMatchingDirs(dir string, pattern *regexp.Regexp) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if pattern.MatchString(e.Name()) {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// parseDateDirComponents parses a YYYY/MM/DD relative path into a valid
// calendar date, rejecting anything time.Date would silently normalize
// (e.g. month 13, day 32).
func parseDateDirComponents(rel string) (year, month, day int, ok bool) {
	segs := pathops.SplitAll(rel)
	if len(segs) != 3 {
		return 0, 0, 0, false
	}
	y, err1 := atoiStrict(segs[0], 4)
	m, err2 := atoiStrict(segs[1], 2)
	d, err3 := atoiStrict(segs[2], 2)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, false
	}
	if !isValidCalendarDate(y, m, d) {
		return 0, 0, 0, false
	}
	return y, m, d, true
}

func atoiStrict(s string, width int) (int, error) {
	if len(s) != width {
		return 0, errWrongWidth
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, errNotDigit
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

var (
	errWrongWidth = errorString("wrong width")
	errNotDigit   = errorString("not a digit")
)

type errorString string

func (e errorString) Error() string { return string(e) }

func isValidCalendarDate(year, month, day int) bool {
	if month < 1 || month > 12 {
		return false
	}
	if day < 1 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}
