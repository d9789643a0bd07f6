package domain

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	ArchiveExtension = ".tar.gz"

	// timestampLayout yields exactly 14 zero-padded digits, so archive names
	// of one backup sort chronologically as plain strings.
	timestampLayout = "20060102150405"
)

// ArchiveFilename returns the name of the archive created for backupName at now.
func ArchiveFilename(backupName string, now time.Time) string {
	return backupName + "-" + now.Format(timestampLayout) + ArchiveExtension
}

// ArchivePattern returns the anchored expression recognising archives of backupName.
func ArchivePattern(backupName string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(backupName) + `-\d{14}\.tar\.gz$`)
}

// MatchesBackupName reports whether filename is an archive belonging to backupName.
func MatchesBackupName(filename, backupName string) bool {
	return ArchivePattern(backupName).MatchString(filename)
}

// FilterMatching keeps the names recognised as archives of backupName.
func FilterMatching(names []string, backupName string) []string {
	pattern := ArchivePattern(backupName)

	matched := make([]string, 0, len(names))
	for _, name := range names {
		if pattern.MatchString(name) {
			matched = append(matched, name)
		}
	}
	return matched
}

// SortArchives returns the names in ascending (oldest first) order with duplicates removed.
func SortArchives(names []string) []string {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	unique := sorted[:0]
	for i, name := range sorted {
		if i > 0 && name == sorted[i-1] {
			continue
		}
		unique = append(unique, name)
	}
	return unique
}

// LatestArchive returns the most recent archive name.
func LatestArchive(names []string) (string, bool) {
	if len(names) == 0 {
		return "", false
	}

	latest := names[0]
	for _, name := range names[1:] {
		if strings.Compare(name, latest) > 0 {
			latest = name
		}
	}
	return latest, true
}
