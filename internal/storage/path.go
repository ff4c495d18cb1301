package storage

import (
	"fmt"
	"path"
	"regexp"
	"time"
)

var fileNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9 ._-]{0,127}$`)

// BuildUploadPath places a staged source file under a per-day prefix so
// retention sweeps can operate on whole days.
func BuildUploadPath(subject, fileName string, uploadedAt time.Time) (string, error) {
	if err := validateFileName(subject, "subject"); err != nil {
		return "", err
	}
	if err := validateFileName(fileName, "file name"); err != nil {
		return "", err
	}
	ts := uploadedAt.UTC()
	return path.Join(
		"uploads",
		fmt.Sprintf("date=%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		subject,
		fileName,
	), nil
}

// BuildExportPath names an exported result file for one session.
func BuildExportPath(sessionID, format string, exportedAt time.Time) (string, error) {
	if err := validateFileName(sessionID, "session id"); err != nil {
		return "", err
	}
	if format != "parquet" && format != "csv" {
		return "", fmt.Errorf("unsupported export format: %q", format)
	}
	ts := exportedAt.UTC()
	return path.Join(
		"exports",
		sessionID,
		fmt.Sprintf("result-%d.%s", ts.UnixMilli(), format),
	), nil
}

func validateFileName(value, field string) error {
	if !fileNamePattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
