package storage

import (
	"fmt"
	"path"
	"regexp"
	"time"
)

var keyComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildOutputKey lays out published pipeline outputs as
// <dataset>/date=YYYY-MM-DD/<fileName> so object listings group runs by
// day.
func BuildOutputKey(dataset string, runTime time.Time, fileName string) (string, error) {
	if err := validateKeyComponent(dataset, "dataset"); err != nil {
		return "", err
	}
	if err := validateKeyComponent(fileName, "file name"); err != nil {
		return "", err
	}

	ts := runTime.UTC()
	return path.Join(
		dataset,
		fmt.Sprintf("date=%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		fileName,
	), nil
}

func validateKeyComponent(value, field string) error {
	if !keyComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
