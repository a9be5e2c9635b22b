package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/shootplan/api/schedule"
)

// Output formats.
const (
	formatJSON = "json"
	formatCSV  = "csv"
)

// readInput decodes the file at path into dst by extension, then validates
// it. "-" reads JSON from stdin.
func readInput(path string, stdin io.Reader, dst any) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, dst)
	case ".json", "":
		err = json.Unmarshal(data, dst)
	default:
		return fmt.Errorf("unsupported input format: %s", ext)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return schedule.NewValidator().Struct(dst)
}

func checkFormat(format string) error {
	switch format {
	case formatJSON, formatCSV:
		return nil
	}
	return fmt.Errorf("unknown format %q: want json or csv", format)
}

// writeOutput runs fn against stdout for "" and "-", otherwise against a
// created file whose close error is returned.
func writeOutput(path string, stdout io.Writer, fn func(io.Writer) error) (err error) {
	if path == "" || path == "-" {
		return fn(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return fn(f)
}
