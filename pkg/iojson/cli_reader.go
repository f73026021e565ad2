package iojson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// FileReader decodes a JSON document of type T from the file named by its
// --file flag, or from piped stdin when no file is given.
type FileReader[T any] struct {
	path  string
	stdin *os.File
}

// Flag returns the --file flag bound to the reader.
func (fr *FileReader[T]) Flag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "file",
		Aliases:     []string{"f"},
		Usage:       "path to a JSON file (reads piped stdin if not provided)",
		Destination: &fr.path,
	}
}

// Read decodes the input. ok is false when there is no file and stdin is an
// interactive terminal, which callers treat as "no JSON input".
func (fr *FileReader[T]) Read() (value T, ok bool, err error) {
	var reader io.Reader

	if fr.path != "" {
		f, err := os.Open(fr.path)
		if err != nil {
			return value, false, fmt.Errorf("open file: %w", err)
		}
		defer func() { _ = f.Close() }()
		reader = f
	} else {
		stdin := fr.stdin
		if stdin == nil {
			stdin = os.Stdin
		}
		if term.IsTerminal(int(stdin.Fd())) {
			return value, false, nil
		}
		reader = stdin
	}

	if err := json.NewDecoder(reader).Decode(&value); err != nil {
		if err == io.EOF {
			return value, false, nil
		}
		return value, false, fmt.Errorf("decode JSON: %w", err)
	}

	return value, true, nil
}
