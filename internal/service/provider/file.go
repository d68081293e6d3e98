package provider

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// File provider is responsible for loading the markdown from the filesystem.
type File struct {
	Helpers FileHelpers

	schemaRegex regexp.Regexp
}

// Init internal state.
func (f *File) Init() error {
	if f.Helpers == nil {
		f.Helpers = osHelpers{}
	}

	if err := f.initRegex(); err != nil {
		return fmt.Errorf("fail to initialize the regex expressions: %w", err)
	}

	return nil
}

// Authority checks if the file provider is responsible to load the source.
func (f File) Authority(uri string) bool {
	return f.schemaRegex.Match([]byte(uri))
}

// Fetch reads the file.
func (f File) Fetch(_ context.Context, uri string) ([]byte, error) {
	path := strings.TrimPrefix(uri, "file://")

	finfo, exists := f.Helpers.fileExists(path)
	if !exists {
		return nil, fmt.Errorf("file '%s' not found", path)
	}
	if finfo != nil && finfo.IsDir() {
		return nil, fmt.Errorf("'%s' expected to be a file", path)
	}

	payload, err := f.Helpers.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("fail to read the file '%s': %w", path, err)
	}
	return payload, nil
}

// initRegex accepts anything without a scheme, or with the 'file' scheme.
func (f *File) initRegex() error {
	expr := `^(file://.+|[^:]+)$`
	schema, err := f.Helpers.regexCompile(expr)
	if err != nil {
		return fmt.Errorf("fail to compile the expression '%s': %w", expr, err)
	}
	f.schemaRegex = *schema
	return nil
}
