package provider

import (
	"errors"
	"io/fs"
	"os"
	"regexp"
)

// FileHelpers abstracts the filesystem access of the file provider.
type FileHelpers interface {
	fileExists(string) (os.FileInfo, bool)
	readFile(string) ([]byte, error)
	regexCompile(string) (*regexp.Regexp, error)
}

type osHelpers struct{}

func (osHelpers) fileExists(path string) (os.FileInfo, bool) {
	finfo, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false
	}
	return finfo, true
}

func (osHelpers) readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (osHelpers) regexCompile(expr string) (*regexp.Regexp, error) {
	return regexp.Compile(expr)
}
