package model

import (
	"fmt"
	"os"
	"strings"
)

// DefaultCandidates are probed in order when no explicit path is configured.
var DefaultCandidates = []string{
	"Models/XGB-Model.json",
	"models/XGB-Model.json",
	"XGB-Model.json",
	"XGB-Best-Model.json",
}

// Locate returns the first candidate that is an existing regular file.
func Locate(candidates []string) (string, error) {
	for _, path := range candidates {
		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrModelNotFound, strings.Join(candidates, ", "))
}
