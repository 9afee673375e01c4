package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//maxCollisionSuffix is the last numeric suffix tried by createCollisionFreeName
const maxCollisionSuffix = 99

var errCollisionAvoidanceFailed = errors.New("unable to avoid file name collision, using returned name may overwrite data")

//defaultCreateCollisionFreeName is a convenience wrapper for createCollisionFreeName checking for
//collision using os.Stat
func defaultCreateCollisionFreeName(outPath string) (string, error) {
	return createCollisionFreeName(outPath, func(path string) bool {
		_, err := os.Stat(path)
		return !os.IsNotExist(err)
	})
}

//createCollisionFreeName checks if outPath already exists and tries the suffixes -1 to -99 in front of the
//extension to find an unused name. If all are taken errCollisionAvoidanceFailed is returned together with
//the last candidate
func createCollisionFreeName(outPath string, doesFileExist func(path string) bool) (string, error) {
	if !doesFileExist(outPath) {
		return outPath, nil
	}
	dir := filepath.Dir(outPath)
	base := filepath.Base(outPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	candidate := outPath
	for suffix := 1; suffix <= maxCollisionSuffix; suffix++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%v-%v%v", stem, suffix, ext))
		if !doesFileExist(candidate) {
			return candidate, nil
		}
	}
	return candidate, errCollisionAvoidanceFailed
}
