package cmn

import (
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"strings"
)

// IterateSources calls cb for every file under sourcePath whose name ends
// with one of suffixes, walking directories in name order. A file given
// directly is always read. Empty files are an error.
func IterateSources(
	sourcePath string,
	suffixes []string,
	cb func(path string, fc []byte) error,
) error {
	fi, err := os.Stat(sourcePath)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return readSource(sourcePath, cb)
	}
	di, err := ioutil.ReadDir(sourcePath)
	if err != nil {
		return err
	}
	for _, fi = range di {
		p := path.Join(sourcePath, fi.Name())
		if fi.IsDir() {
			if err = IterateSources(p, suffixes, cb); err != nil {
				return err
			}
			continue
		}
		if !HasSuffix(fi.Name(), suffixes) {
			continue
		}
		if err = readSource(p, cb); err != nil {
			return err
		}
	}
	return nil
}

func readSource(p string, cb func(path string, fc []byte) error) error {
	fc, err := ioutil.ReadFile(p)
	if err != nil {
		return err
	}
	if len(fc) == 0 {
		return fmt.Errorf("%s - empty file content", p)
	}
	return cb(p, fc)
}

func HasSuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}
