package filesystem

import (
	"os"
)

// InitDirectories creates the given directories, empty entries are skipped.
func InitDirectories(dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}

		err := os.MkdirAll(dir, 0755)
		if err != nil {
			if !os.IsExist(err) {
				return err
			}
		}
	}

	return nil
}
