package fixtures

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
)

// LoadFixture reads a JSON file stored next to this package.
func LoadFixture(filename string) (json.RawMessage, error) {
	_, currentFile, _, _ := runtime.Caller(0)
	path := filepath.Join(filepath.Dir(currentFile), filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}
