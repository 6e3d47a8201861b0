package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteDir writes one <table>.json file per table into dir, creating it if needed.
func WriteDir(dir string, t *Tables) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, tb := range t.Ordered() {
		data := tb.Data
		if tb.Len == 0 {
			data = []struct{}{}
		}
		if err := writeJSON(filepath.Join(dir, tb.Name+".json"), data); err != nil {
			return fmt.Errorf("write %s: %w", tb.Name, err)
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(b, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
