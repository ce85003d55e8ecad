package sharegpt

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ReadFile loads a whole-array corpus file.
func ReadFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return recs, nil
}

// ReadLines loads a JSONL corpus, one record per line, skipping lines that
// do not parse. Returns the records and the number of skipped lines.
func ReadLines(path string) ([]Record, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	recs, skipped, err := scanRecords(f)
	if err != nil {
		return nil, skipped, fmt.Errorf("scan %s: %w", path, err)
	}
	return recs, skipped, nil
}

// ReadAny loads either corpus layout; the first non-space byte decides
// between a JSON array and JSONL.
func ReadAny(path string) ([]Record, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", path, err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var recs []Record
		if err := json.Unmarshal(trimmed, &recs); err != nil {
			return nil, 0, fmt.Errorf("parse %s: %w", path, err)
		}
		return recs, 0, nil
	}
	recs, skipped, err := scanRecords(bytes.NewReader(data))
	if err != nil {
		return nil, skipped, fmt.Errorf("scan %s: %w", path, err)
	}
	return recs, skipped, nil
}

func scanRecords(r io.Reader) ([]Record, int, error) {
	var recs []Record
	skipped := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024) // 10MB line buffer
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			skipped++
			continue
		}
		recs = append(recs, rec)
	}
	return recs, skipped, scanner.Err()
}

// WriteFile writes records as a pretty-printed JSON array, built fully in
// memory and written in one shot. Tag markers and non-ASCII text are emitted
// literally, never escaped. Parent directories are created as needed.
func WriteFile(path string, recs []Record) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	if recs == nil {
		recs = []Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recs); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
