package storage

import (
	"bufio"
	"fmt"
	"os"

	"assetpool/internal/model"
)

// ReadJournal streams the events of a JSONL journal in order, invoking
// fn for each. Reading stops at the first malformed line or fn error.
func ReadJournal(path string, fn func(ev model.Event) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev model.Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return fmt.Errorf("journal line %d: %w", lineNo, err)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	return nil
}
