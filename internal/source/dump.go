package source

import (
	"encoding/json"
	"fmt"
	"os"
)

// dumpFile is the on-disk shape of a saved crawl.
type dumpFile struct {
	Pages []Page `json:"pages"`
}

// ReadDump loads pages from a JSON crawl-dump file.
func ReadDump(path string) ([]Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read crawl dump: %w", err)
	}

	var dump dumpFile
	if err := json.Unmarshal(data, &dump); err != nil {
		// Also accept a bare page array.
		var pages []Page
		if arrErr := json.Unmarshal(data, &pages); arrErr == nil {
			return pages, nil
		}
		return nil, fmt.Errorf("failed to parse crawl dump: %w", err)
	}

	return dump.Pages, nil
}

// WriteDump saves pages to a JSON crawl-dump file so a crawl can be replayed
// without re-fetching.
func WriteDump(path string, pages []Page) error {
	data, err := json.MarshalIndent(dumpFile{Pages: pages}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal crawl dump: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write crawl dump: %w", err)
	}

	return nil
}
