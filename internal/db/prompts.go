package db

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"gorm.io/gorm"
)

type PromptRecord struct {
	Category string
	Text     string
}

// LoadPromptLibrary reads category,text rows from a CSV with a header and
// upserts them into prompt_library. valid filters unknown categories.
func LoadPromptLibrary(conn *gorm.DB, path string, valid func(category string) bool) (int, error) {
	if conn == nil {
		return 0, nil
	}
	records, err := ReadPrompts(path)
	if err != nil {
		return 0, err
	}
	inserted := 0
	for _, record := range records {
		if valid != nil && !valid(record.Category) {
			return inserted, fmt.Errorf("unknown category %q", record.Category)
		}
		entry := PromptLibrary{Category: record.Category, Text: record.Text}
		if err := conn.FirstOrCreate(&entry, PromptLibrary{Category: entry.Category, Text: entry.Text}).Error; err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func ReadPrompts(path string) ([]PromptRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var records []PromptRecord
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue
		}
		category := strings.ToLower(strings.TrimSpace(row[0]))
		text := strings.TrimSpace(row[1])
		if category == "" || text == "" {
			continue
		}
		records = append(records, PromptRecord{Category: category, Text: text})
	}
	return records, nil
}
