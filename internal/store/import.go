package store

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCommentCSV reads comment rows from CSV text with a header row naming
// observation, discussion and recommendation columns. Header names are
// matched case-insensitively, other columns are ignored and a leading UTF-8
// BOM is dropped. Rows are returned as-is; validation happens on insert.
func ParseCommentCSV(r io.Reader) ([]CommentRow, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1 // tolerate ragged rows
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			log.Println("Comment CSV is empty.")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := map[string]int{}
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"observation", "recommendation"} {
		if _, ok := columns[required]; !ok {
			log.Warnf("Comment CSV has no %q column; every row will be skipped.", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []CommentRow
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			log.Printf("Skipping malformed CSV line %d: %v", line, err)
			continue
		}
		rows = append(rows, CommentRow{
			Observation:    field(record, "observation"),
			Discussion:     field(record, "discussion"),
			Recommendation: field(record, "recommendation"),
		})
	}
	return rows, nil
}

// ImportCommentsFromFile parses a CSV file and stores its valid rows as
// comments by userID on the event.
func (s *SQLiteStore) ImportCommentsFromFile(filePath string, eventID, userID int64) (int, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to open comment file %s: %w", filePath, err)
	}
	defer f.Close()

	rows, err := ParseCommentCSV(f)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		log.Printf("No comment rows found in %s.", filePath)
		return 0, nil
	}

	count, err := s.CreateComments(eventID, userID, rows)
	if err != nil {
		return 0, err
	}
	log.Printf("Imported %d/%d comments for event %d from %s.", count, len(rows), eventID, filePath)
	return count, nil
}
