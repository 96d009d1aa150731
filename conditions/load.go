package conditions

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bytedance/sonic"
)

var jsonAPI = sonic.Config{
	EscapeHTML:  false,
	SortMapKeys: true,
}.Froze()

// Load reads newline-delimited conditions records. Blank lines are ignored. The returned records
// are compiled, in file order.
func Load(r io.Reader, matchTimeout time.Duration) ([]Record, error) {
	var records []Record
	err := eachLine(r, func(lineNum int, line []byte) error {
		var rec Record
		if err := jsonAPI.Unmarshal(line, &rec); err != nil {
			return &FieldError{Line: lineNum, Err: fmt.Errorf("malformed JSON: %w", err)}
		}
		if err := rec.Compile(matchTimeout); err != nil {
			var fe *FieldError
			if errors.As(err, &fe) {
				fe.Line = lineNum
			}
			return err
		}
		records = append(records, rec)
		return nil
	})
	return records, err
}

// Scenarios maps a test title to the original scenario source that produced it.
type Scenarios map[string]string

// LoadScenarios reads the raw scenario file. The file normally holds a single JSON object; if
// there are several non-blank lines, the last one wins.
func LoadScenarios(r io.Reader) (Scenarios, error) {
	var scenarios Scenarios
	err := eachLine(r, func(lineNum int, line []byte) error {
		var s Scenarios
		if err := jsonAPI.Unmarshal(line, &s); err != nil {
			return fmt.Errorf("raw scenario line %d: malformed JSON: %w", lineNum, err)
		}
		scenarios = s
		return nil
	})
	if scenarios == nil {
		scenarios = Scenarios{}
	}
	return scenarios, err
}

func eachLine(r io.Reader, action func(lineNum int, line []byte) error) error {
	br := bufio.NewReader(r)
	for lineNum := 1; ; lineNum++ {
		line, err := br.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return err
		}
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			if actionErr := action(lineNum, trimmed); actionErr != nil {
				return actionErr
			}
		}
		if err == io.EOF {
			return nil
		}
	}
}
