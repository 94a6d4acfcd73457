package knowledge

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

const monitor = 10000

// ReadTriples parses whitespace separated "subject relation object" lines.
// Blank lines and lines starting with '#' are skipped; extra columns such as
// a trailing weight are ignored.
func ReadTriples(r io.Reader, logger *zap.Logger) ([]RawTriple, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	triples := make([]RawTriple, 0)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 3 {
			return nil, fmt.Errorf("line %d: expected 3 columns, got %d: %w", lineNo, len(parts), ErrInvalidArgument)
		}
		triples = append(triples, RawTriple{Subject: parts[0], Relation: parts[1], Object: parts[2]})

		if len(triples)%monitor == 0 {
			logger.Debug("reading triples", zap.Int("triples", len(triples)))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading triples: %w", err)
	}
	return triples, nil
}

// LoadTriples reads the triples stored in filename.
func LoadTriples(filename string, logger *zap.Logger) ([]RawTriple, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	triples, err := ReadTriples(file, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	m := CreateMappings(triples)
	logger.Info("knowledge graph loaded",
		zap.String("file", filename),
		zap.Int("entities", m.Entities.Len()),
		zap.Int("relations", m.Relations.Len()),
		zap.Int("triples", len(triples)))
	return triples, nil
}

// WriteTriples writes triples as tab separated lines.
func WriteTriples(w io.Writer, triples []RawTriple) error {
	bw := bufio.NewWriter(w)
	for _, t := range triples {
		if _, err := fmt.Fprintf(bw, "%s\t%s\t%s\n", t.Subject, t.Relation, t.Object); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SaveTriples writes triples to filename.
func SaveTriples(filename string, triples []RawTriple) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", filename, err)
	}
	if err := WriteTriples(file, triples); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return file.Close()
}
