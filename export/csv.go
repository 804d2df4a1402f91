// Package export writes the ledger to a delimited text file.
package export

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/luca-patrignani/pharma-ledger/ledger"
)

// Header is the first row of every ledger file.
var Header = []string{"Timestamp", "Data", "Hash"}

// headerMarker identifies a first line as a header.
const headerMarker = "Timestamp"

// TimeLayout is the layout of the Timestamp column.
const TimeLayout = time.ANSIC

// WriteCSV appends one row per block to the file at path, creating it if it
// does not exist. The header is written first when the file is missing,
// empty, or does not start with a header line.
func WriteCSV(path string, blocks []ledger.Block) (err error) {
	header, newline, err := inspect(path)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close ledger file: %w", cerr)
		}
	}()

	if newline {
		if _, err := f.WriteString("\n"); err != nil {
			return fmt.Errorf("write ledger file: %w", err)
		}
	}
	return WriteRows(f, blocks, header)
}

// HeaderNeeded reports whether the next export to path must start with a header.
func HeaderNeeded(path string) (bool, error) {
	header, _, err := inspect(path)
	return header, err
}

// WriteRows writes blocks as CSV records to w, preceded by the header if asked.
func WriteRows(w io.Writer, blocks []ledger.Block, header bool) error {
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write(Header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for _, b := range blocks {
		data, err := ledger.CanonicalJSON(b.Data())
		if err != nil {
			return fmt.Errorf("encode block %d: %w", b.Index(), err)
		}
		record := []string{b.Time().Format(TimeLayout), string(data), b.Hash()}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write block %d: %w", b.Index(), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// inspect reports whether a header is needed and whether the existing
// content lacks a trailing newline.
func inspect(path string) (header bool, newline bool, err error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return true, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, false, fmt.Errorf("stat ledger file: %w", err)
	}
	if info.Size() == 0 {
		return true, false, nil
	}

	first, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, false, fmt.Errorf("read ledger file: %w", err)
	}
	header = !strings.Contains(first, headerMarker)

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, false, fmt.Errorf("read ledger file: %w", err)
	}
	return header, last[0] != '\n', nil
}
