package sim

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"quadsim/internal/telemetry"
)

// CSVWriter writes states as CSV rows with a telemetry.Fields header.
type CSVWriter struct {
	out        *csv.Writer
	closer     io.Closer
	headerDone bool
}

// NewCSVWriter writes to w. If w is an io.Closer, Close closes it.
func NewCSVWriter(w io.Writer) *CSVWriter {
	cw := &CSVWriter{out: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		cw.closer = c
	}
	return cw
}

// NewCSVFileWriter creates path and returns a CSVWriter on it.
func NewCSVFileWriter(path string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return NewCSVWriter(f), nil
}

func (c *CSVWriter) writeRecord(s telemetry.State) error {
	if !c.headerDone {
		if err := c.out.Write(telemetry.Fields); err != nil {
			return err
		}
		c.headerDone = true
	}
	vals := s.Values()
	rec := make([]string, len(vals))
	for i, v := range vals {
		rec[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return c.out.Write(rec)
}

// Write outputs a single state and flushes.
func (c *CSVWriter) Write(s telemetry.State) error {
	if err := c.writeRecord(s); err != nil {
		return err
	}
	c.out.Flush()
	return c.out.Error()
}

// WriteBatch outputs multiple states with a single flush.
func (c *CSVWriter) WriteBatch(states []telemetry.State) error {
	for _, s := range states {
		if err := c.writeRecord(s); err != nil {
			return err
		}
	}
	c.out.Flush()
	return c.out.Error()
}

// Close flushes pending rows and closes the underlying writer.
func (c *CSVWriter) Close() error {
	c.out.Flush()
	err := c.out.Error()
	if c.closer != nil {
		if e := c.closer.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
