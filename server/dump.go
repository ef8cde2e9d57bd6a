package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/lab1702/langbots/game"
)

// DumpOutput records every snapshot as a YAML block, blocks separated by a blank line
type DumpOutput struct {
	w      *bufio.Writer
	closer io.Closer
}

// NewDumpOutput writes blocks to w
func NewDumpOutput(w io.Writer) *DumpOutput {
	d := &DumpOutput{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		d.closer = c
	}
	return d
}

// CreateDumpFile opens (truncating) a dump file
func CreateDumpFile(path string) (*DumpOutput, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create dump: %w", err)
	}
	return NewDumpOutput(f), nil
}

// Draw appends one block
func (d *DumpOutput) Draw(_ context.Context, f *game.Field) error {
	if err := game.WriteBlock(d.w, f); err != nil {
		return fmt.Errorf("dump field: %w", err)
	}
	return nil
}

// Close flushes the recording
func (d *DumpOutput) Close() error {
	err := d.w.Flush()
	if d.closer != nil {
		if cerr := d.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
