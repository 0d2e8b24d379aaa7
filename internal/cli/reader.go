package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// LineReader reads trimmed lines from an interactive source. A read that is
// canceled keeps running in the background and its line is dropped.
type LineReader struct {
	reader *bufio.Reader
	out    io.Writer
	mu     sync.Mutex
}

// NewLineReader reads from r and writes prompts to out.
func NewLineReader(r io.Reader, out io.Writer) *LineReader {
	if out == nil {
		out = io.Discard
	}
	return &LineReader{reader: bufio.NewReader(r), out: out}
}

// Prompt writes prompt and reads the next non-empty line. It returns io.EOF
// once the input is exhausted.
func (r *LineReader) Prompt(ctx context.Context, prompt string) (string, error) {
	for {
		if prompt != "" {
			if _, err := fmt.Fprint(r.out, FormatPrompt(prompt)); err != nil {
				return "", err
			}
		}
		line, err := r.ReadLine(ctx)
		if err != nil {
			return "", err
		}
		if line != "" {
			return line, nil
		}
	}
}

// ReadLine reads one line, respecting context cancellation. A final line
// without a newline is returned before io.EOF.
func (r *LineReader) ReadLine(ctx context.Context) (string, error) {
	type result struct {
		err   error
		value string
	}
	if ctx.Err() != nil {
		return "", ErrInputCancelled
	}
	resultCh := make(chan result, 1)

	go func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		value, err := r.reader.ReadString('\n')
		if err == io.EOF && value != "" {
			err = nil
		}
		resultCh <- result{value: strings.TrimSpace(value), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-resultCh:
		return res.value, res.err
	}
}
