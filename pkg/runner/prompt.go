package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// PromptTitle asks for a starting title on w and reads it from r, retrying until the
// input is a usable title. It returns ctx.Err() when interrupted and io.EOF when r is exhausted.
func PromptTitle(ctx context.Context, r io.Reader, w io.Writer) (string, error) {
	signals := NewSignalManager(ctx)
	defer signals.Stop()
	ctx = signals.Context()

	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		err := scanner.Err()
		if err == nil {
			err = io.EOF
		}
		errs <- err
	}()

	for {
		fmt.Fprint(w, "Starting article> ")
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case err := <-errs:
			signals.CheckRace()
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", err
		case line := <-lines:
			title, err := SanitizeInput(line)
			if err != nil {
				fmt.Fprintf(w, "Error: %v. Please try again.\n", err)
				continue
			}
			return title, nil
		}
	}
}
