package runner

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"
)

// lineSource reads lines on its own goroutine so a caller waiting for input
// can still give up when its context is cancelled. The goroutine starts on
// the first Next and exits at EOF, on the first read error, or once Close is
// called and its pending line is dropped.
type lineSource struct {
	r     *bufio.Reader
	lines chan string
	done  chan struct{}
	// err is the read error that ended the goroutine. It is written before
	// lines is closed, so it is safe to read once lines is drained.
	err error

	start sync.Once
	stop  sync.Once
}

func newLineSource(r io.Reader) *lineSource {
	return &lineSource{r: bufio.NewReader(r), done: make(chan struct{})}
}

func (s *lineSource) run() {
	defer close(s.lines)
	for {
		text, err := s.r.ReadString('\n')
		if text != "" {
			select {
			case <-s.done:
				return
			default:
			}
			select {
			case s.lines <- text:
			case <-s.done:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.err = err
			}
			return
		}
	}
}

// Next returns the next line with its newline still attached. Once the
// reader is drained it returns the read error that stopped it, or io.EOF.
func (s *lineSource) Next(ctx context.Context) (string, error) {
	s.start.Do(func() {
		s.lines = make(chan string)
		go s.run()
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case text, ok := <-s.lines:
		if ok {
			return text, nil
		}
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
}

// Close releases the reader goroutine once its current read returns.
func (s *lineSource) Close() error {
	s.stop.Do(func() { close(s.done) })
	return nil
}
