package channel

import (
	"io"
	"time"
)

// chunk is one read result handed from the producer goroutine to recv.
type chunk struct {
	data []byte
	err  error
}

// asyncReader turns a blocking io.Reader into a non-blocking recv primitive:
// one producer goroutine does blocking Read calls and pushes chunks onto a
// buffered channel; recv drains what is available within a deadline instead
// of blocking the caller on the underlying transport. The ssh, telnet and
// subprocess variants each wrap their transport's read side in one of these
// rather than re-implementing the pump; Parent forwards Recv to its parent.
type asyncReader struct {
	src  io.Reader
	out  chan chunk
	done chan struct{}
}

func newAsyncReader(src io.Reader) *asyncReader {
	r := &asyncReader{
		src:  src,
		out:  make(chan chunk, 64),
		done: make(chan struct{}),
	}
	go r.pump()
	return r
}

func (r *asyncReader) pump() {
	buf := make([]byte, 32*1024)
	for {
		n, err := r.src.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case r.out <- chunk{data: data}:
			case <-r.done:
				return
			}
		}
		if err != nil {
			select {
			case r.out <- chunk{err: err}:
			case <-r.done:
			}
			return
		}
	}
}

// recv drains whatever has arrived within wait, never blocking past it.
// A zero (or negative) wait means "return immediately with whatever is
// already queued."
func (r *asyncReader) recv(wait time.Duration) (string, error, bool) {
	var timer <-chan time.Time
	if wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		timer = t.C
	} else if len(r.out) == 0 {
		return "", nil, false
	}

	var buf []byte
	got := false
	for {
		select {
		case c, ok := <-r.out:
			if !ok {
				return string(buf), nil, got
			}
			got = true
			if c.err != nil {
				return string(buf), c.err, got
			}
			buf = append(buf, c.data...)
			// drain whatever else is already queued before returning
			for drained := true; drained; {
				select {
				case c2 := <-r.out:
					if c2.err != nil {
						return string(buf), c2.err, true
					}
					buf = append(buf, c2.data...)
				default:
					drained = false
				}
			}
			return string(buf), nil, got
		case <-timer:
			return string(buf), nil, got
		}
	}
}

func (r *asyncReader) stop() {
	select {
	case <-r.done:
	default:
		close(r.done)
	}
}
