package runner

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
)

// errAbandoned stops token delivery once the submitting caller has gone.
var errAbandoned = errors.New("stream abandoned")

// tokenLine is one NDJSON line of the /infer stream.
type tokenLine struct {
	Token string `json:"token,omitempty"`
	Done  bool   `json:"done,omitempty"`
	// Set on the final line only.
	RequestID    string `json:"request_id,omitempty"`
	Content      string `json:"content,omitempty"`
	FinishReason string `json:"finish_reason,omitempty"`
	Error        string `json:"error,omitempty"`
}

// stream serializes NDJSON writes from the worker goroutine and lets the
// submitting caller abandon the writer when it stops waiting (client
// disconnect, cancellation). After abandon, writes fail and the worker's
// token callback unwinds the native call cooperatively.
type stream struct {
	mu        sync.Mutex
	w         io.Writer
	flush     func()
	wrote     bool
	abandoned bool
}

func newStream(w io.Writer, flush func()) *stream {
	return &stream{w: w, flush: flush}
}

func (st *stream) writeLine(line tokenLine) error {
	b, err := json.Marshal(line)
	if err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.abandoned {
		return errAbandoned
	}
	if _, err := st.w.Write(append(b, '\n')); err != nil {
		return err
	}
	st.wrote = true
	if st.flush != nil {
		st.flush()
	}
	return nil
}

// committed reports whether at least one line reached the writer. An error
// before the first line can still be reported out of band; after that the
// stream is the only channel left.
func (st *stream) committed() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.wrote
}

func (st *stream) abandon() {
	st.mu.Lock()
	st.abandoned = true
	st.mu.Unlock()
}
