package mailer

import (
	"context"
	"sync"
)

// Recorder keeps sent messages in memory. Tests use it in place of SMTP.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	// Err, when set, is returned by Send and the message is not kept.
	Err error
}

func (r *Recorder) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.messages = append(r.messages, msg)
	return nil
}

// Messages returns a copy of everything sent so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}
