// Package notifytest: Notifier в памяти для тестов.
package notifytest

import (
	"context"
	"fmt"
	"sync"
)

type Document struct {
	Name    string
	Data    []byte
	Caption string
}

type Recorder struct {
	mu        sync.Mutex
	messages  []string
	documents []Document
}

func (r *Recorder) Send(_ context.Context, msg string) {
	r.mu.Lock()
	r.messages = append(r.messages, msg)
	r.mu.Unlock()
}

func (r *Recorder) Sendf(ctx context.Context, format string, args ...any) {
	r.Send(ctx, fmt.Sprintf(format, args...))
}

func (r *Recorder) SendDocument(_ context.Context, name string, data []byte, caption string) {
	r.mu.Lock()
	r.documents = append(r.documents, Document{Name: name, Data: data, Caption: caption})
	r.mu.Unlock()
}

func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func (r *Recorder) Documents() []Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Document(nil), r.documents...)
}
