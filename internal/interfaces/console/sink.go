package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"arbwatch/internal/application/port"
)

// Sink 将告警块打印到终端，带时间戳
type Sink struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

func NewSink() *Sink { return &Sink{out: os.Stdout, now: time.Now} }

func (s *Sink) Send(_ context.Context, destination, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := fmt.Fprintf(s.out, "\n%s [%s]\n%s\n\n", s.now().Format("2006-01-02 15:04:05"), destination, text)
	return err
}

var _ port.AlertSink = (*Sink)(nil)
