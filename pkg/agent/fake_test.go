package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/SinaShahandeh/GetBack2Werk/pkg/domain"
	"github.com/SinaShahandeh/GetBack2Werk/pkg/provider"
)

// fakeAdapter is a scriptable in-memory provider. Connect opens a fresh
// message channel and ConfigureSession replays the script into it, so each
// cycle sees its own session just like a real provider.
type fakeAdapter struct {
	script []domain.Message

	mu          sync.Mutex
	connected   bool
	sessions    int
	connects    []string
	configs     []provider.SessionConfig
	texts       []string
	audioChunks int
	batches     [][]domain.ToolResult
	disconnects int
	msgs        chan domain.Message
}

var _ provider.Adapter = (*fakeAdapter)(nil)

func (f *fakeAdapter) Name() string { return "fake" }

func (f *fakeAdapter) CreateSession(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions++
	return fmt.Sprintf("token-%d", f.sessions), nil
}

func (f *fakeAdapter) Connect(ctx context.Context, sessionToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects = append(f.connects, sessionToken)
	f.connected = true
	f.msgs = make(chan domain.Message, 64)
	return nil
}

func (f *fakeAdapter) ConfigureSession(ctx context.Context, cfg provider.SessionConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs = append(f.configs, cfg)
	for _, msg := range f.script {
		f.msgs <- msg
	}
	return nil
}

func (f *fakeAdapter) SendAudio(ctx context.Context, pcm []byte, sourceRate int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audioChunks++
	return nil
}

func (f *fakeAdapter) SendText(ctx context.Context, text string, images [][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeAdapter) Messages() <-chan domain.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.msgs
}

func (f *fakeAdapter) SendToolResponse(ctx context.Context, results []domain.ToolResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch := make([]domain.ToolResult, len(results))
	copy(batch, results)
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeAdapter) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connected {
		f.connected = false
		f.disconnects++
		if f.msgs != nil {
			close(f.msgs)
			f.msgs = nil
		}
	}
	return nil
}

func (f *fakeAdapter) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeAdapter) sessionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions
}

func (f *fakeAdapter) disconnectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnects
}

func (f *fakeAdapter) allBatches() [][]domain.ToolResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]domain.ToolResult, len(f.batches))
	copy(out, f.batches)
	return out
}

// recordingAlerter captures alerts instead of printing banners.
type recordingAlerter struct {
	mu     sync.Mutex
	alerts []struct{ reason, urgency string }
}

func (r *recordingAlerter) Alert(reason, urgency string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, struct{ reason, urgency string }{reason, urgency})
}
