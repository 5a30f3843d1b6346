package audio

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRecorderWritesValidWAV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "recordings")
	rec, err := NewRecorder(dir, 24000)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	pcm := make([]byte, 2048)
	for i := range pcm {
		pcm[i] = byte(i)
	}
	if err := rec.Write(pcm); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := rec.Write(pcm); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if !strings.HasPrefix(filepath.Base(rec.Path()), "user_mic_") {
		t.Errorf("file name = %q, want user_mic_ prefix", rec.Path())
	}

	data, err := os.ReadFile(rec.Path())
	if err != nil {
		t.Fatalf("reading recording: %v", err)
	}
	if len(data) != 44+4096 {
		t.Fatalf("file size = %d, want header plus 4096 data bytes", len(data))
	}

	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE magic")
	}
	if got := binary.LittleEndian.Uint32(data[4:8]); got != 36+4096 {
		t.Errorf("RIFF size = %d, want %d", got, 36+4096)
	}
	if got := binary.LittleEndian.Uint16(data[22:24]); got != 1 {
		t.Errorf("channels = %d, want mono", got)
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != 24000 {
		t.Errorf("sample rate = %d, want 24000", got)
	}
	if got := binary.LittleEndian.Uint16(data[34:36]); got != 16 {
		t.Errorf("bits per sample = %d, want 16", got)
	}
	if string(data[36:40]) != "data" {
		t.Error("missing data chunk marker")
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != 4096 {
		t.Errorf("data size = %d, want 4096", got)
	}
}

func TestNullPipeline(t *testing.T) {
	p := NewNullPipeline()
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	chunk, err := p.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(chunk) != ChunkFrames*2 {
		t.Errorf("chunk size = %d, want %d", len(chunk), ChunkFrames*2)
	}
	if p.InputRate() != PreferredCaptureRate {
		t.Errorf("InputRate = %d, want %d", p.InputRate(), PreferredCaptureRate)
	}
	p.Play(chunk)
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
