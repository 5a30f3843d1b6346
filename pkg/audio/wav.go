package audio

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Recorder captures outbound microphone audio to a WAV file, one file per
// check-in cycle. Recording is best effort; write failures are the caller's
// to log, never to escalate.
type Recorder struct {
	f       *os.File
	rate    int
	written int
}

// NewRecorder creates a mono 16-bit WAV file under dir, named by timestamp.
// The directory is created if needed.
func NewRecorder(dir string, rate int) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating recordings dir: %w", err)
	}
	name := filepath.Join(dir, "user_mic_"+time.Now().Format("20060102_150405")+".wav")
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("creating recording file: %w", err)
	}
	r := &Recorder{f: f, rate: rate}
	if err := r.writeHeader(0); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// Write appends one PCM chunk.
func (r *Recorder) Write(pcm []byte) error {
	n, err := r.f.Write(pcm)
	r.written += n
	return err
}

// Close patches the header sizes and closes the file.
func (r *Recorder) Close() error {
	if _, err := r.f.Seek(0, 0); err != nil {
		r.f.Close()
		return err
	}
	if err := r.writeHeader(r.written); err != nil {
		r.f.Close()
		return err
	}
	return r.f.Close()
}

// Path returns the recording file path.
func (r *Recorder) Path() string { return r.f.Name() }

func (r *Recorder) writeHeader(dataLen int) error {
	var hdr [44]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(36+dataLen))
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)           // fmt chunk size
	binary.LittleEndian.PutUint16(hdr[20:22], 1)            // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], 1)            // mono
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(r.rate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(r.rate*2)) // byte rate
	binary.LittleEndian.PutUint16(hdr[32:34], 2)                // block align
	binary.LittleEndian.PutUint16(hdr[34:36], 16)               // bits per sample
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], uint32(dataLen))
	_, err := r.f.Write(hdr[:])
	return err
}
