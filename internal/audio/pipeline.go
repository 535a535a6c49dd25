package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"ai-meeting/pkg/logger"

	"github.com/google/uuid"
)

// Transcriber converts recorded audio into text. Calls may take minutes; the
// context carries the upper bound.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Summarizer condenses a meeting transcript into a summary.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

const defaultMailboxSize = 128

type streamKey struct {
	room string
	user int
}

type stream struct {
	file *os.File
	path string
	size int64
}

// Pipeline accumulates one audio stream per (room, user) into a temp file and,
// when a stream ends, runs transcription and summarization on a detached
// goroutine, storing the result in a per-room mailbox.
type Pipeline struct {
	mu      sync.Mutex
	streams map[streamKey]*stream

	transcriber Transcriber
	summarizer  Summarizer
	dir         string
	timeout     time.Duration

	mailbox *summaryStore
	wg      sync.WaitGroup
}

func NewPipeline(transcriber Transcriber, summarizer Summarizer, dir string, timeout time.Duration) *Pipeline {
	return &Pipeline{
		streams:     make(map[streamKey]*stream),
		transcriber: transcriber,
		summarizer:  summarizer,
		dir:         dir,
		timeout:     timeout,
		mailbox:     newSummaryStore(defaultMailboxSize),
	}
}

// IngestChunk appends chunk to the (room, user) stream, opening it on the
// first chunk. Chunks are not acknowledged individually; in-order delivery
// within a stream is the transport's job.
func (p *Pipeline) IngestChunk(room string, userID int, chunk []byte) error {
	key := streamKey{room: room, user: userID}

	p.mu.Lock()
	st, ok := p.streams[key]
	if !ok {
		name := fmt.Sprintf("audio_%s_%d_%s.webm", room, userID, uuid.NewString())
		file, err := os.Create(filepath.Join(p.dir, name))
		if err != nil {
			p.mu.Unlock()
			return fmt.Errorf("failed to create audio buffer: %w", err)
		}
		st = &stream{file: file, path: file.Name()}
		p.streams[key] = st
		// A new recording makes any summary stored for this room stale.
		p.mailbox.Delete(room)
	}
	p.mu.Unlock()

	// Each stream has a single reader goroutine feeding it, so writes to st
	// are never concurrent.
	n, err := st.file.Write(chunk)
	st.size += int64(n)
	if err != nil {
		return fmt.Errorf("failed to buffer audio chunk: %w", err)
	}
	return nil
}

// Finalize ends the (room, user) stream and hands the buffer to the
// transcription pipeline on a detached goroutine, so a slow external call
// never blocks connection cleanup. No-op if no stream is open.
func (p *Pipeline) Finalize(room string, userID int) {
	key := streamKey{room: room, user: userID}

	p.mu.Lock()
	st, ok := p.streams[key]
	delete(p.streams, key)
	p.mu.Unlock()
	if !ok {
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.process(room, st)
	}()
}

// process runs the pipeline for one finished stream. The temp file is removed
// on every path, success or failure.
func (p *Pipeline) process(room string, st *stream) {
	defer func() {
		if err := os.Remove(st.path); err != nil && !os.IsNotExist(err) {
			logger.Error("Failed to remove audio buffer %s: %v", st.path, err)
		}
	}()
	st.file.Close()

	if st.size == 0 {
		logger.Info("Audio stream for room %s ended with no data, skipping pipeline", room)
		return
	}

	data, err := os.ReadFile(st.path)
	if err != nil {
		logger.Error("Failed to read audio buffer %s: %v", st.path, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	transcript, err := p.transcriber.Transcribe(ctx, data)
	if err != nil {
		logger.Error("Transcription failed for room %s: %v", room, err)
		return
	}
	if strings.TrimSpace(transcript) == "" {
		logger.Info("No speech recognized in audio for room %s", room)
		return
	}

	summary, err := p.summarizer.Summarize(ctx, transcript)
	if err != nil {
		logger.Error("Summarization failed for room %s: %v", room, err)
		return
	}

	p.mailbox.Put(room, summary)
	logger.Info("Summary stored for room %s", room)
}

// Summary looks up the stored summary for room. It never blocks and never
// triggers the pipeline; ok is false while nothing has been produced.
func (p *Pipeline) Summary(room string) (string, bool) {
	return p.mailbox.Get(room)
}

// Forget drops any stored summary for room.
func (p *Pipeline) Forget(room string) {
	p.mailbox.Delete(room)
}

// Wait blocks until all in-flight pipeline runs have finished. Used on
// shutdown so buffered recordings are not lost mid-transcription.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}
