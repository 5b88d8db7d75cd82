package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"task-manager-bot/internal/logger"
	"task-manager-bot/internal/metrics"
	"task-manager-bot/internal/model"
)

var ErrVoiceDisabled = errors.New("voice input disabled")

// maxVoiceBytes caps downloads; Telegram voice notes are far smaller.
const maxVoiceBytes = 20 << 20

// VoiceService turns a Telegram voice note into a task draft: download,
// speech-to-text, then structured parsing.
type VoiceService struct {
	transcriber model.Transcriber
	parser      model.VoiceParser
	audioDir    string
	timeout     time.Duration
	client      *http.Client
	log         *logger.Logger
	metrics     *metrics.Metrics
}

func NewVoiceService(transcriber model.Transcriber, parser model.VoiceParser, audioDir string, timeout time.Duration, log *logger.Logger, m *metrics.Metrics) *VoiceService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &VoiceService{
		transcriber: transcriber,
		parser:      parser,
		audioDir:    audioDir,
		timeout:     timeout,
		client:      &http.Client{Timeout: timeout},
		log:         log.WithComponent("voice"),
		metrics:     m,
	}
}

func (s *VoiceService) Enabled() bool {
	return s.transcriber != nil
}

// FromURL downloads the note at fileURL, transcribes and parses it. The
// audio file is removed before returning.
func (s *VoiceService) FromURL(ctx context.Context, fileURL string, now time.Time) (string, model.VoiceTask, error) {
	if s.transcriber == nil {
		return "", model.VoiceTask{}, ErrVoiceDisabled
	}

	path, err := s.Download(ctx, fileURL)
	if err != nil {
		return "", model.VoiceTask{}, err
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.Warnw("remove voice note", "path", path, "error", err)
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	transcript, err := s.transcriber.Transcribe(callCtx, path)
	if err != nil {
		s.metrics.ProviderFailure("stt")
		return "", model.VoiceTask{}, fmt.Errorf("transcribe voice note: %w", err)
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return "", model.VoiceTask{}, fmt.Errorf("transcribe voice note: empty transcript")
	}

	return transcript, s.Parse(ctx, transcript, now), nil
}

// Parse extracts task fields. When the parser is missing or fails the
// whole transcript becomes the title with zero confidence.
func (s *VoiceService) Parse(ctx context.Context, transcript string, now time.Time) model.VoiceTask {
	fallback := model.VoiceTask{
		Title:         transcript,
		Confidence:    0,
		MissingFields: []string{"due_date", "priority", "category"},
	}
	if s.parser == nil {
		return fallback
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	parsed, err := s.parser.Parse(callCtx, transcript, now)
	if err != nil {
		s.metrics.ProviderFailure("voice_parser")
		s.log.Warnw("voice parser failed, using transcript as title", "error", err)
		return fallback
	}
	parsed.Title = strings.TrimSpace(parsed.Title)
	if parsed.Title == "" {
		parsed.Title = transcript
	}
	if parsed.Confidence < 0 {
		parsed.Confidence = 0
	}
	if parsed.Confidence > 1 {
		parsed.Confidence = 1
	}
	return parsed
}

// Download stores the file under the audio dir with a random name.
func (s *VoiceService) Download(ctx context.Context, fileURL string) (string, error) {
	if err := os.MkdirAll(s.audioDir, 0o755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download voice note: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download voice note: unexpected status %s", resp.Status)
	}

	path := filepath.Join(s.audioDir, "voice_"+uuid.NewString()+".ogg")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create voice file: %w", err)
	}
	if _, err := io.Copy(f, io.LimitReader(resp.Body, maxVoiceBytes)); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write voice file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close voice file: %w", err)
	}
	return path, nil
}

// CleanupOld removes audio files last modified before now-maxAge.
func (s *VoiceService) CleanupOld(maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(s.audioDir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read audio dir: %w", err)
	}

	removed := 0
	cutoff := now.Add(-maxAge)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.audioDir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
