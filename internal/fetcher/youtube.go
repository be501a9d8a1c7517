package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"clipnote/internal/domain"
)

// ErrNoSubtitles is returned when no subtitle track could be obtained;
// without a transcript there is nothing to summarize.
var ErrNoSubtitles = errors.New("no subtitles available for this video, try a video that has captions enabled")

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([^&\n?#]+)`),
	regexp.MustCompile(`youtube\.com/v/([^&\n?#]+)`),
	regexp.MustCompile(`youtube\.com/shorts/([^&\n?#]+)`),
}

// manualSubtitleLangs is the preference order for manually-authored
// subtitle tracks; autoSubtitleLangs for generated ones.
var (
	manualSubtitleLangs = []string{"en", "zh-cn", "zh-Hans", "zh", "zh-tw", "zh-TW"}
	autoSubtitleLangs   = []string{"en", "zh-cn", "zh-Hans", "zh"}
)

// videoInfo is the subset of yt-dlp's --dump-json output the fetcher reads.
type videoInfo struct {
	Title             string                     `json:"title"`
	DurationString    string                     `json:"duration_string"`
	Thumbnail         string                     `json:"thumbnail"`
	Uploader          string                     `json:"uploader"`
	Subtitles         map[string]json.RawMessage `json:"subtitles"`
	AutomaticCaptions map[string]json.RawMessage `json:"automatic_captions"`
}

// subtitleAttempt describes one subtitle download try. An empty Lang is
// the generic "whatever auto track exists" last resort.
type subtitleAttempt struct {
	Lang string
	Auto bool
}

// commandRunner executes the external scraper binary; swapped in tests.
type commandRunner func(ctx context.Context, args ...string) ([]byte, error)

// VideoFetcher extracts video metadata and a subtitle transcript by
// shelling out to yt-dlp. Subtitle payloads land in temp files that are
// removed once parsed.
type VideoFetcher struct {
	binPath string
	tempDir string
	run     commandRunner
}

// NewVideoFetcher builds a fetcher around the yt-dlp binary at binPath.
func NewVideoFetcher(binPath string) *VideoFetcher {
	f := &VideoFetcher{
		binPath: binPath,
		tempDir: os.TempDir(),
	}
	f.run = f.execYtDlp
	return f
}

// Fetch resolves the video, downloads the best available subtitle track
// and returns the concatenated transcript.
func (f *VideoFetcher) Fetch(ctx context.Context, videoURL string) (*domain.SourceContent, error) {
	videoID := extractVideoID(videoURL)
	if videoID == "" {
		return nil, fmt.Errorf("invalid video url %q", videoURL)
	}

	out, err := f.run(ctx, "--dump-json", "--no-download", videoURL)
	if err != nil {
		return nil, fmt.Errorf("video info for %s: %w", videoID, err)
	}
	var info videoInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("decode video info for %s: %w", videoID, err)
	}

	transcript, lang, err := f.fetchTranscript(ctx, videoURL, videoID, &info)
	if err != nil {
		return nil, err
	}

	title := info.Title
	if title == "" {
		title = "Video " + videoID
	}

	return &domain.SourceContent{
		Title:      title,
		Text:       transcript,
		URL:        videoURL,
		CoverImage: info.Thumbnail,
		Metadata: &domain.MemoMetadata{
			Duration:           info.DurationString,
			Thumbnail:          info.Thumbnail,
			Channel:            info.Uploader,
			TranscriptLanguage: lang,
		},
	}, nil
}

func (f *VideoFetcher) fetchTranscript(ctx context.Context, videoURL, videoID string, info *videoInfo) (string, string, error) {
	attempts := subtitlePlan(info)

	for i, attempt := range attempts {
		if err := ctx.Err(); err != nil {
			return "", "", err
		}
		// Space out requests so the platform does not throttle us.
		if i > 0 {
			select {
			case <-time.After(500 * time.Millisecond):
			case <-ctx.Done():
				return "", "", ctx.Err()
			}
		}

		transcript, err := f.downloadSubtitle(ctx, videoURL, videoID, attempt)
		if err != nil {
			continue
		}
		if transcript != "" {
			return transcript, attempt.Lang, nil
		}
	}
	return "", "", ErrNoSubtitles
}

// subtitlePlan orders subtitle attempts: declared manual tracks first,
// then declared auto captions, then a generic shot in the dark.
func subtitlePlan(info *videoInfo) []subtitleAttempt {
	var attempts []subtitleAttempt
	for _, lang := range manualSubtitleLangs {
		if _, ok := info.Subtitles[lang]; ok {
			attempts = append(attempts, subtitleAttempt{Lang: lang})
		}
	}
	if len(attempts) == 0 {
		for _, lang := range autoSubtitleLangs {
			if _, ok := info.AutomaticCaptions[lang]; ok {
				attempts = append(attempts, subtitleAttempt{Lang: lang, Auto: true})
			}
		}
	}
	if len(attempts) == 0 {
		attempts = append(attempts,
			subtitleAttempt{Lang: "en"},
			subtitleAttempt{Lang: "zh"},
			subtitleAttempt{Auto: true},
		)
	}
	return attempts
}

func (f *VideoFetcher) downloadSubtitle(ctx context.Context, videoURL, videoID string, attempt subtitleAttempt) (string, error) {
	prefix := fmt.Sprintf("clipnote_sub_%s_%d", videoID, time.Now().UnixNano())
	pattern := filepath.Join(f.tempDir, prefix+".%(ext)s")

	args := []string{"--skip-download", "--output", pattern, "--sleep-interval", "1"}
	if attempt.Auto {
		args = append(args, "--write-auto-sub")
	} else {
		args = append(args, "--write-sub")
	}
	if attempt.Lang != "" {
		args = append(args, "--sub-lang", attempt.Lang)
	}
	args = append(args, videoURL)

	if _, err := f.run(ctx, args...); err != nil {
		return "", err
	}

	matches, err := filepath.Glob(filepath.Join(f.tempDir, prefix+".*"))
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("no subtitle file produced for %s", attempt.Lang)
	}

	payload, err := os.ReadFile(matches[0])
	for _, m := range matches {
		_ = os.Remove(m)
	}
	if err != nil {
		return "", err
	}

	return strings.Join(parseVTT(string(payload)), " "), nil
}

func (f *VideoFetcher) execYtDlp(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, f.binPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("yt-dlp: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

var vttTagRe = regexp.MustCompile(`<[^>]*>`)

// parseVTT extracts the cue text lines out of a WEBVTT payload,
// dropping the header, cue timings and inline markup.
func parseVTT(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" ||
			strings.HasPrefix(line, "WEBVTT") ||
			strings.HasPrefix(line, "Kind:") ||
			strings.HasPrefix(line, "Language:") ||
			strings.HasPrefix(line, "NOTE") ||
			strings.Contains(line, "-->") {
			continue
		}
		if clean := strings.TrimSpace(vttTagRe.ReplaceAllString(line, "")); clean != "" {
			lines = append(lines, clean)
		}
	}
	return lines
}

func extractVideoID(videoURL string) string {
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(videoURL); m != nil {
			return m[1]
		}
	}
	return ""
}
