package acquire

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lrstanley/go-ytdlp"
)

// YouTubeMetadata is the subset of yt-dlp's video metadata the ingest
// path needs to seed a track's attributes when the caller doesn't
// supply them explicitly.
type YouTubeMetadata struct {
	ID     string // local download name (a UUID), not the video ID
	Title  string
	Artist string
}

func pickArtist(uploader, channel string) string {
	if strings.TrimSpace(uploader) != "" {
		return uploader
	}
	if strings.TrimSpace(channel) != "" {
		return channel
	}
	return "Unknown Artist"
}

// DownloadYouTubeAudio fetches the best-audio stream for youtubeURL
// into outputDir using go-ytdlp, returning the path to the downloaded
// (not yet resampled) audio file and its metadata. Callers pass the
// result through ConvertToWAV before fingerprinting.
func DownloadYouTubeAudio(ctx context.Context, youtubeURL, outputDir string) (string, YouTubeMetadata, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 3*time.Minute)
		defer cancel()
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", YouTubeMetadata{}, fmt.Errorf("creating output dir: %w", err)
	}

	ytdlp.MustInstall(ctx, nil)

	id := uuid.NewString()
	outputTemplate := filepath.Join(outputDir, id+".%(ext)s")

	dl := ytdlp.New().
		NoPlaylist().
		NoWarnings().
		FormatSort("ba").
		Output(outputTemplate)

	result, err := dl.Run(ctx, youtubeURL)
	if err != nil {
		return "", YouTubeMetadata{}, fmt.Errorf("yt-dlp download failed: %w", err)
	}

	var downloadedPath string
	for _, ext := range []string{".m4a", ".webm", ".opus", ".mp3", ".aac", ".ogg"} {
		candidate := filepath.Join(outputDir, id+ext)
		if _, statErr := os.Stat(candidate); statErr == nil {
			downloadedPath = candidate
			break
		}
	}
	if downloadedPath == "" {
		return "", YouTubeMetadata{}, errors.New("downloaded audio file not found after yt-dlp run")
	}

	meta := YouTubeMetadata{ID: id, Title: result.Title, Artist: pickArtist(result.Uploader, result.Channel)}
	if meta.Title == "" {
		meta.Title = id
	}
	if meta.Artist == "" {
		meta.Artist = "Unknown Artist"
	}

	return downloadedPath, meta, nil
}

// ExtractYouTubeID pulls the video ID out of the common YouTube URL
// shapes, for recording as a track's source locator.
func ExtractYouTubeID(youtubeURL string) (string, error) {
	u, err := url.Parse(youtubeURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	if strings.Contains(u.Host, "youtu.be") {
		id := strings.TrimPrefix(u.Path, "/")
		if id == "" {
			return "", errors.New("no video ID found in youtu.be URL")
		}
		return id, nil
	}

	if strings.Contains(u.Host, "youtube.com") {
		if strings.HasPrefix(u.Path, "/watch") {
			if v := u.Query().Get("v"); v != "" {
				return v, nil
			}
		}
		if strings.HasPrefix(u.Path, "/embed/") {
			return strings.TrimPrefix(u.Path, "/embed/"), nil
		}
	}

	return "", fmt.Errorf("unable to extract video ID from URL: %s", youtubeURL)
}
