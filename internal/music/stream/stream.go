// /internal/music/stream/stream.go
package stream

import (
	"fmt"
	"io"
	"os/exec"
)

const (
	channels   = 2
	sampleRate = 48000
	frameSize  = 960 // 20ms at 48kHz
)

// Source is a lazily-opened PCM stream for a single resolvable URL. It is the
// playable handle attached to every queued track; nothing is fetched until the
// voice connection opens it.
type Source struct {
	URL string
}

// Open starts a yt-dlp | ffmpeg pipeline producing signed 16-bit little-endian
// PCM at 48kHz stereo. The returned cleanup kills both processes and must be
// called once the stream is no longer needed.
func (s *Source) Open() (io.ReadCloser, func(), error) {
	return OpenPCM(s.URL)
}

// OpenPCM pipes the best audio stream of url through ffmpeg into raw PCM.
func OpenPCM(url string) (io.ReadCloser, func(), error) {
	ytdlp := exec.Command("yt-dlp", "-o", "-", "-f", "bestaudio", url)
	ffmpeg := exec.Command("ffmpeg",
		"-i", "pipe:0",
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-ac", fmt.Sprintf("%d", channels),
		"-loglevel", "warning",
		"pipe:1",
	)

	ffmpegIn, err := ytdlp.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("yt-dlp stdout pipe error: %w", err)
	}
	ffmpeg.Stdin = ffmpegIn

	reader, err := ffmpeg.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("ffmpeg stdout pipe error: %w", err)
	}

	if err := ytdlp.Start(); err != nil {
		return nil, nil, fmt.Errorf("yt-dlp start error: %w", err)
	}
	if err := ffmpeg.Start(); err != nil {
		ytdlp.Process.Kill()
		return nil, nil, fmt.Errorf("ffmpeg start error: %w", err)
	}

	cleanup := func() {
		ffmpeg.Process.Kill()
		ytdlp.Process.Kill()
	}

	return reader, cleanup, nil
}
