package worker

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// PreviewJob asks for an advisory probe of a purchased track's preview clip.
type PreviewJob struct {
	TrackID    string
	PreviewURL string
}

// PreviewStats is the result of decoding a preview clip.
type PreviewStats struct {
	Loudness float64 // RMS amplitude normalized into 0..1
	Duration time.Duration
}

// Analyzer decodes preview clips in the background and logs their loudness
// and duration. Results are purely advisory: failures are logged and dropped,
// and nothing in the economy depends on them.
type Analyzer struct {
	client *http.Client
	jobs   chan PreviewJob
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewAnalyzer creates an analyzer with the given queue size.
func NewAnalyzer(queueSize int, logger *slog.Logger) *Analyzer {
	if queueSize < 1 {
		queueSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		client: &http.Client{Timeout: 15 * time.Second},
		jobs:   make(chan PreviewJob, queueSize),
		logger: logger,
	}
}

// Start launches the worker goroutines.
func (a *Analyzer) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			for job := range a.jobs {
				a.process(job)
			}
		}()
	}
}

// Stop drains the queue and waits for workers to finish.
func (a *Analyzer) Stop() {
	close(a.jobs)
	a.wg.Wait()
}

// Submit queues a probe without blocking, dropping the job if the queue is
// full.
func (a *Analyzer) Submit(job PreviewJob) {
	select {
	case a.jobs <- job:
	default:
		a.logger.Debug("preview queue full, dropping job", slog.String("track_id", job.TrackID))
	}
}

func (a *Analyzer) process(job PreviewJob) {
	if job.PreviewURL == "" {
		return
	}

	stats, err := a.probePreview(job.PreviewURL)
	if err != nil {
		a.logger.Warn("preview probe failed",
			slog.String("track_id", job.TrackID),
			slog.Any("error", err))
		return
	}

	a.logger.Info("preview probed",
		slog.String("track_id", job.TrackID),
		slog.Float64("loudness", stats.Loudness),
		slog.Duration("duration", stats.Duration))
}

// probePreview streams and decodes an MP3 preview clip, computing its RMS
// loudness and decoded duration.
func (a *Analyzer) probePreview(url string) (PreviewStats, error) {
	resp, err := a.client.Get(url)
	if err != nil {
		return PreviewStats{}, fmt.Errorf("preview fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return PreviewStats{}, fmt.Errorf("preview fetch status %d", resp.StatusCode)
	}

	decoder, err := mp3.NewDecoder(resp.Body)
	if err != nil {
		return PreviewStats{}, fmt.Errorf("preview decode failed: %w", err)
	}

	buf := make([]byte, 4096)
	var sumSquares float64
	var samples float64

	for {
		n, err := decoder.Read(buf)
		if n > 0 {
			for i := 0; i+1 < n; i += 2 {
				sample := int16(buf[i]) | int16(buf[i+1])<<8
				val := float64(sample)
				sumSquares += val * val
				samples++
			}
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return PreviewStats{}, fmt.Errorf("preview read failed: %w", err)
		}
	}

	if samples == 0 {
		return PreviewStats{}, fmt.Errorf("preview contains no samples")
	}

	loudness := math.Sqrt(sumSquares/samples) / 32768.0
	if loudness > 1 {
		loudness = 1
	}

	// Decoded stream is 16-bit stereo at the decoder's sample rate.
	seconds := samples / 2 / float64(decoder.SampleRate())
	return PreviewStats{
		Loudness: loudness,
		Duration: time.Duration(seconds * float64(time.Second)),
	}, nil
}
