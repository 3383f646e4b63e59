// Package download fetches the media behind label rows into a local
// directory laid out the way the COCO file names expect: images under
// images/, and video frames under videos/{data hash}/.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/coco-export/internal/fsutil"
	"github.com/banshee-data/coco-export/internal/httputil"
	"github.com/banshee-data/coco-export/internal/labels"
	"github.com/banshee-data/coco-export/internal/monitoring"
	"github.com/banshee-data/coco-export/internal/security"
)

// Defaults for the worker pool.
const (
	DefaultWorkers = 4
	DefaultTimeout = 5 * time.Minute
)

// Job is one file to fetch. Path is relative to the download root.
type Job struct {
	DataHash string
	URL      string
	Path     string
	Video    bool
}

// Summary counts what a Download call fetched.
type Summary struct {
	Images int
	Videos int
	Bytes  int64
}

// Downloader fetches media with a bounded pool of workers.
type Downloader struct {
	root          string
	client        httputil.HTTPClient
	fs            fsutil.FileSystem
	extractor     FrameExtractor
	workers       int
	timeout       time.Duration
	includeVideos bool
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithHTTPClient sets the client used to fetch media.
func WithHTTPClient(c httputil.HTTPClient) Option {
	return func(d *Downloader) { d.client = c }
}

// WithFileSystem sets the filesystem media is written to.
func WithFileSystem(fs fsutil.FileSystem) Option {
	return func(d *Downloader) { d.fs = fs }
}

// WithFrameExtractor sets how downloaded videos are split into frames.
func WithFrameExtractor(e FrameExtractor) Option {
	return func(d *Downloader) { d.extractor = e }
}

// WithWorkers bounds the number of concurrent downloads. Values below 1
// are ignored.
func WithWorkers(n int) Option {
	return func(d *Downloader) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithTimeout limits each job, including frame extraction.
func WithTimeout(t time.Duration) Option {
	return func(d *Downloader) {
		if t > 0 {
			d.timeout = t
		}
	}
}

// WithVideos controls whether videos are fetched and split into frames.
func WithVideos(include bool) Option {
	return func(d *Downloader) { d.includeVideos = include }
}

// New returns a downloader writing under root.
func New(root string, opts ...Option) *Downloader {
	d := &Downloader{
		root:          root,
		client:        httputil.NewStandardClient(nil, ""),
		fs:            fsutil.OSFileSystem{},
		extractor:     FFmpeg{},
		workers:       DefaultWorkers,
		timeout:       DefaultTimeout,
		includeVideos: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Plan lists the jobs for rows in document order. Data units without a
// link, DICOM, NIfTI and skipped types produce no job; a path listed twice
// is fetched once.
func (d *Downloader) Plan(rows []labels.LabelRow) []Job {
	var jobs []Job
	seen := make(map[string]bool)
	add := func(j Job) {
		if seen[j.Path] {
			return
		}
		seen[j.Path] = true
		jobs = append(jobs, j)
	}

	for i := range rows {
		row := &rows[i]
		for _, du := range row.DataUnits {
			kind := labels.Classify(row, du)
			if kind != labels.KindImage && kind != labels.KindVideo {
				continue
			}
			if kind == labels.KindVideo && !d.includeVideos {
				continue
			}
			if du.Link == "" {
				monitoring.Logf("[download] data unit %s has no link; skipping", du.Hash)
				continue
			}
			if kind == labels.KindImage {
				add(Job{DataHash: du.Hash, URL: du.Link, Path: du.ImageFileName()})
			} else {
				add(Job{DataHash: du.Hash, URL: du.Link, Path: du.VideoFrameDir(), Video: true})
			}
		}
	}
	return jobs
}

// Download fetches every planned job. The first failure cancels the jobs
// still running and is returned.
func (d *Downloader) Download(ctx context.Context, rows []labels.LabelRow) (Summary, error) {
	jobs := d.Plan(rows)
	if err := d.fs.MkdirAll(d.root, 0755); err != nil {
		return Summary{}, fmt.Errorf("failed to create download root: %w", err)
	}

	var (
		mu  sync.Mutex
		sum Summary
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			n, err := d.run(ctx, job)
			if err != nil {
				return fmt.Errorf("failed to download %s: %w", job.DataHash, err)
			}
			mu.Lock()
			defer mu.Unlock()
			sum.Bytes += n
			if job.Video {
				sum.Videos++
			} else {
				sum.Images++
			}
			return nil
		})
	}
	err := g.Wait()
	return sum, err
}

func (d *Downloader) run(ctx context.Context, job Job) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	dest, err := security.ResolveWithin(d.root, job.Path)
	if err != nil {
		return 0, err
	}
	if !job.Video {
		return d.fetch(ctx, job.URL, dest)
	}

	// dest must hold frames only; the video is kept beside it.
	video := filepath.Join(filepath.Dir(dest), security.SanitizeFilename(job.DataHash)+".video")
	n, err := d.fetch(ctx, job.URL, video)
	if err != nil {
		return n, err
	}
	defer func() {
		if err := d.fs.Remove(video); err != nil {
			monitoring.Logf("[download] failed to remove %s: %v", video, err)
		}
	}()
	if err := d.fs.MkdirAll(dest, 0755); err != nil {
		return n, fmt.Errorf("failed to create frame directory: %w", err)
	}
	if err := d.extractor.ExtractFrames(ctx, video, dest); err != nil {
		return n, err
	}
	return n, nil
}

func (d *Downloader) fetch(ctx context.Context, url, dest string) (n int64, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if err := httputil.CheckResponse(resp); err != nil {
		return 0, err
	}

	if err := d.fs.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}
	w, err := d.fs.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer func() {
		err = errors.Join(err, w.Close())
	}()
	n, err = io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return n, nil
}
