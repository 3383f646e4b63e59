package download

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/coco-export/internal/fsutil"
	"github.com/banshee-data/coco-export/internal/httputil"
	"github.com/banshee-data/coco-export/internal/labels"
	"github.com/banshee-data/coco-export/internal/testutil"
)

const rowsJSON = `[
  {
    "label_hash": "l1", "data_hash": "g1", "data_title": "group", "data_type": "img_group",
    "data_units": {
      "img1": {"data_hash": "img1", "data_title": "street.png", "data_type": "image/png",
               "data_link": "https://cdn.example.com/img1", "width": 4, "height": 4, "labels": {"objects": []}},
      "img2": {"data_hash": "img2", "data_title": "night.JPG", "data_type": "image/jpeg",
               "data_link": "https://cdn.example.com/img2", "width": 4, "height": 4, "labels": {"objects": []}},
      "nolink": {"data_hash": "nolink", "data_title": "x.png", "data_type": "image/png", "labels": {"objects": []}}
    }
  },
  {
    "label_hash": "l2", "data_hash": "vid1", "data_title": "drive.mp4", "data_type": "video",
    "data_units": {
      "vid1": {"data_hash": "vid1", "data_title": "drive.mp4", "data_type": "video/mp4",
               "data_link": "https://cdn.example.com/vid1", "width": 4, "height": 4, "labels": {}}
    }
  },
  {
    "label_hash": "l3", "data_hash": "doc1", "data_title": "report.pdf", "data_type": "application/pdf",
    "data_units": {
      "doc1": {"data_hash": "doc1", "data_title": "report.pdf", "data_type": "application/pdf",
               "data_link": "https://cdn.example.com/doc1", "labels": {}}
    }
  }
]`

func mustRows(t *testing.T) []labels.LabelRow {
	return testutil.MustRows(t, rowsJSON)
}

// fakeExtractor writes a fixed number of frames into the output directory.
type fakeExtractor struct {
	fs     fsutil.FileSystem
	frames int
	err    error

	mu    sync.Mutex
	calls []string
}

func (f *fakeExtractor) ExtractFrames(_ context.Context, videoPath, outDir string) error {
	f.mu.Lock()
	f.calls = append(f.calls, videoPath)
	f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, err := f.fs.ReadFile(videoPath); err != nil {
		return err
	}
	for i := 0; i < f.frames; i++ {
		if err := f.fs.WriteFile(filepath.Join(outDir, fmt.Sprintf("%d.jpg", i)), []byte("jpg"), 0644); err != nil {
			return err
		}
	}
	return nil
}

func TestPlan(t *testing.T) {
	rec := testutil.MuteLogs(t)
	d := New(t.TempDir())

	jobs := d.Plan(mustRows(t))
	assert.Equal(t, []Job{
		{DataHash: "img1", URL: "https://cdn.example.com/img1", Path: "images/img1.png"},
		{DataHash: "img2", URL: "https://cdn.example.com/img2", Path: "images/img2.JPG"},
		{DataHash: "vid1", URL: "https://cdn.example.com/vid1", Path: "videos/vid1", Video: true},
	}, jobs)
	assert.Len(t, rec.Lines(), 1, "data unit without a link is logged")

	d = New(t.TempDir(), WithVideos(false))
	for _, job := range d.Plan(mustRows(t)) {
		assert.False(t, job.Video)
	}
}

func TestPlanDeduplicatesPaths(t *testing.T) {
	testutil.MuteLogs(t)
	rows := mustRows(t)
	rows = append(rows, rows[0])

	jobs := New(t.TempDir()).Plan(rows)
	assert.Len(t, jobs, 3)
}

func TestDownload(t *testing.T) {
	testutil.MuteLogs(t)
	root := t.TempDir()
	fs := fsutil.NewMemoryFileSystem()
	client := httputil.NewMockHTTPClient().
		AddRoute("https://cdn.example.com/img1", http.StatusOK, "png-bytes").
		AddRoute("https://cdn.example.com/img2", http.StatusOK, "jpeg").
		AddRoute("https://cdn.example.com/vid1", http.StatusOK, "mp4-bytes")
	extractor := &fakeExtractor{fs: fs, frames: 3}

	d := New(root, WithHTTPClient(client), WithFileSystem(fs), WithFrameExtractor(extractor), WithWorkers(2))
	sum, err := d.Download(context.Background(), mustRows(t))
	require.NoError(t, err)

	assert.Equal(t, Summary{Images: 2, Videos: 1, Bytes: int64(len("png-bytes") + len("jpeg") + len("mp4-bytes"))}, sum)
	assert.Equal(t, 3, client.RequestCount())

	data, err := fs.ReadFile(filepath.Join(root, "images", "img1.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	frames, err := fs.ReadDir(filepath.Join(root, "videos", "vid1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"0.jpg", "1.jpg", "2.jpg"}, frames)

	// the downloaded video is removed once its frames are extracted
	assert.Equal(t, []string{filepath.Join(root, "videos", "vid1.video")}, extractor.calls)
	assert.False(t, fs.Exists(filepath.Join(root, "videos", "vid1.video")))
}

func TestDownloadStatusError(t *testing.T) {
	testutil.MuteLogs(t)
	fs := fsutil.NewMemoryFileSystem()
	client := httputil.NewMockHTTPClient().
		AddRoute("https://cdn.example.com/img1", http.StatusForbidden, "expired")

	d := New(t.TempDir(), WithHTTPClient(client), WithFileSystem(fs), WithVideos(false), WithWorkers(1))
	_, err := d.Download(context.Background(), mustRows(t))
	require.Error(t, err)

	var se *httputil.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
	assert.Contains(t, err.Error(), "img1")
}

func TestDownloadExtractorError(t *testing.T) {
	testutil.MuteLogs(t)
	fs := fsutil.NewMemoryFileSystem()
	wantErr := errors.New("ffmpeg missing")
	d := New(t.TempDir(),
		WithHTTPClient(httputil.NewMockHTTPClient()),
		WithFileSystem(fs),
		WithFrameExtractor(&fakeExtractor{fs: fs, err: wantErr}),
	)

	_, err := d.Download(context.Background(), mustRows(t))
	assert.True(t, errors.Is(err, wantErr))
}

func TestDownloadCancelled(t *testing.T) {
	testutil.MuteLogs(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := New(t.TempDir(), WithHTTPClient(httputil.NewMockHTTPClient()), WithFileSystem(fsutil.NewMemoryFileSystem()))
	_, err := d.Download(ctx, mustRows(t))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDownloadRejectsEscapingHash(t *testing.T) {
	testutil.MuteLogs(t)
	rows, err := labels.ParseLabelRows([]byte(`{
	  "label_hash": "l", "data_hash": "x", "data_title": "x.png", "data_type": "image",
	  "data_units": {"../../etc/passwd": {"data_title": "x.png", "data_type": "image/png",
	                 "data_link": "https://cdn.example.com/x", "labels": {"objects": []}}}
	}`))
	require.NoError(t, err)

	client := httputil.NewMockHTTPClient()
	d := New(t.TempDir(), WithHTTPClient(client), WithFileSystem(fsutil.NewMemoryFileSystem()))
	_, err = d.Download(context.Background(), rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path traversal")
	assert.Equal(t, 0, client.RequestCount())
}

func TestFFmpegBinary(t *testing.T) {
	assert.Equal(t, "ffmpeg", FFmpeg{}.binary())
	assert.Equal(t, "/opt/bin/ffmpeg", FFmpeg{Binary: "/opt/bin/ffmpeg"}.binary())

	err := FFmpeg{Binary: filepath.Join(t.TempDir(), "no-such-ffmpeg")}.
		ExtractFrames(context.Background(), "in.mp4", t.TempDir())
	assert.Error(t, err)
}
