package export

import (
	"fmt"
	"path/filepath"

	"github.com/banshee-data/coco-export/internal/coco"
	"github.com/banshee-data/coco-export/internal/labels"
	"github.com/banshee-data/coco-export/internal/monitoring"
)

func (r *run) addImage(key imageKey, img coco.Image) {
	img.ID = len(r.doc.Images)
	if _, dup := r.imageIDs[key]; dup {
		monitoring.Logf("[export] data unit %s frame %d listed twice; later annotations use image %d", key.dataHash, key.frame, img.ID)
	}
	r.imageIDs[key] = img.ID
	r.doc.Images = append(r.doc.Images, img)
}

func (r *run) images() error {
	for i := range r.rows {
		row := &r.rows[i]
		for _, du := range row.DataUnits {
			var err error
			switch labels.Classify(row, du) {
			case labels.KindDICOM:
				err = r.dicomImages(du)
			case labels.KindNIfTI:
				err = r.niftiImages(du)
			case labels.KindVideo:
				if r.opts.IncludeVideos {
					err = r.videoImages(du)
				}
			case labels.KindImage:
				r.addImage(imageKey{du.Hash, 0}, coco.Image{
					CocoURL:    du.Link,
					ImageTitle: du.Title,
					FileName:   du.ImageFileName(),
					Height:     du.Height,
					Width:      du.Width,
				})
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *run) dicomImages(du labels.DataUnit) error {
	frames, err := du.Frames()
	if err != nil {
		return err
	}
	for _, f := range frames {
		img := coco.Image{
			FileName: fmt.Sprintf("dicom/%s/%d", du.Hash, f.Frame),
			Height:   du.Height,
			Width:    du.Width,
		}
		if md := f.Metadata; md != nil {
			img.FileName = fmt.Sprintf("dicom/%s/%s", du.Hash, md.DicomInstanceUID)
			if md.MultiframeFrameNumber != nil {
				img.FileName += fmt.Sprintf("/%d", *md.MultiframeFrameNumber)
			}
			img.CocoURL = md.FileURI
			img.Height = md.Height
			img.Width = md.Width
		}
		r.addImage(imageKey{du.Hash, f.Frame}, img)
	}
	return nil
}

func (r *run) niftiImages(du labels.DataUnit) error {
	frames, err := du.Frames()
	if err != nil {
		return err
	}
	for _, f := range frames {
		r.addImage(imageKey{du.Hash, f.Frame}, coco.Image{
			CocoURL:  du.Link,
			FileName: fmt.Sprintf("nifti/%s/%d", du.Hash, f.Frame),
			Height:   du.Height,
			Width:    du.Width,
		})
	}
	return nil
}

func (r *run) videoImages(du labels.DataUnit) error {
	frames, err := du.Frames()
	if err != nil {
		return err
	}
	add := func(frame int) {
		r.addImage(imageKey{du.Hash, frame}, coco.Image{
			CocoURL:    du.Link,
			VideoTitle: du.Title,
			FileName:   du.VideoFrameFileName(frame),
			Height:     du.Height,
			Width:      du.Width,
		})
	}

	extracted := 0
	if r.opts.IncludeUnannotatedVideos {
		extracted = r.extractedFrames(du)
	}
	for frame := 0; frame < extracted; frame++ {
		add(frame)
	}
	// labelled frames past the extracted ones still need an image
	for _, f := range frames {
		if f.Frame >= extracted {
			add(f.Frame)
		}
	}
	return nil
}

// extractedFrames counts the frame files of a video under the download
// path. A missing directory counts as none.
func (r *run) extractedFrames(du labels.DataUnit) int {
	dir := filepath.Join(r.opts.DownloadFilePath, filepath.FromSlash(du.VideoFrameDir()))
	if !r.fs.Exists(dir) {
		return 0
	}
	names, err := r.fs.ReadDir(dir)
	if err != nil {
		monitoring.Logf("[export] failed to list frames of video %s: %v", du.Hash, err)
		return 0
	}
	return len(names)
}
