package export

import (
	"github.com/banshee-data/coco-export/internal/answers"
	"github.com/banshee-data/coco-export/internal/coco"
	"github.com/banshee-data/coco-export/internal/geometry"
	"github.com/banshee-data/coco-export/internal/labels"
	"github.com/banshee-data/coco-export/internal/monitoring"
	"github.com/banshee-data/coco-export/internal/transcode"
)

func (r *run) annotations() error {
	for i := range r.rows {
		row := &r.rows[i]
		resolver := answers.New(r.index, row)

		for _, du := range row.DataUnits {
			var frames []labels.FrameLabels
			var err error
			switch labels.Classify(row, du) {
			case labels.KindSkip:
				continue
			case labels.KindVideo:
				if !r.opts.IncludeVideos {
					continue
				}
				frames, err = du.Frames()
			case labels.KindDICOM, labels.KindNIfTI:
				frames, err = du.Frames()
			case labels.KindImage:
				var fl labels.FrameLabels
				fl, err = du.ImageLabels()
				frames = []labels.FrameLabels{fl}
			}
			if err != nil {
				return err
			}

			for _, f := range frames {
				imageID, ok := r.imageIDs[imageKey{du.Hash, f.Frame}]
				if !ok {
					monitoring.Logf("[export] no image for data unit %s frame %d; skipping %d objects", du.Hash, f.Frame, len(f.Objects))
					continue
				}
				for _, obj := range f.Objects {
					if err := r.annotate(resolver, obj, imageID, f.Frame); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// annotate appends the annotation of one object. Only an unknown class is
// an error; objects that cannot be converted are logged and skipped.
func (r *run) annotate(resolver *answers.Resolver, obj labels.Object, imageID, frame int) error {
	shape, err := geometry.ParseShape(obj.Shape)
	if err != nil {
		monitoring.Logf("[export] skipping object %s: %v", obj.ObjectHash, err)
		return nil
	}
	if !shape.Visual() {
		return nil
	}

	categoryID, ok := r.categoryIDs[obj.FeatureHash]
	if !ok {
		return &EncodingError{FeatureHash: obj.FeatureHash, ObjectHash: obj.ObjectHash, Err: ErrUnknownFeatureHash}
	}

	coords, err := geometry.ParseObject(shape, obj.Raw)
	if err != nil {
		monitoring.Logf("[export] skipping object %s: %v", obj.ObjectHash, err)
		return nil
	}

	img := r.doc.Images[imageID]
	res, err := transcode.Transcode(coords, transcode.Size{Width: img.Width, Height: img.Height})
	if err != nil {
		monitoring.Logf("[export] skipping object %s: %v", obj.ObjectHash, err)
		return nil
	}

	ann := coco.Annotation{
		Area:         res.Area,
		BBox:         res.BBox,
		CategoryID:   categoryID,
		ImageID:      imageID,
		IsCrowd:      res.IsCrowd,
		Segmentation: coco.Segmentation{Polygons: res.Polygons, RLE: res.RLE},
		Keypoints:    res.Keypoints,
		ID:           r.nextID,
	}
	r.nextID++
	if shape == geometry.ShapePoint || shape == geometry.ShapeSkeleton {
		n := res.NumKeypoints
		ann.NumKeypoints = &n
	}

	manual := obj.ManualAnnotation
	ann.Attributes.ManualAnnotation = &manual
	if r.opts.IncludeTrackID {
		track := r.trackID(obj.ObjectHash)
		trackUUID := obj.ObjectHash
		ann.Attributes.TrackID = &track
		ann.Attributes.EncordTrackUUID = &trackUUID
	}
	if r.opts.IncludeBoundingBoxRotation {
		ann.Attributes.Rotation = res.Rotation
	}
	if r.opts.IncludeFlatClassifications {
		ann.Attributes.Classifications = resolver.Resolve(frame, obj.ObjectHash, obj.FeatureHash)
	}

	r.doc.Annotations = append(r.doc.Annotations, ann)
	return nil
}
