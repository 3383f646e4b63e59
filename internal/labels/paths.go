package labels

import (
	"fmt"
	"path"
	"strings"
)

// ImageFileName is the path of an image relative to the media root:
// images/{hash}.{ext}, where ext is the part of the title after its last
// dot, or the whole title when it has none.
func (du DataUnit) ImageFileName() string {
	ext := du.Title
	if i := strings.LastIndexByte(ext, '.'); i >= 0 {
		ext = ext[i+1:]
	}
	return fmt.Sprintf("images/%s.%s", du.Hash, ext)
}

// VideoFrameDir is the directory holding the extracted frames of a video,
// relative to the media root.
func (du DataUnit) VideoFrameDir() string {
	return path.Join("videos", du.Hash)
}

// VideoFrameFileName is the path of one extracted video frame.
func (du DataUnit) VideoFrameFileName(frame int) string {
	return fmt.Sprintf("videos/%s/%d.jpg", du.Hash, frame)
}
