package labels

import "strings"

// MIME types of data units that need special handling.
const (
	MIMEDICOM  = "application/dicom"
	MIMENIfTI1 = "application/nifti1"
	MIMENIfTI2 = "application/nifti2"
	MIMEPDF    = "application/pdf"
)

var textMIMETypes = map[string]bool{
	"application/json": true,
	"application/xml":  true,
	"text/plain":       true,
	"text/html":        true,
	"text/xml":         true,
}

// Kind classifies a data unit for export.
type Kind int

const (
	KindImage Kind = iota
	KindVideo
	KindDICOM
	KindNIfTI
	// KindSkip covers PDFs, text documents and audio.
	KindSkip
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	case KindDICOM:
		return "dicom"
	case KindNIfTI:
		return "nifti"
	}
	return "skip"
}

// Classify decides how a data unit of the row is exported from its MIME
// type and the row's data type.
func Classify(row *LabelRow, du DataUnit) Kind {
	mime := du.Type
	switch {
	case strings.Contains(mime, MIMEDICOM):
		return KindDICOM
	case mime == MIMENIfTI1 || mime == MIMENIfTI2:
		return KindNIfTI
	case mime == MIMEPDF:
		return KindSkip
	case textMIMETypes[mime]:
		return KindSkip
	case row.IsAudio():
		return KindSkip
	case strings.Contains(mime, "video"):
		return KindVideo
	}
	return KindImage
}
