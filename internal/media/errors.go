package media

import "fmt"

// AcquisitionError means the source video could not be resolved to a local
// decodable file. It is fatal to the whole job.
type AcquisitionError struct {
	Reference string
	Err       error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquisition failed for %s: %v", e.Reference, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// TranscodeError means conversion to the canonical container failed. Fatal
// to the whole job, same as acquisition.
type TranscodeError struct {
	Path string
	Err  error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode failed for %s: %v", e.Path, e.Err)
}

func (e *TranscodeError) Unwrap() error { return e.Err }

// SegmentationError means slicing one chunk failed. Scoped to that chunk;
// sibling chunks are unaffected.
type SegmentationError struct {
	QuestionID string
	Err        error
}

func (e *SegmentationError) Error() string {
	return fmt.Sprintf("segmentation failed for question %s: %v", e.QuestionID, e.Err)
}

func (e *SegmentationError) Unwrap() error { return e.Err }
