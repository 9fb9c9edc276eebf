package constants

// JobStatus is the canonical status for rows in extract_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusRunning    JobStatus = "RUNNING"    // in progress
	JobStatusTextOK     JobStatus = "TEXT_OK"    // text obtained and fields extracted
	JobStatusFailed     JobStatus = "FAILED"     // render, decode or recognition failure
	JobStatusSuperseded JobStatus = "SUPERSEDED" // abandoned because the user navigated away
)

// ExtractMethod records how the text for an attempt was obtained.
type ExtractMethod string

const (
	MethodPDFText ExtractMethod = "pdf-text"
	MethodPDFOCR  ExtractMethod = "pdf-ocr"
	MethodCropOCR ExtractMethod = "crop-ocr"
)
