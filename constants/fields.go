package constants

// Placeholders written into records.
const (
	NotFound   = "Not Found" // field had no matching pattern
	ErrorValue = "Error"     // document could not be rendered or read
)

// Column names, in export order.
const (
	ColumnName     = "Name"
	ColumnCompany  = "Company"
	ColumnDuration = "Duration"
)

var Columns = []string{ColumnName, ColumnCompany, ColumnDuration}

// Export target.
const (
	ExportFileName  = "Internship_Data.xlsx"
	ExportSheetName = "Internships"
)

// Rendering and recognition defaults.
const (
	DefaultRenderScale = 2.5
	DefaultOCRLanguage = "eng"
	// OCRWhitelist restricts recognition to letters, digits, ampersand, period, hyphen and space.
	OCRWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789&.- "
	// PSMAuto is tesseract's fully automatic page segmentation.
	PSMAuto = 3
	// MinSelectionSize is the smallest crop edge, in rendered pixels, that is not treated as a stray click.
	MinSelectionSize = 10
)

// Status messages shown in the status area.
const (
	StatusIdle          = "Upload a PDF to start..."
	StatusLoading       = "Loading PDF..."
	StatusRunningOCR    = "Running OCR..."
	StatusNoTextFound   = "No text found (OCR failed)"
	StatusCropOCR       = "Running OCR on cropped area..."
	StatusCropNoText    = "No text found in cropped area."
	StatusNoDataExport  = "No data to export"
	StatusExportWritten = "Exported "
)
