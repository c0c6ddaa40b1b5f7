package limits

// Request body caps.
const (
	// MaxJSONBody bounds every JSON request decoded through respond.Decode.
	MaxJSONBody = 1 << 20 // 1 MB

	// MaxImportSize bounds a bulk student upload workbook.
	MaxImportSize = 5 << 20 // 5 MB

	// MaxImportRows bounds the student rows in one upload.
	MaxImportRows = 5000
)
