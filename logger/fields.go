package logger

// Standard field names for consistent structured logging across geodex.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldRunID = "run_id"

	// Components
	FieldComponent = "component"
	FieldHandler   = "handler"

	// Files and datasets
	FieldPath  = "path"
	FieldLayer = "layer"
	FieldFile  = "file"

	// Coordinate reference systems
	FieldEPSG   = "epsg"
	FieldSource = "source_epsg"

	// Timing
	FieldDurationMS = "duration_ms"

	// Counts and sizes
	FieldCount   = "count"
	FieldFiles   = "files"
	FieldRecords = "records"
	FieldLayers  = "layers"

	// Errors
	FieldError = "error"

	// External tools
	FieldTool    = "tool"
	FieldCommand = "command"
)
