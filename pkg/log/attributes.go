// Package log defines standard attribute keys for houseprice log records.
//
// Keys follow a hierarchical naming convention (e.g. "model.path",
// "data.samples") so records can be filtered the same way across components.

package log

// Component and operation context.
const (
	// ComponentKey identifies which package produced the record.
	// Examples: "web", "regressor", "cmd"
	ComponentKey = "component"

	// OperationKey specifies the operation being performed.
	// Standard values: "load", "predict", "render"
	OperationKey = "ml.operation"

	// PhaseKey indicates the lifecycle phase. Always "inference" in this service.
	PhaseKey = "ml.phase"
)

// Model context.
const (
	// ModelPathKey is the filesystem path of the model artifact.
	ModelPathKey = "model.path"

	// ModelObjectiveKey is the objective the model was trained with.
	ModelObjectiveKey = "model.objective"

	// ModelTreesKey is the number of trees in the ensemble.
	ModelTreesKey = "model.trees"
)

// Data shape.
const (
	// SamplesKey indicates the number of rows in the uploaded dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of feature columns.
	FeaturesKey = "data.features"

	// DataSizeKey indicates the upload size in bytes.
	DataSizeKey = "data.size_bytes"

	// FileNameKey is the client supplied upload file name.
	FileNameKey = "data.file_name"
)

// Performance and output.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"

	// PredsMeanKey records the mean predicted value.
	PredsMeanKey = "preds.mean"
)

// HTTP request context.
const (
	RequestIDKey  = "http.request_id"
	MethodKey     = "http.method"
	PathKey       = "http.path"
	StatusKey     = "http.status"
	RemoteAddrKey = "http.remote_addr"
	PageKey       = "http.page"
)

// Error context.
const (
	// ErrorKey carries the error message when the error is not the leading field.
	ErrorKey = "error"

	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorDetailKey holds the structured fields of typed errors.
	ErrorDetailKey = "error.detail"

	// StacktraceKey contains stack trace information for debugging.
	StacktraceKey = "stacktrace"

	// SuggestionKey provides a hint for resolving the issue.
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationLoad    = "load"
	OperationPredict = "predict"
	OperationRender  = "render"

	PhaseInference = "inference"

	ErrorModelLoad         = "MODEL_LOAD"
	ErrorSchemaMismatch    = "SCHEMA_MISMATCH"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorUploadTooLarge    = "UPLOAD_TOO_LARGE"
	ErrorRateLimited       = "RATE_LIMITED"
	ErrorInternal          = "INTERNAL"
	ErrorUnsupportedModel  = "UNSUPPORTED_MODEL"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
)
