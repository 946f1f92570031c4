package log

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldDuration     = "duration_ms"
	FieldFingerprint  = "fingerprint"
	FieldMode         = "mode"
	FieldPeriods      = "periods"
	FieldRecords      = "records"
	FieldVersionID    = "version_id"
	FieldVersionName  = "version_name"
	FieldPreviousID   = "previous_version_id"
	FieldRows         = "rows"
	FieldRejectedRows = "rejected_rows"
	FieldReason       = "reason"
	FieldCacheName    = "cache"
	FieldHitRate      = "hit_rate"
	FieldTarget       = "target"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentKPI     = "kpi"
	ComponentTarget  = "target"
	ComponentCache   = "cache"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSources = "sources"
	ComponentBackend = "backend"
	ComponentCLI     = "cli"
	ComponentOps     = "ops"
)

// Operations defines standard operation names
const (
	OpSeries     = "series"
	OpSummary    = "summary"
	OpResolve    = "resolve_target"
	OpImport     = "import_targets"
	OpExport     = "export_targets"
	OpSwitch     = "switch_version"
	OpReset      = "reset_targets"
	OpLoad       = "load_records"
	OpInvalidate = "invalidate"
	OpStartup    = "startup"
	OpShutdown   = "shutdown"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeCache         = "cache_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithVersion adds target version fields
func (f LogFields) WithVersion(id, name string) LogFields {
	f[FieldVersionID] = id
	if name != "" {
		f[FieldVersionName] = name
	}
	return f
}

// WithComputation adds KPI computation fields
func (f LogFields) WithComputation(fingerprint, mode string, records, periods int) LogFields {
	f[FieldFingerprint] = fingerprint
	f[FieldMode] = mode
	f[FieldRecords] = records
	f[FieldPeriods] = periods
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
