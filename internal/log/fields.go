package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldErrorType = "error_type"
	FieldRecordID  = "record_id"
	FieldCategory  = "category"
	FieldAmount    = "amount"
	FieldCount     = "count"
	FieldCap       = "cap"
	FieldKey       = "key"
	FieldBackend   = "backend"
	FieldEventType = "event_type"
	FieldEventID   = "event_id"
	FieldDuration  = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentCache   = "cache"
	ComponentBackend = "backend"
	ComponentCLI     = "cli"
	ComponentWorker  = "worker"
)

// Operations defines standard operation names
const (
	OpAdd      = "add"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpImport   = "import"
	OpExport   = "export"
	OpSettings = "settings"
	OpCap      = "cap"
	OpLoad     = "load"
	OpSave     = "save"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpMigrate  = "migrate"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeCorrupt       = "corrupt_data"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds error and error type fields
func (f LogFields) WithError(err error, errorType string) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
		f[FieldErrorType] = errorType
	}
	return f
}

// WithRecord adds record-related fields
func (f LogFields) WithRecord(id, category, amount string) LogFields {
	f[FieldRecordID] = id
	f[FieldCategory] = category
	f[FieldAmount] = amount
	return f
}

// WithKey adds the storage key field
func (f LogFields) WithKey(key string) LogFields {
	f[FieldKey] = key
	return f
}

// With adds an arbitrary field
func (f LogFields) With(key string, value any) LogFields {
	f[key] = value
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
