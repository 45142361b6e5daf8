package logging

// Standardized attribute keys shared across components.
const (
	// FieldComponent identifies the pipeline component emitting the record.
	FieldComponent = "component"

	// FieldEventType is a machine-readable event classifier.
	FieldEventType = "event_type"

	// FieldErrorHint suggests a next step when an operation fails.
	FieldErrorHint = "error_hint"

	// FieldToken is the capture correlation token.
	FieldToken = "token"

	// FieldFilename is the archived image filename.
	FieldFilename = "filename"

	// FieldRemotePath is the file's path on the wireless card.
	FieldRemotePath = "remote_path"

	// FieldSessionID is the observation session identifier.
	FieldSessionID = "session_id"
)
