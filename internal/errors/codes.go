package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrUnavailable     ErrorCode = "service_unavailable"
	ErrAlreadyRunning  ErrorCode = "already_running"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrInvalidInterval ErrorCode = "invalid_interval"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Topology errors
	ErrTopologyUnavailable ErrorCode = "topology_unavailable"
	ErrUnknownSocket       ErrorCode = "unknown_socket"

	// Sensor errors
	ErrSensorsUnavailable ErrorCode = "sensors_unavailable"

	// Affinity errors
	ErrProcessGone      ErrorCode = "affinity_process_gone"
	ErrPermissionDenied ErrorCode = "affinity_permission_denied"
	ErrAffinityFailed   ErrorCode = "affinity_operation_failed"

	// Engine errors
	ErrMainLoop    ErrorCode = "main_loop_failed"
	ErrEnumeration ErrorCode = "process_enumeration_failed"

	// Operation errors
	ErrOperationFailed ErrorCode = "operation_failed"
	ErrTimeout         ErrorCode = "operation_timeout"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:            "Internal error occurred",
	ErrInvalidArgument:     "Invalid argument provided",
	ErrUnavailable:         "Service unavailable",
	ErrAlreadyRunning:      "Another instance is already running",
	ErrInvalidConfig:       "Invalid configuration",
	ErrBindFlags:           "Failed to bind flags",
	ErrReadConfig:          "Failed to read configuration",
	ErrInvalidInterval:     "Invalid interval value",
	ErrInvalidLogLevel:     "Invalid log level",
	ErrInitFailed:          "Initialization failed",
	ErrShutdownFailed:      "Shutdown failed",
	ErrTopologyUnavailable: "Topology query unavailable",
	ErrUnknownSocket:       "Socket not present in topology",
	ErrSensorsUnavailable:  "Sensor query unavailable",
	ErrProcessGone:         "Process no longer exists",
	ErrPermissionDenied:    "Affinity change not permitted",
	ErrAffinityFailed:      "Affinity operation failed",
	ErrMainLoop:            "Error in main loop",
	ErrEnumeration:         "Failed to enumerate processes",
	ErrOperationFailed:     "Operation failed",
	ErrTimeout:             "Operation timed out",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
