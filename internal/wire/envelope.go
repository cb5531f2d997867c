package wire

// Error codes, carried verbatim from the protocol's stable wire contract.
const (
	CodeSuccess = 200

	CodeInvalidJSON       = 101
	CodeMissingParam      = 102
	CodeServerIDExhausted = 103
	CodeUserIDExhausted   = 104
	CodeNetworkTimeout    = 105
	CodeServerError       = 106
	CodeRateLimited       = 107
	CodeUnauthorized      = 108
	CodeShareNotFound     = 110
	CodeSignatureInvalid  = 112
	CodeDuplicateFile     = 114
	CodeUsernameExists    = 115
	CodeUserNotFound      = 116
	CodeResourceNotFound  = 117
	CodeInternalError     = 118
	CodeFileNotFound      = 119
	CodeSigncryptionError = 126
	CodeDownloadError     = 127
	CodeWrongPassword     = 128
)

var errorMessages = map[int]string{
	CodeInvalidJSON:       "invalid JSON",
	CodeMissingParam:      "missing required parameter",
	CodeServerIDExhausted: "server id generation exhausted retries",
	CodeUserIDExhausted:   "user id generation exhausted retries",
	CodeNetworkTimeout:    "network timeout",
	CodeServerError:       "server error",
	CodeRateLimited:       "rate limit exceeded",
	CodeUnauthorized:      "unauthorized",
	CodeShareNotFound:     "share not found",
	CodeSignatureInvalid:  "signature verification failed",
	CodeDuplicateFile:     "duplicate file",
	CodeUsernameExists:    "username exists",
	CodeUserNotFound:      "user not found",
	CodeResourceNotFound:  "resource not found",
	CodeInternalError:     "internal error",
	CodeFileNotFound:      "file not found",
	CodeSigncryptionError: "node signcryption error",
	CodeDownloadError:     "node download error",
	CodeWrongPassword:     "wrong password",
}

// MessageFor returns the stable message for an error code, falling back
// to the generic internal-error message for unknown codes.
func MessageFor(code int) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return errorMessages[CodeInternalError]
}

// Envelope is the standard response wrapper every handler returns.
type Envelope struct {
	Data         any    `json:"data"`
	Status       string `json:"status"`
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Success wraps data in a success envelope.
func Success(data any) Envelope {
	return Envelope{Data: data, Status: "success", ErrorCode: CodeSuccess}
}

// Error wraps an error code in a failure envelope.
func Error(code int) Envelope {
	return Envelope{Status: "error", ErrorCode: code, ErrorMessage: MessageFor(code)}
}
