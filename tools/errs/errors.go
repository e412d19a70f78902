package errs

// Error codes. 1xxx auth, 2xxx validation, 3xxx persistence, 4xxx transport,
// 5xxx protocol, 9xxx internal.
const (
	AuthFailedError     = 1001
	TokenExpiredError   = 1002
	ValidationError     = 2001
	PersistenceError    = 3001
	RecordNotFoundError = 3002
	RecordExistsError   = 3003
	TransportError      = 4001
	UnknownEventError   = 5001
	ServerInternalError = 9000
)

var (
	ErrAuthFailed     = NewCodeError(AuthFailedError, "authentication failed")
	ErrTokenExpired   = NewCodeError(TokenExpiredError, "token expired or invalid")
	ErrValidation     = NewCodeError(ValidationError, "invalid payload")
	ErrPersistence    = NewCodeError(PersistenceError, "persistence failed")
	ErrRecordNotFound = NewCodeError(RecordNotFoundError, "record not found")
	ErrRecordExists   = NewCodeError(RecordExistsError, "record already exists")
	ErrTransport      = NewCodeError(TransportError, "transport failure")
	ErrUnknownEvent   = NewCodeError(UnknownEventError, "unknown event")
	ErrInternal       = NewCodeError(ServerInternalError, "internal server error")
)
