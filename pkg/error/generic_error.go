package error

// GenericError is implemented by every typed error of this package so the REST
// layer can map it to an HTTP status and a stable error code.
type GenericError interface {
	ErrCode() string
	Error() string
	StatusCode() int
}
