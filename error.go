package jsonrpc

// NewParsingError creates a new parsing error
func NewParsingError(id RequestId, err error, data []byte) *Error {
	return NewError(id, NewInnerError(ParseError, err.Error(), data))
}

// NewInternalError creates a new internal error
func NewInternalError(id RequestId, err error, data []byte) *Error {
	return NewError(id, NewInnerError(InternalError, err.Error(), data))
}

// NewInvalidRequest creates a new invalid request error
func NewInvalidRequest(id RequestId, err error, data []byte) *Error {
	return NewError(id, NewInnerError(InvalidRequest, err.Error(), data))
}

// NewInvalidParams creates a new invalid params error
func NewInvalidParams(id RequestId, err error, data []byte) *Error {
	return NewError(id, NewInnerError(InvalidParams, err.Error(), data))
}

// NewMethodNotFound creates a new method-not-found error
func NewMethodNotFound(id RequestId, err error, data []byte) *Error {
	return NewError(id, NewInnerError(MethodNotFound, err.Error(), data))
}

// NewForbiddenError creates a new forbidden (authorization) error
func NewForbiddenError(id RequestId, message string) *Error {
	return NewError(id, NewInnerError(Forbidden, message, nil))
}

// NewResourceNotFoundError creates a new resource-not-found error
func NewResourceNotFoundError(id RequestId, uri string) *Error {
	return NewError(id, NewInnerError(ResourceNotFound, "resource not found: "+uri, nil))
}

// NewToolNotFoundError creates a new tool-not-found error
func NewToolNotFoundError(id RequestId, name string) *Error {
	return NewError(id, NewInnerError(ToolNotFound, "tool not found: "+name, nil))
}

// NewRateLimitError creates an application-defined server error (-32000..-32099 range)
// signalling that a request was denied by the rate limiter.
func NewRateLimitError(id RequestId, message string) *Error {
	return NewError(id, NewInnerError(RateLimitExceeded, message, nil))
}
