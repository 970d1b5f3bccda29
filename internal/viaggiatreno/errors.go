package viaggiatreno

import "fmt"

// BadRequestError reports a request the ViaggiaTreno service refused.
// It covers both real HTTP failures and the service's in-band failure
// signal (a 200 response whose body carries the error marker).
type BadRequestError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("viaggiatreno: bad request %s (status %d)", e.URL, e.StatusCode)
}

// DecodeError reports a malformed JSON payload on a response that was
// otherwise classified as successful.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("viaggiatreno: malformed payload: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
