// Package retry provides the bounded-retry policy shared by the agent call
// sites: a known transient failure is retried with identical arguments, other
// errors return immediately.
package retry

// Do calls fn up to attempts times. Retries happen only while retryable
// returns true for the error; a nil retryable retries every error. The last
// error is returned.
func Do(attempts int, fn func() error, retryable func(error) bool) error {
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
	}
	return err
}
