package probe

import "fmt"

// ConnectError is returned when the connection to the peer cannot be
// established. It is never retried.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}
