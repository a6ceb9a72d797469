package exchange

import "fmt"

// ProtocolError reports a response the exchange produced but the client cannot accept:
// a non-zero retCode, a malformed envelope or malformed result rows.
type ProtocolError struct {
	Op      string
	Code    int
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("bybit %s: retCode=%d: %s", e.Op, e.Code, e.Message)
}

// TransportError reports a request that never produced a decodable exchange response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("bybit %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// codeMalformed marks protocol errors raised locally rather than by the exchange.
const codeMalformed = -1
