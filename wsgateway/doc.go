// Package wsgateway binds the vigil engine to a WebSocket listener.
//
// The gateway owns everything the engine deliberately does not: the HTTP
// upgrade, frame read limits, the per-connection read pump, and translating
// engine close codes into WebSocket close frames. One goroutine reads each
// connection and calls the engine synchronously, which upholds the engine's
// requirement that a connection's messages are processed serially and in
// arrival order.
package wsgateway
