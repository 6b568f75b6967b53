// Package sdk provides the Hemmer Provider SDK: protocol constants, the
// provider error taxonomy, and the packages a provider implementation builds
// on (schema, validation, plan, provider, rpc).
package sdk

import "fmt"

const (
	// Version represents the current SDK version.
	Version = "v0.1.0"

	// ProtocolVersion represents the RPC protocol version. Increment on
	// breaking changes to the wire surface.
	ProtocolVersion = 1

	// MinProtocolVersion is the oldest client protocol version this SDK
	// still accepts.
	MinProtocolVersion = 1

	// HandshakePrefix is the first field of the handshake line a provider
	// writes to stdout before serving.
	HandshakePrefix = "HEMMER_PROVIDER"
)

// CheckProtocolVersion reports whether a client protocol version is
// compatible with this SDK. Versions below MinProtocolVersion are rejected.
// Versions above ProtocolVersion are accepted; callers should log a warning
// since the client may expect features this server does not have.
func CheckProtocolVersion(clientVersion uint) error {
	if clientVersion < MinProtocolVersion {
		return fmt.Errorf("client protocol version %d is too old, minimum supported version is %d",
			clientVersion, MinProtocolVersion)
	}
	return nil
}
