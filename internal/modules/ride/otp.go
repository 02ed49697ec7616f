// README: Pairing-code generation for accepted rides.
package ride

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// newOTP returns a 4-digit zero-padded pairing code. It is a low-stakes
// rider/driver handshake, not a security credential; uniqueness across rides
// is not required.
func newOTP() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("%04d", binary.BigEndian.Uint64(b[:])%10000)
}
