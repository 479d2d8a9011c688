// Package transport defines the narrow boundary between the dispatcher
// (package srv) and whatever delivers 9P frames and accepts replies — a
// virtio queue in production, a net.Conn or an in-memory pipe in tests.
// Transport itself (virtio queue handling) is out of scope here; this
// package only names the interface and the device configuration
// constants a real virtio-9p binding would expose.
package transport

import "encoding/binary"

// Transport is the supplier of request frames and the sink for replies:
// it hands the dispatcher (request_bytes, index) pairs and expects
// send_reply(index) once the reply buffer is populated.
type Transport interface {
	// Send delivers the populated reply buffer for the request that
	// arrived at index. reply's first 4 bytes are the total frame
	// size, matching what build_reply wrote.
	Send(index uint32, reply []byte) error

	// Abort is called on an unrecoverable protocol violation (an
	// unknown message id is session-fatal). The transport is expected
	// to close the underlying connection.
	Abort(reason error)
}

// DeviceID is the virtio device id for a 9p transport.
const DeviceID = 0x9

// HostFeatureMountPoint is the host feature bit advertising a fixed
// mount tag in the device config space.
const HostFeatureMountPoint = 0x1

// DefaultMountTag is the mount tag advertised in the device config
// space.
const DefaultMountTag = "host9p"

// DeviceConfig is the virtio config-space payload: a length-prefixed
// mount tag. This module defines and serializes it; it does not speak
// virtio itself.
type DeviceConfig struct {
	MountTag string
}

// Bytes serializes the config space as length[2] + tag bytes, matching
// the 9P wire string encoding used elsewhere in this module.
func (c DeviceConfig) Bytes() []byte {
	buf := make([]byte, 2+len(c.MountTag))
	binary.LittleEndian.PutUint16(buf, uint16(len(c.MountTag)))
	copy(buf[2:], c.MountTag)
	return buf
}
