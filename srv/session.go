package srv

import (
	"github.com/google/uuid"

	"github.com/virtio9p/ninep/fid"
	"github.com/virtio9p/ninep/p9"
	"github.com/virtio9p/ninep/transport"
)

// State is the serializable snapshot of one dispatcher's session:
// device id, host feature bits, config space, negotiated
// version/msize/blocksize, and the fid table. There is no in-flight
// reply buffer to snapshot here, since HandleFrame allocates a fresh
// one per request rather than keeping one live across suspension
// points.
type State struct {
	SessionID  string
	DeviceID   uint32
	HostFeature uint32
	MountTag   string
	Version    string
	Msize      uint32
	BlockSize  uint32
	Fids       map[uint32]fid.Fid
}

// SaveState snapshots the session for later restoration on a fresh Srv,
// e.g. across a device migration. Grounded on go9p's Conn fields this
// dispatcher carries an equivalent of (Msize, fidpool), extended with
// the device-level "Device config" fields: device id, host feature
// bits, and mount tag.
func (s *Srv) SaveState() State {
	return State{
		SessionID:   uuid.NewString(),
		DeviceID:    transport.DeviceID,
		HostFeature: transport.HostFeatureMountPoint,
		MountTag:    s.Device.MountTag,
		Version:     p9.VersionString,
		Msize:       s.Msize(),
		BlockSize:   p9.BlockSize,
		Fids:        s.Fids.Snapshot(),
	}
}

// RestoreState re-installs a previously saved session onto s. s must be
// freshly constructed (via New) with the same Backend; RestoreState
// replaces its msize, device config, and fid table wholesale.
func (s *Srv) RestoreState(st State) {
	s.setMsize(st.Msize)
	s.Device = transport.DeviceConfig{MountTag: st.MountTag}
	s.Fids.Restore(st.Fids)
}
