package usbrf

/*------------------------------------------------------------------
 *
 * Purpose:	REQ_INFO / INFO message handling (§6): reports board id,
 *		firmware version, and the hardware's identity registers so
 *		a host tool can confirm it is talking to the right device
 *		and firmware build.
 *
 *------------------------------------------------------------------*/

// SoftwareVersion packs FirmwareVersion into the u32 the INFO message
// carries, as a simple major*10000+minor*100+patch encoding.
func SoftwareVersion() uint32 {
	return 1_00_00
}

// DeviceInfo answers a REQ_INFO request by reading both chips' identity
// registers and sending an INFO reply over the host link.
type DeviceInfo struct {
	Link *HostLink
	Cyrf Radio
	Cc   Radio
}

// NewDeviceInfo wires REQ_INFO handling into the given host link.
func NewDeviceInfo(link *HostLink, cyrf, cc Radio) *DeviceInfo {
	di := &DeviceInfo{Link: link, Cyrf: cyrf, Cc: cc}
	link.OnReqInfo(di.handle)
	return di
}

func (di *DeviceInfo) handle() {
	var hwID [3]uint32
	hwID[0] = BoardID

	if di.Cyrf != nil {
		if id, err := di.Cyrf.ManufacturerID(); err == nil {
			hwID[1] = uint32(id)
		}
	}
	if di.Cc != nil {
		if id, err := di.Cc.ManufacturerID(); err == nil {
			hwID[2] = uint32(id)
		}
	}

	if err := di.Link.SendInfo(BoardID, SoftwareVersion(), hwID); err != nil {
		Logger.Error("failed to send INFO reply", "err", err)
	}
}
