package usbrf

/*------------------------------------------------------------------
 *
 * Purpose:	DsmIdentity and the DSMX channel-sequence generator
 *		(§3, §4.2), plus per-hop radio setup (§4.3) shared by the
 *		DSSS hacker and scanner.
 *
 *------------------------------------------------------------------*/

// DSMMaxChannel is the highest valid DSSS channel number (§4.2).
const DSMMaxChannel = 0x4F

// DSMXChannels is the number of channels in a DSMX hop sequence.
const DSMXChannels = 23

// dsmBucketSize groups channels for the "no two in the same bucket"
// constraint (§8 invariant 4): DSM_MAX_CHANNEL+1 channels in buckets of 5
// consecutive channels (16 buckets).
const dsmBucketSize = 5

// DsmIdentity is the 4-byte transmitter id observed from a target and the
// values derived from it (§3).
type DsmIdentity struct {
	ID [4]byte

	IsDSMX bool

	SopCol  byte
	DataCol byte

	// Channels holds the 23-entry DSMX hop sequence. Unused under DSM2,
	// which hops between exactly two host-supplied seed channels.
	Channels [DSMXChannels]byte
}

// NewDsmIdentity derives sop_col/data_col and, for DSMX, the 23-channel hop
// sequence from the 4-byte id (§3, §4.2).
func NewDsmIdentity(id [4]byte, isDSMX bool) *DsmIdentity {
	d := &DsmIdentity{ID: id, IsDSMX: isDSMX}
	d.SopCol = byte((int(id[0]) + int(id[1]) + int(id[2]) + 2) % 8)
	d.DataCol = 7 - d.SopCol
	if isDSMX {
		d.Channels = generateDSMXChannels(id)
	}
	return d
}

// InitialCrcSeed computes crc_seed0 = complement((id[0]<<8)|id[1]) (§3).
func (d *DsmIdentity) InitialCrcSeed() uint16 {
	return ^((uint16(d.ID[0]) << 8) | uint16(d.ID[1]))
}

// dsmBucketWindow bounds how far back the "no two in the same 5-channel
// bucket" rule looks. With 80 candidate channels split into buckets of 5,
// there are only 16 buckets total — fewer than the 23 channels a DSMX
// sequence needs, so the rule cannot hold across every pair without making
// the search space unsatisfiable. Read as an anti-clustering rule over
// recent picks (don't land in the same 5-channel band as one of the last
// few hops) rather than a global partition, it matches what the rule is
// actually for — spreading consecutive hops apart — and stays satisfiable.
const dsmBucketWindow = 4

// generateDSMXChannels derives the 23-entry DSMX hop sequence from the
// 4-byte transmitter id.
//
// spec.md flags the real derivation as an open question: the original
// firmware calls dsm_generate_channels_dsmx() without showing its body, and
// the note explicitly says not to guess at the real Cypress-CYRF algorithm.
// This is our own deterministic construction satisfying every invariant
// the spec actually tests (§8 invariant 4, scenario S1) — a 32-bit LCG
// seeded from the id bytes, walked and filtered against the bucket and
// minimum-distance constraints until 23 channels are accepted. It is not a
// reproduction of the real hardware's byte-for-byte output.
func generateDSMXChannels(id [4]byte) [DSMXChannels]byte {
	var out [DSMXChannels]byte
	var buckets [DSMXChannels]int

	state := uint32(id[0])<<24 | uint32(id[1])<<16 | uint32(id[2])<<8 | uint32(id[3])
	if state == 0 {
		state = 0x9E3779B9
	}

	n := 0
	for n < DSMXChannels {
		state = state*1664525 + 1013904223
		cand := byte((state >> 8) % (DSMMaxChannel + 1))
		candBucket := int(cand) / dsmBucketSize

		windowStart := 0
		if n > dsmBucketWindow {
			windowStart = n - dsmBucketWindow
		}
		inRecentBucket := false
		for i := windowStart; i < n; i++ {
			if buckets[i] == candBucket {
				inRecentBucket = true
				break
			}
		}
		if inRecentBucket {
			continue
		}

		tooClose := false
		for i := 0; i < n; i++ {
			if channelDistance(cand, out[i]) < 2 {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}

		out[n] = cand
		buckets[n] = candBucket
		n++
	}
	return out
}

func channelDistance(a, b byte) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// PnRowForChannel returns pn_row for the given channel under the
// identity's protocol family (§4.2's final line).
func (d *DsmIdentity) PnRowForChannel(channel byte) byte {
	return PnRow(channel, d.IsDSMX)
}

// HopSetup bundles the per-hop radio parameters computed by dsmHopParams
// (§4.3).
type HopSetup struct {
	Channel  byte
	SOPCode  [8]byte
	DataCode [8]byte
	ShortCode [8]byte
	UseShort bool
	CRCSeed  uint16
}

// dsmHopParams implements §4.3: given (channel, is_dsm2, sop_col, data_col,
// crc_seed), select the PN rows and assemble the RF parameters for the
// next hop.
func dsmHopParams(channel byte, isDSM2 bool, sopCol, dataCol byte, crcSeed uint16) HopSetup {
	row := PnRow(channel, !isDSM2)
	setup := HopSetup{
		Channel:  channel,
		SOPCode:  PnCodes.Codes[row][sopCol],
		DataCode: PnCodes.Codes[row][dataCol],
		CRCSeed:  crcSeed,
	}
	if isDSM2 {
		setup.UseShort = true
		setup.ShortCode = PnCodes.Codes[row][dataCol]
	}
	return setup
}

// toRFParams converts a HopSetup into the Radio-level RFParams.
func (h HopSetup) toRFParams() RFParams {
	return RFParams{
		Channel:   h.Channel,
		SOPCode:   h.SOPCode,
		DataCode:  h.DataCode,
		ShortCode: h.ShortCode,
		UseShort:  h.UseShort,
		CRCSeed:   h.CRCSeed,
	}
}
