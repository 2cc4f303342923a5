package usbrf

/*------------------------------------------------------------------
 *
 * Purpose:	Pseudo-noise code table for the DSSS chip (CYRF6936-class).
 *
 * Description:	5 rows (selected by pn_row, derived from the channel
 *		number) by 9 columns (selected by sop_col/data_col, derived
 *		from the transmitter's MFG id) of 8-byte spreading codes,
 *		plus the fixed 8-byte preamble used while listening for a
 *		bind packet on the dedicated bind channel.
 *
 *		Values are the ones burned into every Spektrum-compatible
 *		receiver; they are not secret and do not depend on the
 *		target id.
 *
 *------------------------------------------------------------------*/

// PnCodeTable holds the 5x9x8 pseudo-noise codes and the bind preamble.
// It is immutable and has exactly one instance, PnCodes.
type PnCodeTable struct {
	Codes [5][9][8]byte
	Bind  [8]byte
}

// PnCodes is the one true pseudo-noise code table, loaded at start.
var PnCodes = PnCodeTable{
	Codes: [5][9][8]byte{
		{
			{0x03, 0xBC, 0x6E, 0x8A, 0xEF, 0xBD, 0xFE, 0xF8},
			{0x88, 0x17, 0x13, 0x3B, 0x2D, 0xBF, 0x06, 0xD6},
			{0xE6, 0xD2, 0xCB, 0x2F, 0x17, 0xDE, 0x34, 0x9B},
			{0x20, 0x76, 0x7E, 0x4B, 0xA7, 0x86, 0x1D, 0x5D},
			{0x93, 0xB1, 0x5C, 0xA6, 0x3D, 0x39, 0x20, 0xF3},
			{0x32, 0x83, 0xFA, 0xB4, 0x71, 0x8C, 0xAB, 0x64},
			{0xB2, 0xFA, 0x30, 0x98, 0x57, 0xC6, 0x24, 0xAB},
			{0x2E, 0x40, 0x20, 0xE6, 0x7E, 0x2B, 0x73, 0x35},
			{0xF9, 0x18, 0x2E, 0x6A, 0xA8, 0x51, 0xB5, 0xC5},
		},
		{
			{0x62, 0xD3, 0x12, 0x8E, 0x7F, 0x97, 0x89, 0xBC},
			{0x1F, 0xFB, 0x91, 0xA3, 0xB7, 0xCF, 0x56, 0xE9},
			{0x4C, 0x8F, 0x67, 0xCD, 0x9D, 0xA1, 0xC9, 0xFC},
			{0x69, 0x44, 0xF0, 0x0C, 0x55, 0x47, 0x17, 0xC5},
			{0x23, 0x74, 0x58, 0x0A, 0xD3, 0x7D, 0x94, 0x4C},
			{0x91, 0x20, 0x12, 0xD2, 0x41, 0x54, 0x8F, 0x5B},
			{0x8C, 0x62, 0x29, 0xDC, 0x48, 0xFB, 0x37, 0x91},
			{0xCB, 0x97, 0x1A, 0xFB, 0xB9, 0x83, 0x1C, 0x61},
			{0x5F, 0xAF, 0xB1, 0x90, 0xA5, 0x1A, 0x2A, 0x28},
		},
		{
			{0xBA, 0x66, 0xFB, 0x22, 0x26, 0x18, 0xE9, 0x2F},
			{0x4B, 0xC7, 0x11, 0x18, 0x4C, 0x25, 0x63, 0x93},
			{0xFE, 0xAF, 0x15, 0x39, 0xAE, 0x31, 0x94, 0x62},
			{0x46, 0x41, 0x0E, 0xA2, 0xE5, 0xC2, 0x6B, 0xA9},
			{0x5A, 0xBC, 0x1F, 0xAF, 0x53, 0xDE, 0x2B, 0x77},
			{0xC3, 0x1A, 0x58, 0xBB, 0xFC, 0x10, 0x8D, 0x2C},
			{0xA1, 0xE4, 0xAB, 0xFD, 0x2F, 0x76, 0xDD, 0xC6},
			{0xA3, 0xD5, 0x98, 0xBB, 0x73, 0x39, 0x11, 0x10},
			{0x3F, 0x5C, 0xC9, 0xE1, 0x03, 0x45, 0xFC, 0xAA},
		},
		{
			{0x2B, 0xC0, 0x2D, 0xB1, 0x67, 0x98, 0x74, 0xB5},
			{0x56, 0x93, 0x47, 0x82, 0x8A, 0xB0, 0x65, 0x91},
			{0xB5, 0xA9, 0xD4, 0x8A, 0x11, 0xDC, 0x37, 0x4B},
			{0x19, 0x30, 0xA2, 0x94, 0xB0, 0x6B, 0x2B, 0xA5},
			{0x9E, 0x92, 0x39, 0x5A, 0x25, 0xD2, 0x92, 0x9D},
			{0x48, 0x85, 0x71, 0xF0, 0x39, 0xB9, 0xB6, 0xCE},
			{0x9D, 0x5E, 0xE2, 0x16, 0x15, 0xCB, 0x24, 0x99},
			{0x17, 0x59, 0x09, 0x7B, 0x10, 0x3A, 0x00, 0x0F},
			{0x84, 0x61, 0x42, 0xCF, 0xA6, 0x32, 0x9D, 0x17},
		},
		{
			{0x74, 0xF1, 0x1C, 0xF9, 0x55, 0x20, 0x85, 0xBA},
			{0xAE, 0xA3, 0x1B, 0x8E, 0x1D, 0x00, 0x2E, 0x4A},
			{0x06, 0xA6, 0xDF, 0x43, 0x47, 0xE8, 0x72, 0xD6},
			{0x2F, 0x60, 0x20, 0x44, 0xDD, 0xAC, 0xC5, 0x2F},
			{0x16, 0x79, 0x98, 0xA0, 0x37, 0xCB, 0xB7, 0x8A},
			{0x01, 0xA3, 0xB8, 0x0E, 0x6F, 0x50, 0x0E, 0xCE},
			{0xA1, 0x4C, 0x9D, 0x96, 0x89, 0x27, 0x5A, 0x81},
			{0x9C, 0x15, 0x19, 0x25, 0x7D, 0x26, 0x32, 0xEF},
			{0xB2, 0xF7, 0x12, 0x0A, 0x10, 0x94, 0x5D, 0x26},
		},
	},
	Bind: [8]byte{0x98, 0x88, 0x1B, 0x1A, 0x51, 0x81, 0x63, 0x0D},
}

// PnRow picks the table row for a channel under the given protocol family.
// Under DSMX the generator's channel 2 maps to row 0; under DSM2 the
// channel number itself is the row selector (§4.2).
func PnRow(channel byte, isDSMX bool) byte {
	if isDSMX {
		return byte((int(channel) - 2 + 5*100) % 5)
	}
	return channel % 5
}
