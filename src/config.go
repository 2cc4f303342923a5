package usbrf

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Persisted configuration (§6, §7). The original firmware's
 *		CONFIG_ITEM/CONFIG_ARRAY X-macro (modules/config.c)
 *		generates both the in-memory struct and an introspection
 *		table of {name, parser, pointer}; here that becomes an
 *		explicit schema slice walked by a generic get/set/list
 *		engine (§9 "schema-driven derive"), the way the teacher's
 *		deviceid.go decodes tocalls.yaml into a table walked by
 *		name rather than hand-written per-field code.
 *
 *------------------------------------------------------------------*/

// ConfigSeed is the CRC-16 seed the original firmware uses
// (modules/config.c's CONFIG_SEED).
const ConfigSeed uint16 = 0x1221

// ConfigVersion is bumped whenever the on-disk layout changes; a version
// mismatch on load falls back to defaults (§7 "Configuration corruption").
const ConfigVersion float32 = 1.0

// Config is the persisted configuration scalar table (§6).
type Config struct {
	Version float32

	Debug bool

	SpektrumBindID [4]byte

	CcTuned   bool
	CcFsctrl0 int8

	FrskyBindID   [2]byte
	FrskyHopTable [50]byte
	FrskyBound    bool
}

// DefaultConfig returns the built-in defaults used at first boot and
// whenever persisted config fails its CRC or version check (§7).
func DefaultConfig() *Config {
	return &Config{
		Version: ConfigVersion,
	}
}

// configField describes one scalar or array entry in the schema, mirroring
// CONFIG_ITEM/CONFIG_ARRAY's {name, kind, pointer} triple.
type configField struct {
	name string
	get  func(c *Config) string
	set  func(c *Config, v string) error
}

// schema is the declarative field table the console `list`/`set` commands
// walk (§9). Encode/DecodeConfig do not use it; they serialize every Config
// field through a fixed byte layout, including fields the schema omits.
func schema() []configField {
	return []configField{
		{
			name: "debug",
			get:  func(c *Config) string { return strconv.FormatBool(c.Debug) },
			set: func(c *Config, v string) error {
				b, err := strconv.ParseBool(v)
				if err != nil {
					return err
				}
				c.Debug = b
				return nil
			},
		},
		{
			name: "cc_tuned",
			get:  func(c *Config) string { return strconv.FormatBool(c.CcTuned) },
			set: func(c *Config, v string) error {
				b, err := strconv.ParseBool(v)
				if err != nil {
					return err
				}
				c.CcTuned = b
				return nil
			},
		},
		{
			name: "cc_fsctrl0",
			get:  func(c *Config) string { return strconv.Itoa(int(c.CcFsctrl0)) },
			set: func(c *Config, v string) error {
				n, err := strconv.Atoi(v)
				if err != nil {
					return err
				}
				c.CcFsctrl0 = int8(n)
				return nil
			},
		},
		{
			name: "frsky_bound",
			get:  func(c *Config) string { return strconv.FormatBool(c.FrskyBound) },
			set: func(c *Config, v string) error {
				b, err := strconv.ParseBool(v)
				if err != nil {
					return err
				}
				c.FrskyBound = b
				return nil
			},
		},
	}
}

// Get returns the string form of the named field, for the console `list`
// command.
func (c *Config) Get(name string) (string, bool) {
	for _, f := range schema() {
		if f.name == name {
			return f.get(c), true
		}
	}
	return "", false
}

// Set parses and assigns the named field, for the console `set` command.
func (c *Config) Set(name, value string) error {
	for _, f := range schema() {
		if f.name == name {
			return f.set(c, value)
		}
	}
	return fmt.Errorf("unknown config field %q", name)
}

// List returns every field's name and current value.
func (c *Config) List() map[string]string {
	out := make(map[string]string)
	for _, f := range schema() {
		out[f.name] = f.get(c)
	}
	return out
}

// --- Binary persisted form (§6, §7) -------------------------------------

// configLayoutSize is the on-wire byte layout: version(4) + debug(1) +
// spektrum_bind_id(4) + cc_tuned(1) + cc_fsctrl0(1) + frsky_bind_id(2) +
// frsky_hop_table(50) + frsky_bound(1) + crc16(2).
const configLayoutSize = 4 + 1 + 4 + 1 + 1 + 2 + 50 + 1 + 2

// Encode serializes the config to its on-wire binary+CRC16 form.
func (c *Config) Encode() []byte {
	buf := make([]byte, configLayoutSize)
	binary.LittleEndian.PutUint32(buf[0:4], float32bits(c.Version))
	buf[4] = boolByte(c.Debug)
	copy(buf[5:9], c.SpektrumBindID[:])
	buf[9] = boolByte(c.CcTuned)
	buf[10] = byte(c.CcFsctrl0)
	copy(buf[11:13], c.FrskyBindID[:])
	copy(buf[13:63], c.FrskyHopTable[:])
	buf[63] = boolByte(c.FrskyBound)

	crc := crc16(buf[:64], ConfigSeed)
	binary.LittleEndian.PutUint16(buf[64:66], crc)
	return buf
}

// DecodeConfig parses the on-wire form, validating the CRC and version. On
// any mismatch it returns the built-in defaults (§7 "Configuration
// corruption: fall back to built-in defaults, overwrite storage").
func DecodeConfig(buf []byte) (cfg *Config, valid bool) {
	if len(buf) != configLayoutSize {
		return DefaultConfig(), false
	}
	wantCRC := binary.LittleEndian.Uint16(buf[64:66])
	gotCRC := crc16(buf[:64], ConfigSeed)
	if wantCRC != gotCRC {
		return DefaultConfig(), false
	}

	c := &Config{}
	c.Version = float32frombits(binary.LittleEndian.Uint32(buf[0:4]))
	if c.Version != ConfigVersion {
		return DefaultConfig(), false
	}
	c.Debug = buf[4] != 0
	copy(c.SpektrumBindID[:], buf[5:9])
	c.CcTuned = buf[9] != 0
	c.CcFsctrl0 = int8(buf[10])
	copy(c.FrskyBindID[:], buf[11:13])
	copy(c.FrskyHopTable[:], buf[13:63])
	c.FrskyBound = buf[63] != 0
	return c, true
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func float32bits(f float32) uint32 {
	return math.Float32bits(f)
}

func float32frombits(b uint32) float32 {
	return math.Float32frombits(b)
}

// crc16 realizes the same FrSky-style polynomial CRC used for frame
// validation (§4.7), seeded with the config-specific constant instead of 0,
// matching modules/config.c's use of a CRC-16 over the persisted bytes.
func crc16(data []byte, seed uint16) uint16 {
	crc := seed
	for _, b := range data {
		crc = (crc << 8) ^ frskyCRCTable[((crc>>8)^uint16(b))&0xff]
	}
	return crc
}

// --- yaml bootstrap scaffold --------------------------------------------

// bootstrapConfig is the human-editable yaml shape written alongside the
// binary store, the way the teacher's deviceid.go ships tocalls.yaml as a
// readable source converted into the runtime representation at load time.
type bootstrapConfig struct {
	Debug         bool   `yaml:"debug"`
	SpektrumBind  string `yaml:"spektrum_bind_id"`
	FrskyBindAddr string `yaml:"frsky_bind_id"`
}

// WriteBootstrapYAML writes a human-readable default configuration
// scaffold to path, for an operator to inspect or hand-edit before first
// run converts it into the binary+CRC16 persisted form.
func WriteBootstrapYAML(path string) error {
	bc := bootstrapConfig{
		Debug:         false,
		SpektrumBind:  "00:00:00:00",
		FrskyBindAddr: "00:00",
	}
	out, err := yaml.Marshal(&bc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}
