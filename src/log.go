package usbrf

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Structured logging, replacing the teacher's
 *		text_color_set/dw_printf severity-tagged console writer
 *		(src/textcolor.go, src/log.go) with charmbracelet/log, and
 *		its CSV packet log with a CSV receive log whose filenames
 *		rotate daily via lestrrat-go/strftime, the same naming
 *		scheme the teacher's log_init uses.
 *
 *------------------------------------------------------------------*/

// Logger is the package-wide structured logger. Replaced in tests via
// SetLogger to capture output.
var Logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "usbrf",
})

// SetLogger installs a replacement logger, e.g. a silent one in tests.
func SetLogger(l *log.Logger) {
	Logger = l
}

// ReceiveLog is a CSV writer for received-frame telemetry, one file per
// calendar day, named like the teacher's daily log files.
type ReceiveLog struct {
	mu       sync.Mutex
	dir      string
	pattern  *strftime.Strftime
	day      string
	file     *os.File
}

// NewReceiveLog opens (creating as needed) the receive-log directory. The
// first Write call opens today's file.
func NewReceiveLog(dir string) (*ReceiveLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	pattern, err := strftime.New("usbrf-%Y%m%d.csv")
	if err != nil {
		return nil, err
	}
	return &ReceiveLog{dir: dir, pattern: pattern}, nil
}

func (r *ReceiveLog) currentName(now time.Time) string {
	return r.pattern.FormatString(now)
}

// Write appends one CSV record: timestamp, chip name, hex-encoded payload.
// Rolls over to a new file automatically at local-day boundaries.
func (r *ReceiveLog) Write(now time.Time, chip string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := r.currentName(now)
	if name != r.day || r.file == nil {
		if r.file != nil {
			r.file.Close()
		}
		f, err := os.OpenFile(filepath.Join(r.dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		r.file = f
		r.day = name
	}

	line := fmt.Sprintf("%s,%s,%x\n", now.Format(time.RFC3339), chip, payload)
	_, err := r.file.WriteString(line)
	return err
}

// Close closes the currently open log file, if any.
func (r *ReceiveLog) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
