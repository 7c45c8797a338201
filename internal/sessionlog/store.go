// Package sessionlog provides the append-only JSON-lines session log.
//
// One session is stored per line, oldest first. The store keeps no
// state between calls; every read re-parses the file. Persistence is
// best-effort: append and rotate failures are reported as errors for
// the caller to log, and read failures degrade to an empty history,
// because losing the log must never break session tracking itself.
package sessionlog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/pomotrack/pomotrack/pkg/models"
)

const (
	// maxLogSize is the rotation threshold. Above this the file is
	// renamed aside and a fresh one starts on the next append.
	maxLogSize = 10 * 1024 * 1024

	// DefaultReadLimit is the read-back window when the caller does
	// not specify one.
	DefaultReadLimit = 100

	// dateScanLimit is how many recent records ReadByDate scans.
	// Sessions older than this window are invisible to date
	// filtering; a known limitation, kept rather than fixed.
	dateScanLimit = 1000
)

// Store persists sessions to a single JSON-lines file.
type Store struct {
	path string
}

// New creates a store for the given file path and makes sure the
// parent directory exists. Directory creation failure is downgraded to
// a warning; appends will keep failing softly until the path becomes
// writable.
func New(path string) *Store {
	s := &Store{path: path}
	if err := s.EnsureDir(); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to create session log directory")
	}
	return s
}

// Path returns the log file path.
func (s *Store) Path() string {
	return s.path
}

// EnsureDir creates the log file's parent directory if missing.
func (s *Store) EnsureDir() error {
	return os.MkdirAll(filepath.Dir(s.path), 0o755)
}

// Append serializes the session as one compact line and appends it.
// The returned error is advisory: callers log it and carry on, the
// session itself stays valid whether or not it was recorded.
func (s *Store) Append(sess *models.Session) error {
	line, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open session log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append session: %w", err)
	}
	return nil
}

// Read returns up to limit of the most recently appended sessions,
// most recent first. Blank lines are skipped; lines that fail to parse
// are skipped with a warning so one corrupt record cannot hide the
// rest of the history. A missing file is an empty history, not an
// error, and so is any read failure.
func (s *Store) Read(limit int) []*models.Session {
	if limit <= 0 {
		limit = DefaultReadLimit
	}

	f, err := os.Open(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", s.path).Msg("Failed to open session log")
		}
		return nil
	}
	defer f.Close()

	// Lines are read without a length cap: a record with an
	// arbitrarily long description was accepted on append and must
	// stay readable, along with the rest of the history.
	var lines []string
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			lines = append(lines, strings.TrimSuffix(line, "\n"))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn().Err(err).Str("path", s.path).Msg("Failed to read session log")
			return nil
		}
	}

	if len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}

	sessions := make([]*models.Session, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		if sess := parseLine(lines[i]); sess != nil {
			sessions = append(sessions, sess)
		}
	}
	return sessions
}

// ReadByDate returns the sessions whose start time falls on the given
// UTC calendar day, most recent first. It scans only the most recent
// dateScanLimit records.
func (s *Store) ReadByDate(day time.Time) []*models.Session {
	y, m, d := day.UTC().Date()

	var filtered []*models.Session
	for _, sess := range s.Read(dateScanLimit) {
		sy, sm, sd := sess.StartTime.UTC().Date()
		if sy == y && sm == m && sd == d {
			filtered = append(filtered, sess)
		}
	}
	return filtered
}

// RotateIfOversized renames the log file to "<path>.old" once it grows
// past 10 MiB, replacing any previous rotation. A missing file counts
// as success. The next append starts a fresh file.
func (s *Store) RotateIfOversized() error {
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat session log: %w", err)
	}

	if info.Size() <= maxLogSize {
		return nil
	}
	if err := os.Rename(s.path, s.path+".old"); err != nil {
		return fmt.Errorf("rotate session log: %w", err)
	}
	return nil
}

// parseLine decodes one stored line. Anything unparseable, including a
// record with a corrupt timestamp, yields nil so the caller can skip it.
func parseLine(line string) *models.Session {
	if line == "" {
		return nil
	}
	var sess models.Session
	if err := json.Unmarshal([]byte(line), &sess); err != nil {
		log.Warn().Err(err).Msg("Skipping unparseable session log line")
		return nil
	}
	return &sess
}
