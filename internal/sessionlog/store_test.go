package sessionlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/pomotrack/pomotrack/pkg/models"
)

// StoreSuite is a test suite for the session log store.
type StoreSuite struct {
	suite.Suite
	dir   string
	path  string
	store *Store
}

func (s *StoreSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.path = filepath.Join(s.dir, "logs", "pomodoro_sessions.log")
	s.store = New(s.path)
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) newSession(id string, start time.Time, completed bool) *models.Session {
	sess := &models.Session{
		ID:              id,
		Type:            models.TypeWork,
		DurationMinutes: 25,
		StartTime:       start,
	}
	if completed {
		end := start.Add(25 * time.Minute)
		sess.EndTime = &end
		sess.Completed = true
	}
	return sess
}

func (s *StoreSuite) TestNew_CreatesParentDirectory() {
	info, err := os.Stat(filepath.Dir(s.path))
	s.Require().NoError(err)
	s.True(info.IsDir())
}

func (s *StoreSuite) TestRead_MissingFile() {
	s.Empty(s.store.Read(100))
}

func (s *StoreSuite) TestAppend_OneCompactLinePerSession() {
	sess := s.newSession("a", time.Now().UTC(), true)
	sess.TaskDescription = "multi\nline\ndescription"
	s.Require().NoError(s.store.Append(sess))

	data, err := os.ReadFile(s.path)
	s.Require().NoError(err)

	content := strings.TrimSuffix(string(data), "\n")
	s.NotContains(content, "\n", "record must be a single line")
	s.True(strings.HasSuffix(string(data), "\n"), "record must be newline-terminated")
}

// TestRead_Order covers the order invariant: appends A, B, C read back
// as [C, B, A].
func (s *StoreSuite) TestRead_Order() {
	now := time.Now().UTC()
	for _, id := range []string{"a", "b", "c"} {
		s.Require().NoError(s.store.Append(s.newSession(id, now, false)))
	}

	sessions := s.store.Read(3)
	s.Require().Len(sessions, 3)
	s.Equal("c", sessions[0].ID)
	s.Equal("b", sessions[1].ID)
	s.Equal("a", sessions[2].ID)
}

func (s *StoreSuite) TestRead_LimitKeepsMostRecent() {
	now := time.Now().UTC()
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		s.Require().NoError(s.store.Append(s.newSession(id, now, false)))
	}

	sessions := s.store.Read(2)
	s.Require().Len(sessions, 2)
	s.Equal("e", sessions[0].ID)
	s.Equal("d", sessions[1].ID)
}

func (s *StoreSuite) TestRead_SkipsCorruptLine() {
	now := time.Now().UTC()
	s.Require().NoError(s.store.Append(s.newSession("a", now, false)))

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	s.Require().NoError(err)
	_, err = f.WriteString("{this is not valid json\n")
	s.Require().NoError(err)
	s.Require().NoError(f.Close())

	s.Require().NoError(s.store.Append(s.newSession("b", now, false)))

	sessions := s.store.Read(10)
	s.Require().Len(sessions, 2)
	s.Equal("b", sessions[0].ID)
	s.Equal("a", sessions[1].ID)
}

func (s *StoreSuite) TestRead_SkipsBlankLines() {
	now := time.Now().UTC()
	s.Require().NoError(s.store.Append(s.newSession("a", now, false)))

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	s.Require().NoError(err)
	_, err = f.WriteString("\n\n")
	s.Require().NoError(err)
	s.Require().NoError(f.Close())

	s.Require().NoError(s.store.Append(s.newSession("b", now, false)))

	sessions := s.store.Read(10)
	s.Require().Len(sessions, 2)
}

// TestRead_SkipsBadTimestamp: a well-formed JSON object with a corrupt
// start_time is a skip at the store boundary even though the decoder
// itself reports it loudly.
func (s *StoreSuite) TestRead_SkipsBadTimestamp() {
	now := time.Now().UTC()
	s.Require().NoError(s.store.Append(s.newSession("a", now, false)))

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	s.Require().NoError(err)
	_, err = f.WriteString(`{"session_id":"x","session_type":"work","duration_minutes":25,"start_time":"garbage"}` + "\n")
	s.Require().NoError(err)
	s.Require().NoError(f.Close())

	sessions := s.store.Read(10)
	s.Require().Len(sessions, 1)
	s.Equal("a", sessions[0].ID)
}

// TestRead_VeryLongDescription: a record whose description pushes the
// stored line past any fixed buffer size was accepted on append, so it
// and its neighbors must all survive read-back.
func (s *StoreSuite) TestRead_VeryLongDescription() {
	now := time.Now().UTC()
	s.Require().NoError(s.store.Append(s.newSession("before", now, false)))

	big := s.newSession("big", now, true)
	big.TaskDescription = strings.Repeat("x", 2*1024*1024)
	s.Require().NoError(s.store.Append(big))

	s.Require().NoError(s.store.Append(s.newSession("after", now, false)))

	sessions := s.store.Read(10)
	s.Require().Len(sessions, 3)
	s.Equal("after", sessions[0].ID)
	s.Equal("big", sessions[1].ID)
	s.Equal("before", sessions[2].ID)
	s.Len(sessions[1].TaskDescription, 2*1024*1024)
}

func (s *StoreSuite) TestReadByDate() {
	day := time.Date(2026, 8, 18, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.Append(s.newSession("before", day.Add(-2*time.Hour), false)))
	s.Require().NoError(s.store.Append(s.newSession("morning", day.Add(9*time.Hour), true)))
	s.Require().NoError(s.store.Append(s.newSession("evening", day.Add(21*time.Hour), false)))
	s.Require().NoError(s.store.Append(s.newSession("after", day.Add(25*time.Hour), false)))

	sessions := s.store.ReadByDate(day)
	s.Require().Len(sessions, 2)
	s.Equal("evening", sessions[0].ID)
	s.Equal("morning", sessions[1].ID)
}

func (s *StoreSuite) TestReadByDate_NoMatches() {
	s.Require().NoError(s.store.Append(s.newSession("a", time.Date(2026, 8, 18, 9, 0, 0, 0, time.UTC), false)))
	s.Empty(s.store.ReadByDate(time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC)))
}

func (s *StoreSuite) TestRotate_MissingFileIsSuccess() {
	s.NoError(s.store.RotateIfOversized())
}

func (s *StoreSuite) TestRotate_SmallFileUntouched() {
	s.Require().NoError(s.store.Append(s.newSession("a", time.Now().UTC(), false)))
	s.Require().NoError(s.store.RotateIfOversized())

	_, err := os.Stat(s.path)
	s.NoError(err)
	_, err = os.Stat(s.path + ".old")
	s.True(os.IsNotExist(err))
}

func (s *StoreSuite) TestRotate_OversizedFileRenamed() {
	f, err := os.Create(s.path)
	s.Require().NoError(err)
	s.Require().NoError(f.Truncate(maxLogSize+1))
	s.Require().NoError(f.Close())

	s.Require().NoError(s.store.RotateIfOversized())

	_, err = os.Stat(s.path)
	s.True(os.IsNotExist(err), "original file should be gone")
	_, err = os.Stat(s.path + ".old")
	s.NoError(err, "rotated file should exist")

	// Next append starts a fresh file.
	s.Require().NoError(s.store.Append(s.newSession("a", time.Now().UTC(), false)))
	s.Len(s.store.Read(10), 1)
}

func (s *StoreSuite) TestRotate_OverwritesPreviousRotation() {
	s.Require().NoError(os.WriteFile(s.path+".old", []byte("previous rotation\n"), 0o644))

	f, err := os.Create(s.path)
	s.Require().NoError(err)
	s.Require().NoError(f.Truncate(maxLogSize+1))
	s.Require().NoError(f.Close())

	s.Require().NoError(s.store.RotateIfOversized())

	info, err := os.Stat(s.path + ".old")
	s.Require().NoError(err)
	s.Greater(info.Size(), int64(maxLogSize))
}

func (s *StoreSuite) TestAppend_RoundTripThroughFile() {
	sess := s.newSession("rt", time.Date(2026, 8, 19, 10, 30, 0, 0, time.UTC), true)
	sess.TaskDescription = `répondre aux "emails" 📧`
	sess.Interruptions = 2
	s.Require().NoError(s.store.Append(sess))

	sessions := s.store.Read(1)
	s.Require().Len(sessions, 1)

	got := sessions[0]
	s.Equal(sess.ID, got.ID)
	s.Equal(sess.Type, got.Type)
	s.Equal(sess.DurationMinutes, got.DurationMinutes)
	s.Equal(sess.TaskDescription, got.TaskDescription)
	s.True(got.StartTime.Equal(sess.StartTime))
	s.True(got.Completed)
	s.Require().NotNil(got.EndTime)
	s.True(got.EndTime.Equal(*sess.EndTime))
	s.Equal(2, got.Interruptions)
}
