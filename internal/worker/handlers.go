package worker

import (
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/pomotrack/pomotrack/internal/sessionlog"
	"github.com/pomotrack/pomotrack/internal/stats"
	"github.com/pomotrack/pomotrack/pkg/models"
)

// statsScanLimit is how many recent records the stats endpoints
// aggregate over, matching the date-filter window of the store.
const statsScanLimit = 1000

type createSessionRequest struct {
	SessionType     string `json:"session_type"`
	DurationMinutes int    `json:"duration_minutes"`
	TaskDescription string `json:"task_description"`
	Completed       bool   `json:"completed"`
	Interruptions   int    `json:"interruptions"`
}

type createSessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type listSessionsResponse struct {
	Sessions []*models.Session `json:"sessions"`
	Total    int               `json:"total"`
}

type statsResponse struct {
	TotalSessions     int     `json:"total_sessions"`
	CompletedSessions int     `json:"completed_sessions"`
	TotalFocusMinutes int     `json:"total_focus_minutes"`
	CompletionRate    float64 `json:"completion_rate"`
	TodaySessions     int     `json:"today_sessions"`
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "pomotrack",
	})
}

func (s *Service) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{
		"work_minutes":        s.cfg.WorkMinutes,
		"short_break_minutes": s.cfg.ShortBreakMinutes,
		"long_break_minutes":  s.cfg.LongBreakMinutes,
	})
}

// handleCreateSession validates the request, builds the session and
// appends it to the log. A failed append is reported in the body as
// success=false but still answers 201: the session happened whether or
// not recording it worked.
func (s *Service) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Request data is required")
		return
	}
	if !models.ValidType(models.Type(req.SessionType)) {
		writeError(w, http.StatusBadRequest, "Invalid session type")
		return
	}
	if req.DurationMinutes <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid duration")
		return
	}

	sess := models.New(models.Type(req.SessionType), req.DurationMinutes, req.TaskDescription)
	if req.Completed {
		sess.Complete()
	}
	sess.Interruptions = req.Interruptions

	if err := s.store.RotateIfOversized(); err != nil {
		log.Warn().Err(err).Msg("Session log rotation failed")
	}

	resp := createSessionResponse{SessionID: sess.ID}
	if err := s.store.Append(sess); err != nil {
		log.Warn().Err(err).Str("sessionId", sess.ID).Msg("Failed to log session")
		resp.Message = "Failed to log session"
	} else {
		resp.Success = true
		resp.Message = "Session logged successfully"
		s.events.Broadcast("session_logged", sess)
	}
	writeJSON(w, http.StatusCreated, resp)
}

// handleListSessions returns recent sessions, most recent first. An
// unparseable date parameter falls back silently to the plain
// limit-based read.
func (s *Service) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := sessionlog.DefaultReadLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	var sessions []*models.Session
	if raw := r.URL.Query().Get("date"); raw != "" {
		if day, err := parseDateParam(raw); err == nil {
			sessions = s.store.ReadByDate(day)
		} else {
			sessions = s.store.Read(limit)
		}
	} else {
		sessions = s.store.Read(limit)
	}

	if sessions == nil {
		sessions = []*models.Session{}
	}
	writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: sessions, Total: len(sessions)})
}

func (s *Service) handleStats(w http.ResponseWriter, r *http.Request) {
	sessions := s.store.Read(statsScanLimit)

	resp := statsResponse{
		TotalSessions:  len(sessions),
		CompletionRate: stats.CompletionRate(sessions),
	}
	ty, tm, td := time.Now().UTC().Date()
	for _, sess := range sessions {
		if sess.Completed {
			resp.CompletedSessions++
			if sess.Type == models.TypeWork {
				resp.TotalFocusMinutes += sess.DurationMinutes
			}
		}
		sy, sm, sd := sess.StartTime.UTC().Date()
		if sy == ty && sm == tm && sd == td {
			resp.TodaySessions++
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleDailyStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stats.Daily(s.store.Read(statsScanLimit), time.Now().UTC()))
}

func (s *Service) handleWeeklyStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stats.Weekly(s.store.Read(statsScanLimit), time.Now().UTC()))
}

func (s *Service) handleTrend(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stats.ProductivityTrend(s.store.Read(statsScanLimit), time.Now().UTC()))
}

func (s *Service) handleDistribution(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stats.Distribution(s.store.Read(statsScanLimit)))
}

func (s *Service) handlePeakHours(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stats.PeakProductivityHour(s.store.Read(statsScanLimit)))
}

// handleEvents streams session_logged events so open history pages can
// refresh without polling.
func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	ch := s.events.Subscribe()
	defer s.events.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-ch:
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// parseDateParam accepts a plain date or a full timestamp.
func parseDateParam(raw string) (time.Time, error) {
	if day, err := time.Parse(time.DateOnly, raw); err == nil {
		return day, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
