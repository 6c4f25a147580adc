package http

import (
	"fmt"
	"net/http"

	"debikan/internal/core"
	"debikan/internal/middleware/trace"
	"debikan/internal/services"
)

// session resolves the month path value to its loaded session.
func (s *Server) session(r *http.Request) (*services.MonthSession, error) {
	month, err := pathMonth(r)
	if err != nil {
		return nil, err
	}
	if queryFlag(r, "reload") {
		return s.months.Reload(r.Context(), month)
	}
	return s.months.Session(r.Context(), month)
}

func (s *Server) handleGetMonth(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthJSON(sess.Month(), sess.Rows()))
}

func (s *Server) handleReloadMonth(w http.ResponseWriter, r *http.Request) {
	month, err := pathMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := s.months.Reload(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthJSON(sess.Month(), sess.Rows()))
}

func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryJSON(sess.Month(), sess.Summary()))
}

// handleSetAmount answers 202: the row already shows the text but the
// write happens once typing pauses.
func (s *Server) handleSetAmount(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := s.editTarget(w, r)
	if !ok {
		return
	}
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	text, valid := req.text()
	if !valid {
		writeError(w, r, fmt.Errorf("%w: amount must be text or a number", errBadRequest))
		return
	}
	row, err := sess.SetAmount(r.Context(), id, sanitizeInput(text))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toRowJSON(row))
}

func (s *Server) handleSetPaid(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := s.editTarget(w, r)
	if !ok {
		return
	}
	var req paidRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Paid == nil {
		writeError(w, r, fmt.Errorf("%w: paid is required", errBadRequest))
		return
	}
	row, err := sess.SetPaid(r.Context(), id, *req.Paid)
	s.writeEditResult(w, r, row, err)
}

func (s *Server) handleSetDate(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := s.editTarget(w, r)
	if !ok {
		return
	}
	var req dateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	row, err := sess.SetDate(r.Context(), id, date)
	s.writeEditResult(w, r, row, err)
}

func (s *Server) editTarget(w http.ResponseWriter, r *http.Request) (*services.MonthSession, int64, bool) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, err)
		return nil, 0, false
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return nil, 0, false
	}
	return sess, id, true
}

// writeEditResult reports a failed immediate write together with the row,
// which keeps the edited values and carries the unsynced flag.
func (s *Server) writeEditResult(w http.ResponseWriter, r *http.Request, row core.MonthlyViewRow, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, toRowJSON(row))
		return
	}
	if row.ItemID == 0 {
		writeError(w, r, err)
		return
	}
	status := statusFor(err)
	writeJSON(w, status, editErrorResponse{
		errorResponse: errorResponse{
			Error:     errorMessage(r, status, err),
			RequestID: trace.GetRequestID(r.Context()),
		},
		Row: toRowJSON(row),
	})
}

type editErrorResponse struct {
	errorResponse
	Row rowJSON `json:"row"`
}
