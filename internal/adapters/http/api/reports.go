package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/roundreport/internal/adapters/export"
	"github.com/okian/roundreport/internal/domain/model"
	"github.com/okian/roundreport/internal/domain/report"
	"github.com/okian/roundreport/internal/domain/selector"
	"github.com/okian/roundreport/pkg/logger"
)

// DefaultTaxYear is used by /reports/ten99 when no year is given.
const DefaultTaxYear = 2017

// Reporter runs the reports. Both report.Engine and the app service
// satisfy it.
type Reporter interface {
	Ten99(ctx context.Context, user string, year int) (report.Ten99Report, error)
	Consistency(ctx context.Context, w model.Window, minFraction float64) (report.ConsistencyReport, error)
	Stake(ctx context.Context, w model.Window, limit selector.Limit) (report.StakeReport, error)
	Earn(ctx context.Context, w model.Window, limit selector.Limit) (report.EarnReport, error)
	Burn(ctx context.Context, w model.Window, limit selector.Limit) (report.BurnReport, error)
	Participation(ctx context.Context, w model.Window, limit selector.Limit) (report.ParticipationReport, error)
	BigStaker(ctx context.Context, w model.Window, limit selector.Limit) (report.BigStakerReport, error)
	NewUsers(ctx context.Context, w model.Window) (report.NewUsersReport, error)
	UserParticipation(ctx context.Context, user string, w model.Window) ([]int, error)
}

// ReportsHandler serves the /reports routes.
type ReportsHandler struct {
	deps        Reporter
	maxNtop     int
	minFraction float64
	log         logger.Logger
}

// NewReportsHandler creates a reports handler. maxNtop <= 0 disables the
// ntop cap.
func NewReportsHandler(deps Reporter, maxNtop int, minFraction float64, log logger.Logger) *ReportsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ReportsHandler{deps: deps, maxNtop: maxNtop, minFraction: minFraction, log: log}
}

type ranked[R any] func(ctx context.Context, w model.Window, limit selector.Limit) (R, error)

// serveRanked handles the leaderboard style reports that take a window and ntop.
func serveRanked[R any](h *ReportsHandler, w http.ResponseWriter, r *http.Request, op string, run ranked[R], table func(R) export.Table) {
	q, err := parseReportQuery(r, h.maxNtop, formatXLSX)
	if err != nil {
		h.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := run(r.Context(), q.window, q.limit)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	h.render(w, r, op, q.format, res, func() export.Table { return table(res) })
}

// HandleStake handles GET /reports/stake.
func (h *ReportsHandler) HandleStake(w http.ResponseWriter, r *http.Request) {
	serveRanked(h, w, r, "api.stake", h.deps.Stake, export.StakeTable)
}

// HandleEarn handles GET /reports/earn.
func (h *ReportsHandler) HandleEarn(w http.ResponseWriter, r *http.Request) {
	serveRanked(h, w, r, "api.earn", h.deps.Earn, export.EarnTable)
}

// HandleBurn handles GET /reports/burn.
func (h *ReportsHandler) HandleBurn(w http.ResponseWriter, r *http.Request) {
	serveRanked(h, w, r, "api.burn", h.deps.Burn, export.BurnTable)
}

// HandleParticipation handles GET /reports/participation.
func (h *ReportsHandler) HandleParticipation(w http.ResponseWriter, r *http.Request) {
	serveRanked(h, w, r, "api.participation", h.deps.Participation, export.ParticipationTable)
}

// HandleBigStaker handles GET /reports/big-staker.
func (h *ReportsHandler) HandleBigStaker(w http.ResponseWriter, r *http.Request) {
	serveRanked(h, w, r, "api.big_staker", h.deps.BigStaker, export.BigStakerTable)
}

// HandleNewUsers handles GET /reports/new-users. format=png returns a chart.
func (h *ReportsHandler) HandleNewUsers(w http.ResponseWriter, r *http.Request) {
	const op = "api.new_users"
	q := r.URL.Query()
	win, err := windowParams(q)
	if err != nil {
		h.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	format, err := formatParam(q, formatXLSX, formatPNG)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	res, err := h.deps.NewUsers(r.Context(), win)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	if format == formatPNG {
		var buf bytes.Buffer
		if err := export.NewUsersChart(&buf, res); err != nil {
			h.fail(w, r, Wrap(op, err))
			return
		}
		w.Header().Set("Content-Type", export.ContentTypePNG)
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
		return
	}
	h.render(w, r, op, format, res, func() export.Table { return export.NewUsersTable(res) })
}

// HandleConsistency handles GET /reports/consistency.
func (h *ReportsHandler) HandleConsistency(w http.ResponseWriter, r *http.Request) {
	const op = "api.consistency"
	q := r.URL.Query()
	win, err := windowParams(q)
	if err != nil {
		h.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	frac, err := floatParam(q, "min_participation", h.minFraction)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	format, err := formatParam(q, formatXLSX)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	res, err := h.deps.Consistency(r.Context(), win, frac)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	h.render(w, r, op, format, res, func() export.Table { return export.ConsistencyTable(res) })
}

// HandleTen99 handles GET /reports/ten99?user=&year=.
func (h *ReportsHandler) HandleTen99(w http.ResponseWriter, r *http.Request) {
	const op = "api.ten99"
	q := r.URL.Query()
	user := strings.TrimSpace(q.Get("user"))
	if user == "" {
		h.fail(w, r, WrapKind(op, ErrBadRequest, fmt.Errorf("missing user")))
		return
	}
	year, err := intParam(q, "year", DefaultTaxYear)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	format, err := formatParam(q, formatXLSX)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	res, err := h.deps.Ten99(r.Context(), user, year)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	h.render(w, r, op, format, res, func() export.Table { return export.Ten99Table(res) })
}

// HandleUserRounds handles GET /users/{user}/rounds.
func (h *ReportsHandler) HandleUserRounds(w http.ResponseWriter, r *http.Request) {
	const op = "api.user_rounds"
	user := strings.TrimSpace(r.PathValue("user"))
	if user == "" {
		h.fail(w, r, NewKind(op, ErrBadRequest))
		return
	}
	q := r.URL.Query()
	win, err := windowParams(q)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	format, err := formatParam(q, formatXLSX)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	rounds, err := h.deps.UserParticipation(r.Context(), user, win)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	h.render(w, r, op, format, userRoundsResponse{User: user, Rounds: rounds}, func() export.Table {
		return export.UserRoundsTable(user, rounds)
	})
}

type userRoundsResponse struct {
	User   string `json:"user"`
	Rounds []int  `json:"rounds"`
}

// render writes res as JSON, or as a workbook built from table.
func (h *ReportsHandler) render(w http.ResponseWriter, r *http.Request, op, format string, res any, table func() export.Table) {
	if format != formatXLSX {
		writeJSON(w, http.StatusOK, res)
		return
	}
	t := table()
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, t); err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", t.Sheet+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *ReportsHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(r.Context(), "report request failed",
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}
