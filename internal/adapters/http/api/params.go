package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/roundreport/internal/domain/model"
	"github.com/okian/roundreport/internal/domain/selector"
)

// Output formats.
const (
	formatJSON = "json"
	formatXLSX = "xlsx"
	formatPNG  = "png"
)

// reportQuery holds the parameters shared by the report routes.
type reportQuery struct {
	window model.Window
	limit  selector.Limit
	format string
}

func intParam(q url.Values, name string, def int) (int, error) {
	s := strings.TrimSpace(q.Get(name))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrBadRequest, name, s)
	}
	return n, nil
}

func floatParam(q url.Values, name string, def float64) (float64, error) {
	s := strings.TrimSpace(q.Get(name))
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrBadRequest, name, s)
	}
	return f, nil
}

// windowParams reads round1 and round2. A missing round1 is left at zero
// so the engine applies its configured default.
func windowParams(q url.Values) (model.Window, error) {
	from, err := intParam(q, "round1", 0)
	if err != nil {
		return model.Window{}, err
	}
	to, err := intParam(q, "round2", model.Latest)
	if err != nil {
		return model.Window{}, err
	}
	return model.Window{From: from, To: to}, nil
}

func formatParam(q url.Values, allowed ...string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(q.Get("format")))
	if f == "" {
		return formatJSON, nil
	}
	if f == formatJSON {
		return f, nil
	}
	for _, a := range allowed {
		if f == a {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// parseReportQuery reads window, ntop and format. |ntop| above maxNtop is
// rejected when maxNtop is positive.
func parseReportQuery(r *http.Request, maxNtop int, formats ...string) (reportQuery, error) {
	q := r.URL.Query()
	w, err := windowParams(q)
	if err != nil {
		return reportQuery{}, err
	}
	limit, err := selector.Parse(q.Get("ntop"))
	if err != nil {
		return reportQuery{}, err
	}
	if n, ok := limit.Value(); ok && maxNtop > 0 && (n > maxNtop || -n > maxNtop) {
		return reportQuery{}, fmt.Errorf("%w: %d > %d", ErrLimitExceeded, n, maxNtop)
	}
	format, err := formatParam(q, formats...)
	if err != nil {
		return reportQuery{}, err
	}
	return reportQuery{window: w, limit: limit, format: format}, nil
}
