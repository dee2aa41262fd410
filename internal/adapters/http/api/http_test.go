package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/roundreport/internal/adapters/export"
	"github.com/okian/roundreport/internal/adapters/http/api"
	"github.com/okian/roundreport/internal/domain/lookup"
	"github.com/okian/roundreport/internal/domain/model"
	"github.com/okian/roundreport/internal/domain/report"
	"github.com/okian/roundreport/internal/domain/selector"
	"github.com/okian/roundreport/internal/domain/types"
)

type fakeReporter struct {
	err        error
	lastWindow model.Window
	lastLimit  selector.Limit
	lastFrac   float64
	lastYear   int
	lastUser   string
}

func (f *fakeReporter) Ten99(_ context.Context, user string, year int) (report.Ten99Report, error) {
	f.lastUser, f.lastYear = user, year
	if f.err != nil {
		return report.Ten99Report{}, f.err
	}
	return report.Ten99Report{User: user, Year: year, Window: model.Window{From: 50, To: 70}, Rows: []types.TaxRow{
		{Round: 60, USDMain: 10, NMRMain: 2, NMRUSD: 10.12, Total: 30.24},
	}}, nil
}

func (f *fakeReporter) Consistency(_ context.Context, w model.Window, frac float64) (report.ConsistencyReport, error) {
	f.lastWindow, f.lastFrac = w, frac
	if f.err != nil {
		return report.ConsistencyReport{}, f.err
	}
	return report.ConsistencyReport{Rows: []types.ConsistencyRow{{User: "bob", Rounds: 2, Consistency: 1}}}, nil
}

func (f *fakeReporter) Stake(_ context.Context, w model.Window, limit selector.Limit) (report.StakeReport, error) {
	f.lastWindow, f.lastLimit = w, limit
	if f.err != nil {
		return report.StakeReport{}, f.err
	}
	return report.StakeReport{
		Span:  report.Span{First: 61, Last: 63},
		Price: 1,
		Rows:  []types.StakeRow{{User: "bob", ProfitUSD: 23}, {User: "alice", ProfitUSD: 15}},
	}, nil
}

func (f *fakeReporter) Earn(_ context.Context, w model.Window, limit selector.Limit) (report.EarnReport, error) {
	f.lastWindow, f.lastLimit = w, limit
	return report.EarnReport{}, f.err
}

func (f *fakeReporter) Burn(_ context.Context, w model.Window, limit selector.Limit) (report.BurnReport, error) {
	f.lastWindow, f.lastLimit = w, limit
	return report.BurnReport{}, f.err
}

func (f *fakeReporter) Participation(_ context.Context, w model.Window, limit selector.Limit) (report.ParticipationReport, error) {
	f.lastWindow, f.lastLimit = w, limit
	return report.ParticipationReport{}, f.err
}

func (f *fakeReporter) BigStaker(_ context.Context, w model.Window, limit selector.Limit) (report.BigStakerReport, error) {
	f.lastWindow, f.lastLimit = w, limit
	return report.BigStakerReport{}, f.err
}

func (f *fakeReporter) NewUsers(_ context.Context, w model.Window) (report.NewUsersReport, error) {
	f.lastWindow = w
	if f.err != nil {
		return report.NewUsersReport{}, f.err
	}
	return report.NewUsersReport{
		Span: report.Span{First: 61, Last: 63},
		Rows: []types.NewUsersRow{{Round: 61, Count: 2}, {Round: 62, Count: 0}, {Round: 63, Count: 1}},
	}, nil
}

func (f *fakeReporter) UserParticipation(_ context.Context, user string, w model.Window) ([]int, error) {
	f.lastUser, f.lastWindow = user, w
	if f.err != nil {
		return nil, f.err
	}
	if user == "bob" {
		return []int{64, 62}, nil
	}
	return []int{}, nil
}

type staticStats types.ServiceStats

func (s staticStats) GetStats() types.ServiceStats { return types.ServiceStats(s) }

func newMux(rep api.Reporter, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(rep, staticStats{Started: true, Tournament: 1, LedgerStats: &types.LedgerStats{Records: 3}}, opts...).Register(context.Background(), mux)
	return mux
}

func get(mux http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func errorCode(rec *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return body.Code
}

func TestReportRoutes(t *testing.T) {
	Convey("Given a server backed by a fake reporter", t, func() {
		rep := &fakeReporter{}
		mux := newMux(rep, api.WithMaxNtop(50), api.WithMinParticipation(0.6))

		Convey("stake returns JSON and forwards window and limit", func() {
			rec := get(mux, "/reports/stake?round1=61&round2=63&ntop=-5")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Content-Type"), ShouldStartWith, "application/json")
			So(rep.lastWindow, ShouldResemble, model.Window{From: 61, To: 63})
			n, ok := rep.lastLimit.Value()
			So(ok, ShouldBeTrue)
			So(n, ShouldEqual, -5)

			var got report.StakeReport
			So(json.Unmarshal(rec.Body.Bytes(), &got), ShouldBeNil)
			So(got.Rows, ShouldHaveLength, 2)
			So(got.Rows[0].User, ShouldEqual, "bob")
		})

		Convey("a missing window means default first round through latest", func() {
			rec := get(mux, "/reports/burn")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rep.lastWindow, ShouldResemble, model.Window{From: 0, To: model.Latest})
			So(rep.lastLimit.IsSet(), ShouldBeFalse)
		})

		Convey("each ranked route is registered", func() {
			for _, path := range []string{"/reports/earn", "/reports/participation", "/reports/big-staker"} {
				So(get(mux, path).Code, ShouldEqual, http.StatusOK)
			}
		})

		Convey("bad parameters give 400", func() {
			rec := get(mux, "/reports/stake?round1=abc")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(rec), ShouldEqual, "bad_request")

			rec = get(mux, "/reports/stake?ntop=ten")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(rec), ShouldEqual, "bad_request")
		})

		Convey("ntop above the maximum is rejected in either direction", func() {
			So(errorCode(get(mux, "/reports/earn?ntop=51")), ShouldEqual, "limit_exceeded")
			So(errorCode(get(mux, "/reports/earn?ntop=-51")), ShouldEqual, "limit_exceeded")
			So(get(mux, "/reports/earn?ntop=50").Code, ShouldEqual, http.StatusOK)
		})

		Convey("unknown formats are rejected", func() {
			rec := get(mux, "/reports/stake?format=png")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(rec), ShouldEqual, "unsupported_format")
		})

		Convey("format=xlsx returns a workbook attachment", func() {
			rec := get(mux, "/reports/stake?format=xlsx")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Content-Type"), ShouldEqual, export.ContentTypeXLSX)
			So(rec.Header().Get("Content-Disposition"), ShouldContainSubstring, ".xlsx")
			So(strings.HasPrefix(rec.Body.String(), "PK"), ShouldBeTrue)
		})

		Convey("new users can be rendered as a png chart", func() {
			rec := get(mux, "/reports/new-users?format=png")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Content-Type"), ShouldEqual, export.ContentTypePNG)
			So(rec.Body.Bytes()[:4], ShouldResemble, []byte{0x89, 'P', 'N', 'G'})
		})

		Convey("consistency uses the configured fraction unless one is given", func() {
			So(get(mux, "/reports/consistency").Code, ShouldEqual, http.StatusOK)
			So(rep.lastFrac, ShouldEqual, 0.6)
			So(get(mux, "/reports/consistency?min_participation=0.25").Code, ShouldEqual, http.StatusOK)
			So(rep.lastFrac, ShouldEqual, 0.25)
		})

		Convey("ten99 needs a user and defaults the year", func() {
			So(errorCode(get(mux, "/reports/ten99")), ShouldEqual, "bad_request")

			rec := get(mux, "/reports/ten99?user=bob")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rep.lastUser, ShouldEqual, "bob")
			So(rep.lastYear, ShouldEqual, api.DefaultTaxYear)
		})
	})
}

func TestErrorMapping(t *testing.T) {
	Convey("Given reporter failures", t, func() {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{report.ErrInvalidWindow, http.StatusBadRequest, "bad_request"},
			{report.ErrInvalidFraction, http.StatusBadRequest, "bad_request"},
			{lookup.Wrap(lookup.ServiceSpot, "nmr", errors.New("timeout")), http.StatusServiceUnavailable, "lookup_unavailable"},
			{errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
		}
		for _, c := range cases {
			rec := get(newMux(&fakeReporter{err: c.err}), "/reports/stake")
			So(rec.Code, ShouldEqual, c.status)
			So(errorCode(rec), ShouldEqual, c.code)
		}
	})
}

func TestUserRounds(t *testing.T) {
	Convey("Given the user rounds route", t, func() {
		mux := newMux(&fakeReporter{})

		Convey("rounds come back as the reporter returned them", func() {
			rec := get(mux, "/users/bob/rounds")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"rounds":[64,62]`)
		})

		Convey("an unknown user gets an empty list, not null", func() {
			rec := get(mux, "/users/nobody/rounds")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"rounds":[]`)
		})
	})
}

func TestRequestID(t *testing.T) {
	Convey("Given any route", t, func() {
		mux := newMux(&fakeReporter{})

		Convey("a request id is generated when absent", func() {
			rec := get(mux, "/stats")
			So(rec.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)
		})

		Convey("an incoming request id is echoed", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			req.Header.Set(api.RequestIDHeader, "abc-123")
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			So(rec.Header().Get(api.RequestIDHeader), ShouldEqual, "abc-123")
			So(rec.Body.String(), ShouldContainSubstring, `"records":3`)
		})
	})
}

func TestStats(t *testing.T) {
	Convey("Given a service that has not started", t, func() {
		mux := http.NewServeMux()
		api.NewServer(&fakeReporter{}, staticStats{Tournament: 8}).Register(context.Background(), mux)

		Convey("stats carry no ledger fields", func() {
			rec := get(mux, "/stats")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Content-Type"), ShouldStartWith, "application/json")
			So(rec.Body.String(), ShouldContainSubstring, `"tournament":8`)
			So(rec.Body.String(), ShouldContainSubstring, `"started":false`)
			So(rec.Body.String(), ShouldNotContainSubstring, "records")
		})
	})
}

func TestHealth(t *testing.T) {
	Convey("healthz serves the metrics registry", t, func() {
		mux := newMux(&fakeReporter{})
		_ = get(mux, "/reports/stake")
		rec := get(mux, "/healthz")
		So(rec.Code, ShouldEqual, http.StatusOK)
		So(rec.Body.String(), ShouldContainSubstring, "http_requests_total")
	})
}
