package backend

import (
	"strings"
	"time"
)

// Search templates understood by the backend.
const (
	TemplateKeyword   = 1
	TemplateDateRange = 2
	TemplateLocation  = 3
)

// WildcardTerm matches every story; an empty search term is sent as this.
const WildcardTerm = "*"

// DefaultUserID is sent when the caller has no user context.
const DefaultUserID = 1

// SearchParams is what a caller knows about a search: a free-text or
// quick-tag term plus optional filters.
type SearchParams struct {
	UserID  int
	Term    string
	City    string
	Country string
	Lat     *float64
	Lon     *float64
	From    *time.Time
	To      *time.Time
}

// SearchRequest is the backend search body.
type SearchRequest struct {
	UserID      int           `json:"user_id"`
	Term        string        `json:"term"`
	Filters     SearchFilters `json:"filters"`
	TemplateIDs []int         `json:"template_ids"`
}

// SearchFilters narrows a search by place and time. Date bounds are ISO-8601
// UTC strings or null.
type SearchFilters struct {
	City     string   `json:"city"`
	Country  string   `json:"country"`
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
	FromDate *string  `json:"from_date"`
	ToDate   *string  `json:"to_date"`
}

// BuildSearchRequest turns params into the backend body. The keyword template
// is always present; date and location templates are added when their
// filters are set. The upper date bound is widened to the last millisecond of
// its day so a search "until today" includes today.
func BuildSearchRequest(p SearchParams) SearchRequest {
	term := strings.TrimSpace(p.Term)
	if term == "" {
		term = WildcardTerm
	}
	userID := p.UserID
	if userID == 0 {
		userID = DefaultUserID
	}

	req := SearchRequest{
		UserID: userID,
		Term:   term,
		Filters: SearchFilters{
			City:    strings.TrimSpace(p.City),
			Country: strings.TrimSpace(p.Country),
			Lat:     p.Lat,
			Lon:     p.Lon,
		},
		TemplateIDs: []int{TemplateKeyword},
	}

	if p.From != nil {
		s := isoMillis(p.From.UTC())
		req.Filters.FromDate = &s
	}
	if p.To != nil {
		s := isoMillis(EndOfDay(*p.To))
		req.Filters.ToDate = &s
	}
	if p.From != nil || p.To != nil {
		req.TemplateIDs = append(req.TemplateIDs, TemplateDateRange)
	}
	if req.Filters.City != "" || req.Filters.Country != "" {
		req.TemplateIDs = append(req.TemplateIDs, TemplateLocation)
	}
	return req
}

// EndOfDay returns 23:59:59.999 UTC on t's UTC calendar day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), time.UTC)
}

func isoMillis(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000Z")
}
