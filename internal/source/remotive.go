package source

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jobatlas/jobatlas/internal/jobs"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const (
	NameRemotive   = "remotive"
	remotiveAPIURL = "https://remotive.com/api/remote-jobs"
)

type remotiveAdapter struct {
	client  *Client
	limiter *Window
	logger  *zap.Logger
}

func newRemotive(cfg *Config, logger *zap.Logger) Adapter {
	return &remotiveAdapter{
		client:  NewClient(cfg, remotiveAPIURL, logger),
		limiter: NewWindow(cfg.RateCeiling, cfg.RateWindow),
		logger:  logger,
	}
}

// remotiveJob mirrors one item of the Remotive listing payload.
type remotiveJob struct {
	ID          int      `json:"id"`
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	CompanyName string   `json:"company_name"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	JobType     string   `json:"job_type"`
	Publication string   `json:"publication_date"`
	Location    string   `json:"candidate_required_location"`
	Salary      string   `json:"salary"`
	Description string   `json:"description"`
}

func (a *remotiveAdapter) Name() string { return NameRemotive }

func (a *remotiveAdapter) Limiter() *Window { return a.limiter }

func (a *remotiveAdapter) Search(ctx context.Context, req *jobs.SearchRequest) (*jobs.Postings, error) {
	if !a.limiter.Allow() {
		return nil, jobs.RateLimited("remotive call budget exceeded", nil)
	}

	q := url.Values{}
	q.Set("search", req.Query)
	q.Set("limit", strconv.Itoa(req.Limit))

	var payload map[string]any
	if err := a.client.GetJSON(ctx, "", q, &payload); err != nil {
		return nil, err
	}

	var items []remotiveJob
	cfg := &mapstructure.DecoderConfig{
		Result:           &items,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, _ := mapstructure.NewDecoder(cfg)
	if err := decoder.Decode(payload["jobs"]); err != nil {
		return nil, jobs.Transport("decoding remotive jobs", err)
	}

	postings := &jobs.Postings{}
	for _, item := range items {
		postings.Append(a.normalize(item))
	}

	a.logger.Debug("remotive search done", zap.Int("count", postings.Len()))
	return postings, nil
}

func (a *remotiveAdapter) normalize(item remotiveJob) *jobs.Posting {
	text := item.Title + " " + strings.Join(item.Tags, " ") + " " + item.Description
	min, max := ParseSalary(item.Salary)

	published, _ := time.Parse("2006-01-02T15:04:05", item.Publication)

	return &jobs.Posting{
		ID:           uuid.NewString(),
		Title:        item.Title,
		Company:      item.CompanyName,
		Location:     item.Location,
		SalaryRaw:    item.Salary,
		SalaryMin:    min,
		SalaryMax:    max,
		Description:  item.Description,
		Requirements: ExtractRequirements(text),
		Benefits:     ExtractBenefits(item.Description),
		PublishedAt:  published,
		Source:       NameRemotive,
		SourceURL:    item.URL,
		Industry:     item.Category,
		JobType:      item.JobType,
		// Remotive lists remote positions only.
		Remote: true,
	}
}

func (a *remotiveAdapter) Probe(ctx context.Context) error {
	q := url.Values{}
	q.Set("limit", "1")
	return a.client.GetJSON(ctx, "", q, nil)
}
