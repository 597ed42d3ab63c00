package source

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/jobatlas/jobatlas/internal/jobs"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const (
	NameJobicy   = "jobicy"
	jobicyAPIURL = "https://jobicy.com/api/v2/remote-jobs"
)

type jobicyAdapter struct {
	client  *Client
	limiter *Window
	logger  *zap.Logger
}

func newJobicy(cfg *Config, logger *zap.Logger) Adapter {
	return &jobicyAdapter{
		client:  NewClient(cfg, jobicyAPIURL, logger),
		limiter: NewWindow(cfg.RateCeiling, cfg.RateWindow),
		logger:  logger,
	}
}

type jobicyJob struct {
	ID          int    `json:"id"`
	URL         string `json:"url"`
	Title       string `json:"jobTitle"`
	CompanyName string `json:"companyName"`
	Industry    string `json:"jobIndustry"`
	Level       string `json:"jobLevel"`
	Geo         string `json:"jobGeo"`
	Type        string `json:"jobType"`
	Excerpt     string `json:"jobExcerpt"`
	Description string `json:"jobDescription"`
	PubDate     string `json:"pubDate"`
	SalaryMin   int    `json:"annualSalaryMin"`
	SalaryMax   int    `json:"annualSalaryMax"`
	Currency    string `json:"salaryCurrency"`
}

func (a *jobicyAdapter) Name() string { return NameJobicy }

func (a *jobicyAdapter) Limiter() *Window { return a.limiter }

func (a *jobicyAdapter) Search(ctx context.Context, req *jobs.SearchRequest) (*jobs.Postings, error) {
	if !a.limiter.Allow() {
		return nil, jobs.RateLimited("jobicy call budget exceeded", nil)
	}

	q := url.Values{}
	q.Set("tag", req.Query)
	q.Set("count", strconv.Itoa(req.Limit))
	if req.Location != "" {
		q.Set("geo", req.Location)
	}

	var payload map[string]any
	if err := a.client.GetJSON(ctx, "", q, &payload); err != nil {
		return nil, err
	}

	var items []jobicyJob
	cfg := &mapstructure.DecoderConfig{
		Result:           &items,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, _ := mapstructure.NewDecoder(cfg)
	if err := decoder.Decode(payload["jobs"]); err != nil {
		return nil, jobs.Transport("decoding jobicy jobs", err)
	}

	postings := &jobs.Postings{}
	for _, item := range items {
		postings.Append(a.normalize(item))
	}

	a.logger.Debug("jobicy search done", zap.Int("count", postings.Len()))
	return postings, nil
}

func (a *jobicyAdapter) normalize(item jobicyJob) *jobs.Posting {
	description := item.Description
	if description == "" {
		description = item.Excerpt
	}
	text := item.Title + " " + description

	published, _ := time.Parse("2006-01-02 15:04:05", item.PubDate)

	return &jobs.Posting{
		ID:           uuid.NewString(),
		Title:        item.Title,
		Company:      item.CompanyName,
		Location:     item.Geo,
		SalaryMin:    item.SalaryMin,
		SalaryMax:    item.SalaryMax,
		Experience:   item.Level,
		Description:  description,
		Requirements: ExtractRequirements(text),
		Benefits:     ExtractBenefits(description),
		PublishedAt:  published,
		Source:       NameJobicy,
		SourceURL:    item.URL,
		Industry:     item.Industry,
		JobType:      item.Type,
		// Jobicy lists remote positions only.
		Remote: true,
	}
}

func (a *jobicyAdapter) Probe(ctx context.Context) error {
	q := url.Values{}
	q.Set("count", "1")
	return a.client.GetJSON(ctx, "", q, nil)
}
