package source

import (
	"context"
	"strings"
	"time"

	"github.com/jobatlas/jobatlas/internal/jobs"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const (
	NameArbeitnow   = "arbeitnow"
	arbeitnowAPIURL = "https://www.arbeitnow.com/api/job-board-api"
)

type arbeitnowAdapter struct {
	client  *Client
	limiter *Window
	logger  *zap.Logger
}

func newArbeitnow(cfg *Config, logger *zap.Logger) Adapter {
	return &arbeitnowAdapter{
		client:  NewClient(cfg, arbeitnowAPIURL, logger),
		limiter: NewWindow(cfg.RateCeiling, cfg.RateWindow),
		logger:  logger,
	}
}

type arbeitnowJob struct {
	Slug        string   `json:"slug"`
	CompanyName string   `json:"company_name"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Remote      bool     `json:"remote"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
	JobTypes    []string `json:"job_types"`
	Location    string   `json:"location"`
	CreatedAt   int64    `json:"created_at"`
}

func (a *arbeitnowAdapter) Name() string { return NameArbeitnow }

func (a *arbeitnowAdapter) Limiter() *Window { return a.limiter }

// Search fetches the current board page and filters client-side: the
// Arbeitnow API has no server-side text query.
func (a *arbeitnowAdapter) Search(ctx context.Context, req *jobs.SearchRequest) (*jobs.Postings, error) {
	if !a.limiter.Allow() {
		return nil, jobs.RateLimited("arbeitnow call budget exceeded", nil)
	}

	var payload map[string]any
	if err := a.client.GetJSON(ctx, "", nil, &payload); err != nil {
		return nil, err
	}

	var items []arbeitnowJob
	cfg := &mapstructure.DecoderConfig{
		Result:           &items,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, _ := mapstructure.NewDecoder(cfg)
	if err := decoder.Decode(payload["data"]); err != nil {
		return nil, jobs.Transport("decoding arbeitnow jobs", err)
	}

	query := strings.ToLower(req.Query)
	postings := &jobs.Postings{}
	for _, item := range items {
		haystack := strings.ToLower(item.Title + " " + strings.Join(item.Tags, " ") + " " + item.Description)
		if !strings.Contains(haystack, query) {
			continue
		}
		postings.Append(a.normalize(item))
		if postings.Len() >= req.Limit {
			break
		}
	}

	a.logger.Debug("arbeitnow search done", zap.Int("count", postings.Len()))
	return postings, nil
}

func (a *arbeitnowAdapter) normalize(item arbeitnowJob) *jobs.Posting {
	text := item.Title + " " + strings.Join(item.Tags, " ") + " " + item.Description

	jobType := ""
	if len(item.JobTypes) > 0 {
		jobType = item.JobTypes[0]
	}

	return &jobs.Posting{
		ID:           uuid.NewString(),
		Title:        item.Title,
		Company:      item.CompanyName,
		Location:     item.Location,
		Description:  item.Description,
		Requirements: ExtractRequirements(text),
		Benefits:     ExtractBenefits(item.Description),
		PublishedAt:  time.Unix(item.CreatedAt, 0).UTC(),
		Source:       NameArbeitnow,
		SourceURL:    item.URL,
		JobType:      jobType,
		Remote:       item.Remote || DetectRemote(item.Title, item.Location, item.Description),
	}
}

func (a *arbeitnowAdapter) Probe(ctx context.Context) error {
	return a.client.GetJSON(ctx, "", nil, nil)
}
