package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/models"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/prompt"
)

type fakeBuilder struct {
	max int
}

func (b fakeBuilder) Build(_ context.Context, found models.FoundItemReport, candidates []models.LostItemReport) *prompt.Request {
	req := &prompt.Request{FoundItemID: found.ID}
	for _, c := range candidates {
		req.CandidateIDs = append(req.CandidateIDs, c.ID)
		req.Parts = append(req.Parts, prompt.Part{Text: prompt.CandidateText(c)})
	}
	return req
}

func (b fakeBuilder) MaxCandidates() int {
	if b.max == 0 {
		return prompt.DefaultMaxCandidates
	}
	return b.max
}

type fakeOracle struct {
	raw   string
	err   error
	calls atomic.Int32
	last  *prompt.Request
}

func (f *fakeOracle) Compare(_ context.Context, req *prompt.Request) (string, error) {
	f.calls.Add(1)
	f.last = req
	return f.raw, f.err
}

func (f *fakeOracle) Close() error { return nil }

func (f *fakeOracle) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{"provider": "fake", "model": "fake-1"}
}

type fakeRecorder struct {
	mu   sync.Mutex
	runs []*models.MatchRun
}

func (r *fakeRecorder) SaveRun(run *models.MatchRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

func (r *fakeRecorder) last() *models.MatchRun {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.runs) == 0 {
		return nil
	}
	return r.runs[len(r.runs)-1]
}

type runnerFunc func(ctx context.Context, found models.FoundItemReport, lost []models.LostItemReport) ([]models.ScoredMatch, error)

func (f runnerFunc) Match(ctx context.Context, found models.FoundItemReport, lost []models.LostItemReport) ([]models.ScoredMatch, error) {
	return f(ctx, found, lost)
}

func lostItem(id, owner, name string) models.LostItemReport {
	return models.LostItemReport{
		ID:                id,
		Profile:           models.Profile{FullName: owner, SectionYear: "BSCS 3-A", ContactNumber: "09171234567"},
		ItemName:          name,
		DateLost:          "2024-05-01",
		LastKnownLocation: "Library",
		Description:       "A " + name,
		Image:             "data:image/png;base64,iVBORw0KGgo=",
	}
}

func foundItem(id, name string) models.FoundItemReport {
	return models.FoundItemReport{
		ID:            id,
		ItemName:      name,
		Description:   "Found a " + name,
		LocationFound: "Cafeteria",
		DateFound:     "2024-05-02",
		Image:         "data:image/png;base64,iVBORw0KGgo=",
	}
}

func testUniverse() []models.LostItemReport {
	return []models.LostItemReport{
		lostItem("lost-1", "Juan Dela Cruz", "Black Umbrella"),
		lostItem("lost-2", "Maria Santos", "Blue Water Bottle"),
	}
}
