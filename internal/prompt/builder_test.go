package prompt

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/imagedata"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeNormalizer struct {
	mu    sync.Mutex
	bad   map[string]bool
	calls []string
}

func (f *fakeNormalizer) Normalize(_ context.Context, ref string) (imagedata.Image, error) {
	f.mu.Lock()
	f.calls = append(f.calls, ref)
	f.mu.Unlock()

	if f.bad[ref] {
		return imagedata.Image{}, fmt.Errorf("%w: %s", imagedata.ErrFetchFailure, ref)
	}
	return imagedata.Image{MIMEType: "image/png", Data: []byte(ref)}, nil
}

func foundItem() models.FoundItemReport {
	return models.FoundItemReport{
		ID:            "found-1",
		ItemName:      "Backpack",
		Image:         "img-found",
		Description:   "A black backpack with a NASA patch.",
		LocationFound: "Library",
		DateFound:     "2023-10-26",
	}
}

func lostItems(n int) []models.LostItemReport {
	items := make([]models.LostItemReport, n)
	for i := range items {
		items[i] = models.LostItemReport{
			ID:                fmt.Sprintf("lost-%d", i+1),
			ItemName:          fmt.Sprintf("Item %d", i+1),
			DateLost:          "2023-10-25",
			LastKnownLocation: "Gym",
			Description:       "desc",
			Image:             fmt.Sprintf("img-%d", i+1),
		}
	}
	return items
}

func TestBuildOrder(t *testing.T) {
	b := NewBuilder(&fakeNormalizer{}, Config{}, zap.NewNop())

	req := b.Build(context.Background(), foundItem(), lostItems(2))

	require.Len(t, req.Parts, 3+2*2)
	assert.Equal(t, "found-1", req.FoundItemID)
	assert.Equal(t, []string{"lost-1", "lost-2"}, req.CandidateIDs)
	assert.Zero(t, req.DegradedImages)

	assert.Contains(t, req.Parts[0].Text, `"Backpack"`)
	assert.Contains(t, req.Parts[0].Text, "Library")
	assert.Contains(t, req.Parts[0].Text, "2023-10-26")
	assert.Contains(t, req.Parts[0].Text, "visually compare")

	require.True(t, req.Parts[1].IsImage())
	assert.Equal(t, []byte("img-found"), req.Parts[1].Image.Data)

	assert.Contains(t, req.Parts[2].Text, "CANDIDATE LOST ITEMS")

	assert.Contains(t, req.Parts[3].Text, "Candidate ID: lost-1")
	require.True(t, req.Parts[4].IsImage())
	assert.Equal(t, []byte("img-1"), req.Parts[4].Image.Data)
	assert.Contains(t, req.Parts[5].Text, "Candidate ID: lost-2")
	assert.Equal(t, []byte("img-2"), req.Parts[6].Image.Data)
}

func TestBuildTruncatesCandidates(t *testing.T) {
	norm := &fakeNormalizer{}
	b := NewBuilder(norm, Config{MaxCandidates: 20}, zap.NewNop())

	req := b.Build(context.Background(), foundItem(), lostItems(25))

	require.Len(t, req.CandidateIDs, 20)
	assert.Equal(t, "lost-1", req.CandidateIDs[0])
	assert.Equal(t, "lost-20", req.CandidateIDs[19])
	assert.Len(t, req.Parts, 3+2*20)

	for _, p := range req.Parts {
		for i := 21; i <= 25; i++ {
			assert.NotContains(t, p.Text, fmt.Sprintf("Candidate ID: lost-%d ", i))
			if p.IsImage() {
				assert.NotEqual(t, fmt.Sprintf("img-%d", i), string(p.Image.Data))
			}
		}
	}
	assert.Len(t, norm.calls, 21, "excluded candidates must not be fetched")
}

func TestBuildDegradesFailedImages(t *testing.T) {
	norm := &fakeNormalizer{bad: map[string]bool{"img-found": true, "img-2": true}}
	b := NewBuilder(norm, Config{}, zap.NewNop())

	req := b.Build(context.Background(), foundItem(), lostItems(3))

	assert.Equal(t, 2, req.DegradedImages)
	assert.False(t, req.Parts[1].IsImage())
	assert.Equal(t, FoundImageUnavailable, req.Parts[1].Text)
	assert.True(t, req.Parts[4].IsImage())
	assert.False(t, req.Parts[6].IsImage())
	assert.Equal(t, CandidateImageUnavailable, req.Parts[6].Text)
	assert.True(t, req.Parts[8].IsImage())
}

func TestDefaultMaxCandidates(t *testing.T) {
	b := NewBuilder(&fakeNormalizer{}, Config{MaxCandidates: -1}, zap.NewNop())
	assert.Equal(t, DefaultMaxCandidates, b.MaxCandidates())
}

func TestCandidateText(t *testing.T) {
	text := CandidateText(lostItems(1)[0])
	for _, want := range []string{"lost-1", "Item 1", "desc", "2023-10-25", "Gym"} {
		assert.True(t, strings.Contains(text, want), "missing %q", want)
	}
}
