package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/imagedata"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/metrics"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxCandidates bounds how many lost items go into one request
const DefaultMaxCandidates = 20

const (
	FoundImageUnavailable     = "[Image of found item is unavailable]"
	CandidateImageUnavailable = "[Image unavailable]"
)

// Part is one element of a multi-modal request: either text or an image
type Part struct {
	Text  string
	Image *imagedata.Image
}

// IsImage reports whether the part carries image data
func (p Part) IsImage() bool {
	return p.Image != nil
}

// Request is an ordered comparison request for the oracle
type Request struct {
	FoundItemID    string
	CandidateIDs   []string
	Parts          []Part
	DegradedImages int
}

// ImageNormalizer resolves image references
type ImageNormalizer interface {
	Normalize(ctx context.Context, ref string) (imagedata.Image, error)
}

// Config for the request builder
type Config struct {
	MaxCandidates    int
	ImageConcurrency int
}

// Builder assembles comparison requests
type Builder struct {
	images        ImageNormalizer
	maxCandidates int
	concurrency   int
	logger        *zap.Logger
}

// NewBuilder creates a new request builder
func NewBuilder(images ImageNormalizer, cfg Config, logger *zap.Logger) *Builder {
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = DefaultMaxCandidates
	}
	if cfg.ImageConcurrency <= 0 {
		cfg.ImageConcurrency = 4
	}

	return &Builder{
		images:        images,
		maxCandidates: cfg.MaxCandidates,
		concurrency:   cfg.ImageConcurrency,
		logger:        logger,
	}
}

// MaxCandidates returns the per-request candidate cap
func (b *Builder) MaxCandidates() int {
	return b.maxCandidates
}

// Build never fails: an image that cannot be normalized becomes a text
// placeholder in its slot.
func (b *Builder) Build(ctx context.Context, found models.FoundItemReport, candidates []models.LostItemReport) *Request {
	if len(candidates) > b.maxCandidates {
		b.logger.Info("Truncating candidate list",
			zap.String("found_item_id", found.ID),
			zap.Int("candidates", len(candidates)),
			zap.Int("max_candidates", b.maxCandidates))
		candidates = candidates[:b.maxCandidates]
	}

	// slot 0 is the found item, slot i+1 is candidates[i]
	refs := make([]string, 0, len(candidates)+1)
	refs = append(refs, found.Image)
	for _, c := range candidates {
		refs = append(refs, c.Image)
	}
	images := b.normalizeAll(ctx, refs)

	req := &Request{
		FoundItemID:  found.ID,
		CandidateIDs: make([]string, 0, len(candidates)),
		Parts:        make([]Part, 0, 3+2*len(candidates)),
	}

	req.Parts = append(req.Parts, Part{Text: FramingText(found)})
	req.addImage(images[0], FoundImageUnavailable)
	req.Parts = append(req.Parts, Part{Text: separatorText})

	for i, c := range candidates {
		req.CandidateIDs = append(req.CandidateIDs, c.ID)
		req.Parts = append(req.Parts, Part{Text: CandidateText(c)})
		req.addImage(images[i+1], CandidateImageUnavailable)
	}

	return req
}

func (r *Request) addImage(img *imagedata.Image, placeholder string) {
	if img == nil {
		r.DegradedImages++
		r.Parts = append(r.Parts, Part{Text: placeholder})
		return
	}
	r.Parts = append(r.Parts, Part{Image: img})
}

// normalizeAll resolves every reference concurrently. Failed slots are nil.
func (b *Builder) normalizeAll(ctx context.Context, refs []string) []*imagedata.Image {
	out := make([]*imagedata.Image, len(refs))

	var g errgroup.Group
	g.SetLimit(b.concurrency)

	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			img, err := b.images.Normalize(ctx, ref)
			if err != nil {
				metrics.ImageNormalizationTotal.WithLabelValues("degraded").Inc()
				b.logger.Warn("Image unavailable, using placeholder",
					zap.Int("slot", i),
					zap.Error(err))
				return nil
			}
			metrics.ImageNormalizationTotal.WithLabelValues("ok").Inc()
			out[i] = &img
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// FramingText is the task instruction that opens every request
func FramingText(found models.FoundItemReport) string {
	var sb strings.Builder
	sb.WriteString("You are an intelligent lost and found matching system for a university.\n")
	sb.WriteString("Your task is to identify potential matches for a found item from a list of lost item reports.\n\n")
	sb.WriteString("CRITICAL INSTRUCTION: You must visually compare the image of the found item with the images provided for the candidate lost items. ")
	sb.WriteString("Do not rely on the text alone.\n")
	sb.WriteString("Also analyze the text descriptions (name, color, brand, location, date).\n\n")
	sb.WriteString("FOUND ITEM DETAILS:\n")
	fmt.Fprintf(&sb, "- Name: %q\n", found.ItemName)
	fmt.Fprintf(&sb, "- Description: %q\n", found.Description)
	fmt.Fprintf(&sb, "- Location Found: %q\n", found.LocationFound)
	fmt.Fprintf(&sb, "- Date Found: %q\n\n", found.DateFound)
	sb.WriteString("Below is the image of the found item:")
	return sb.String()
}

const separatorText = "\n--------------------------------------------------\n" +
	"CANDIDATE LOST ITEMS:\n" +
	"Analyze each candidate below and determine if it matches the found item. " +
	"Only return candidates by their Candidate ID, with a confidence between 0 and 100."

// CandidateText labels one lost item in the request
func CandidateText(item models.LostItemReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n--- Candidate ID: %s ---\n", item.ID)
	fmt.Fprintf(&sb, "- Name: %s\n", item.ItemName)
	fmt.Fprintf(&sb, "- Description: %s\n", item.Description)
	fmt.Fprintf(&sb, "- Date Lost: %s\n", item.DateLost)
	fmt.Fprintf(&sb, "- Last Known Location: %s\n", item.LastKnownLocation)
	sb.WriteString("- Image:")
	return sb.String()
}
