package catalog

import (
	"errors"
	"sync"
	"time"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotFound is returned for unknown report ids
var ErrNotFound = errors.New("report not found")

// Catalog holds lost and found reports in memory for the lifetime of the
// process. Reports are append-only and never mutated after creation.
type Catalog struct {
	mu     sync.RWMutex
	lost   []models.LostItemReport
	found  []models.FoundItemReport
	logger *zap.Logger
	now    func() time.Time
}

// New creates an empty catalog
func New(logger *zap.Logger) *Catalog {
	return &Catalog{
		logger: logger,
		now:    time.Now,
	}
}

// AddLost files a lost-item report and assigns its id
func (c *Catalog) AddLost(req models.CreateLostItemRequest) models.LostItemReport {
	item := models.LostItemReport{
		ID:                "lost-" + uuid.NewString(),
		Profile:           req.Profile,
		ItemName:          req.ItemName,
		DateLost:          req.DateLost,
		LastKnownLocation: req.LastKnownLocation,
		Description:       req.Description,
		Image:             req.Image,
		CreatedAt:         c.now(),
	}
	c.putLost(item)
	return item
}

// AddFound files a found-item report and assigns its id
func (c *Catalog) AddFound(req models.CreateFoundItemRequest) models.FoundItemReport {
	item := models.FoundItemReport{
		ID:            "found-" + uuid.NewString(),
		ItemName:      req.ItemName,
		Image:         req.Image,
		Description:   req.Description,
		LocationFound: req.LocationFound,
		DateFound:     req.DateFound,
		FinderName:    req.FinderName,
		FinderContact: req.FinderContact,
		CreatedAt:     c.now(),
	}
	c.putFound(item)
	return item
}

func (c *Catalog) putLost(item models.LostItemReport) {
	c.mu.Lock()
	c.lost = append(c.lost, item)
	c.mu.Unlock()

	c.logger.Info("Lost item reported",
		zap.String("id", item.ID),
		zap.String("item_name", item.ItemName))
}

func (c *Catalog) putFound(item models.FoundItemReport) {
	c.mu.Lock()
	c.found = append(c.found, item)
	c.mu.Unlock()

	c.logger.Info("Found item reported",
		zap.String("id", item.ID),
		zap.String("item_name", item.ItemName))
}

// LostItems returns a snapshot of all lost items in filing order
func (c *Catalog) LostItems() []models.LostItemReport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.LostItemReport(nil), c.lost...)
}

// FoundItems returns a snapshot of all found items in filing order
func (c *Catalog) FoundItems() []models.FoundItemReport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.FoundItemReport(nil), c.found...)
}

// Lost looks up a lost item by id
func (c *Catalog) Lost(id string) (models.LostItemReport, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.lost {
		if item.ID == id {
			return item, nil
		}
	}
	return models.LostItemReport{}, ErrNotFound
}

// Found looks up a found item by id
func (c *Catalog) Found(id string) (models.FoundItemReport, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.found {
		if item.ID == id {
			return item, nil
		}
	}
	return models.FoundItemReport{}, ErrNotFound
}

// SeedDemoData loads the sample reports used for demos
func (c *Catalog) SeedDemoData() {
	now := c.now()

	c.putLost(models.LostItemReport{
		ID: "lost-1",
		Profile: models.Profile{
			FullName:      "Jane Doe",
			SectionYear:   "BSCS 4-B",
			ContactNumber: "09123456789",
		},
		ItemName:          "Jansport Backpack",
		DateLost:          "2023-10-26",
		LastKnownLocation: "University Library",
		Description:       "Black Jansport backpack with a NASA patch and a water bottle in the side pocket.",
		Image:             "https://picsum.photos/seed/backpack/400/400",
		CreatedAt:         now,
	})
	c.putLost(models.LostItemReport{
		ID: "lost-2",
		Profile: models.Profile{
			FullName:      "John Smith",
			SectionYear:   "BSME 2-A",
			ContactNumber: "09987654321",
		},
		ItemName:          "Hydro-Flask Bottle",
		DateLost:          "2023-10-25",
		LastKnownLocation: "Gym",
		Description:       "Blue Hydro-Flask water bottle with several stickers on it, slightly dented at the bottom.",
		Image:             "https://picsum.photos/seed/bottle/400/400",
		CreatedAt:         now,
	})

	c.putFound(models.FoundItemReport{
		ID:            "found-1",
		ItemName:      "Backpack",
		Image:         "https://picsum.photos/seed/backpack/400/400",
		Description:   "A black backpack was left on a chair. It has a distinctive NASA patch.",
		LocationFound: "Library",
		DateFound:     "2023-10-26",
		FinderName:    "Library Staff",
		FinderContact: "N/A",
		CreatedAt:     now,
	})
	c.putFound(models.FoundItemReport{
		ID:            "found-2",
		ItemName:      "Keys",
		Image:         "https://picsum.photos/seed/keys/400/400",
		Description:   "Set of keys on a blue lanyard with a car key.",
		LocationFound: "Canteen",
		DateFound:     "2023-10-27",
		FinderName:    "Mark",
		FinderContact: "09112233445",
		CreatedAt:     now,
	})
}
