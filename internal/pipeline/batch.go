package pipeline

import (
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/imagemeta/internal/models"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNoItems         = errors.New("please upload at least one image")
	ErrBatchRunning    = errors.New("batch is running")
	ErrKeywordRequired = errors.New("a custom keyword is required to regenerate")
	ErrItemBusy        = errors.New("item is already being regenerated")
	ErrItemNotFound    = errors.New("item not found")
)

// Batch is an ordered set of items keyed by id together with their latest outcomes.
// All reads and writes of items and outcomes go through the batch lock.
type Batch struct {
	ID        string
	CreatedAt time.Time
	// PreviewPrefix, when set, is joined with the escaped item id to build Item.PreviewURL
	PreviewPrefix string

	mu        sync.RWMutex
	order     []string
	items     map[string]*models.Item
	outcomes  map[string]models.Outcome
	running   bool
	busy      map[string]bool
	keyword   string
	languages models.Languages

	uploads singleflight.Group
}

// Snapshot is a point-in-time copy of a batch
type Snapshot struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Running   bool             `json:"running"`
	Keyword   string           `json:"keyword,omitempty"`
	Languages models.Languages `json:"languages"`
	Items     []models.Item    `json:"items"`
	Outcomes  []models.Outcome `json:"outcomes"`
}

func NewBatch(id string) *Batch {
	return &Batch{
		ID:        id,
		CreatedAt: time.Now(),
		items:     make(map[string]*models.Item),
		outcomes:  make(map[string]models.Outcome),
		busy:      make(map[string]bool),
	}
}

func (b *Batch) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}

func (b *Batch) Running() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.running
}

func (b *Batch) Has(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.items[id]
	return ok
}

func (b *Batch) Item(id string) (models.Item, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	item, ok := b.items[id]
	if !ok {
		return models.Item{}, false
	}
	return *item, true
}

// Items returns the items in insertion order
func (b *Batch) Items() []models.Item {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.itemsLocked()
}

func (b *Batch) itemsLocked() []models.Item {
	items := make([]models.Item, 0, len(b.order))
	for _, id := range b.order {
		items = append(items, *b.items[id])
	}
	return items
}

func (b *Batch) Outcome(id string) (models.Outcome, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	o, ok := b.outcomes[id]
	return o, ok
}

// Outcomes returns the outcome of every item in insertion order
func (b *Batch) Outcomes() []models.Outcome {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.outcomesLocked()
}

func (b *Batch) outcomesLocked() []models.Outcome {
	outcomes := make([]models.Outcome, 0, len(b.order))
	for _, id := range b.order {
		if o, ok := b.outcomes[id]; ok {
			outcomes = append(outcomes, o)
		}
	}
	return outcomes
}

func (b *Batch) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Snapshot{
		ID:        b.ID,
		CreatedAt: b.CreatedAt,
		Running:   b.running,
		Keyword:   b.keyword,
		Languages: b.languages,
		Items:     b.itemsLocked(),
		Outcomes:  b.outcomesLocked(),
	}
}

// Add appends item unless an item with the same id is already held.
// It reports whether the item was added.
func (b *Batch) Add(item *models.Item) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return false, ErrBatchRunning
	}
	if _, exists := b.items[item.ID]; exists {
		return false, nil
	}
	if item.PreviewURL == "" && b.PreviewPrefix != "" {
		item.PreviewURL = b.PreviewPrefix + url.PathEscape(item.ID) + "/preview"
	}
	b.items[item.ID] = item
	b.order = append(b.order, item.ID)
	b.outcomes[item.ID] = models.Outcome{
		ItemID:    item.ID,
		Status:    models.StatusPending,
		UpdatedAt: time.Now(),
	}
	return true, nil
}

// Remove drops one item, its outcome and its preview bytes
func (b *Batch) Remove(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return ErrBatchRunning
	}
	item, ok := b.items[id]
	if !ok {
		return ErrItemNotFound
	}
	if b.busy[id] {
		return ErrItemBusy
	}
	item.Original = nil
	delete(b.items, id)
	delete(b.outcomes, id)
	for i, existing := range b.order {
		if existing == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

// Clear removes every item
func (b *Batch) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return ErrBatchRunning
	}
	if len(b.busy) > 0 {
		return ErrItemBusy
	}
	for _, item := range b.items {
		item.Original = nil
	}
	b.order = nil
	b.items = make(map[string]*models.Item)
	b.outcomes = make(map[string]models.Outcome)
	return nil
}

// start moves the batch to Running and resets every outcome to pending
func (b *Batch) start(keyword string, langs models.Languages) ([]models.Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return nil, ErrBatchRunning
	}
	if len(b.order) == 0 {
		return nil, ErrNoItems
	}
	if len(b.busy) > 0 {
		return nil, ErrItemBusy
	}
	b.running = true
	b.keyword = keyword
	b.languages = langs
	now := time.Now()
	for _, id := range b.order {
		b.outcomes[id] = models.Outcome{ItemID: id, Status: models.StatusPending, UpdatedAt: now}
	}
	return b.itemsLocked(), nil
}

func (b *Batch) finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.running = false
}

// acquire reserves one item for regeneration
func (b *Batch) acquire(id string) (models.Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return models.Item{}, ErrBatchRunning
	}
	item, ok := b.items[id]
	if !ok {
		return models.Item{}, ErrItemNotFound
	}
	if b.busy[id] {
		return models.Item{}, ErrItemBusy
	}
	b.busy[id] = true
	return *item, nil
}

func (b *Batch) release(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.busy, id)
}

// setOutcome records o unless its item was removed meanwhile
func (b *Batch) setOutcome(o models.Outcome) models.Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	o.UpdatedAt = time.Now()
	if _, ok := b.items[o.ItemID]; ok {
		b.outcomes[o.ItemID] = o
	}
	return o
}
