package app

import (
	"context"
	"sync"

	"clafootix/internal/domain"
)

// ItemPresenter holds the candidate pool and the mutable selection of the
// current item. It only reports raw selections; correctness is decided upstream.
type ItemPresenter struct {
	itemID     string
	candidates []domain.Entity
	inPool     map[string]struct{}

	mu       sync.Mutex
	selected domain.Selection
	locked   bool
}

// NewItemPresenter builds the pool from the correct clubs and distractors,
// shuffled so the correct ones are not grouped.
func NewItemPresenter(ctx context.Context, item domain.RoundItem, distractors *DistractorGenerator, distractorCount int) *ItemPresenter {
	pool := make([]domain.Entity, 0, len(item.CorrectEntities)+distractorCount)
	pool = append(pool, item.CorrectEntities...)
	if distractors != nil {
		pool = append(pool, distractors.Generate(ctx, item.CorrectEntities, distractorCount)...)
		distractors.shuffle(pool)
	}
	return newItemPresenter(item.ID, pool)
}

func newItemPresenter(itemID string, pool []domain.Entity) *ItemPresenter {
	inPool := make(map[string]struct{}, len(pool))
	for _, e := range pool {
		inPool[e.ID] = struct{}{}
	}
	return &ItemPresenter{
		itemID:     itemID,
		candidates: pool,
		inPool:     inPool,
		selected:   make(domain.Selection),
	}
}

// ItemID returns the item this presenter renders.
func (p *ItemPresenter) ItemID() string { return p.itemID }

// Candidates returns the pool offered for the item.
func (p *ItemPresenter) Candidates() []domain.Entity {
	out := make([]domain.Entity, len(p.candidates))
	copy(out, p.candidates)
	return out
}

// Toggle flips the selection state of entityID and reports whether it is now selected.
func (p *ItemPresenter) Toggle(entityID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.locked {
		return false, domain.ErrPresenterLocked
	}
	if _, ok := p.inPool[entityID]; !ok {
		return false, domain.ErrEntityNotInPool
	}
	if _, ok := p.selected[entityID]; ok {
		delete(p.selected, entityID)
		return false, nil
	}
	p.selected[entityID] = struct{}{}
	return true, nil
}

// Submit freezes the selection for an explicit validation. Only the first call succeeds.
func (p *ItemPresenter) Submit() (domain.Selection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.locked {
		return nil, domain.ErrPresenterLocked
	}
	p.locked = true
	return p.copyLocked(), nil
}

// Capture freezes and returns whatever is selected now; used when time runs out.
func (p *ItemPresenter) Capture() domain.Selection {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.locked = true
	return p.copyLocked()
}

// Unlock re-enables toggling after a rejected submission.
func (p *ItemPresenter) Unlock() {
	p.mu.Lock()
	p.locked = false
	p.mu.Unlock()
}

// State returns the selected ids and whether the selection is frozen.
func (p *ItemPresenter) State() ([]string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selected.IDs(), p.locked
}

func (p *ItemPresenter) copyLocked() domain.Selection {
	out := make(domain.Selection, len(p.selected))
	for id := range p.selected {
		out[id] = struct{}{}
	}
	return out
}
