package services

import (
	"context"
	"time"

	"questHuntAPI/internal/access"
	"questHuntAPI/internal/fault"
	"questHuntAPI/internal/storage"
	"questHuntAPI/internal/types/event"
	"questHuntAPI/internal/types/hunt"
)

// HuntService owns the hunt lifecycle: creation, updates and the active
// switch. Hunts are never deleted, only deactivated.
type HuntService struct {
	store  storage.Store
	access *access.Service
	events event.Sink
	now    func() time.Time
}

func NewHuntService(store storage.Store, accessSvc *access.Service, events event.Sink) *HuntService {
	return &HuntService{
		store:  store,
		access: accessSvc,
		events: events,
		now:    time.Now,
	}
}

func huntKey(id uint64) string          { return storage.Key("hunt", u64(id)) }
func adminHuntsKey(admin string) string { return storage.Key("hunt", "admin", admin) }

const huntSeqKey = "hunt/seq"

func (s *HuntService) CreateHunt(ctx context.Context, caller, name string, start, end int64) (*hunt.Hunt, error) {
	if caller == "" {
		return nil, fault.Authorizationf("caller identity is required")
	}
	if name == "" {
		return nil, fault.Validationf("hunt name is required")
	}
	if start >= end {
		return nil, fault.Validationf("hunt start time %d must be before end time %d", start, end)
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	seq, err := nextSeq(ctx, tx, huntSeqKey)
	if err != nil {
		return nil, err
	}

	h := &hunt.Hunt{
		ID:        seq + 1, // hunt ids start at 1; 0 means "no hunt"
		Name:      name,
		AdminID:   caller,
		StartTime: start,
		EndTime:   end,
		Active:    true,
	}
	if err := putJSON(ctx, tx, huntKey(h.ID), h); err != nil {
		return nil, err
	}
	if err := tx.Append(ctx, adminHuntsKey(caller), []byte(u64(h.ID))); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	e := event.New(event.TypeHuntCreated, caller)
	e.HuntID = h.ID
	e.Data = map[string]any{"name": h.Name, "startTime": h.StartTime, "endTime": h.EndTime}
	s.events.Emit(e)

	return h, nil
}

func (s *HuntService) UpdateHunt(ctx context.Context, caller string, id uint64, name string, end int64) (*hunt.Hunt, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	h, err := s.getHunt(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireManager(ctx, tx, caller, h); err != nil {
		return nil, err
	}
	if end <= h.StartTime {
		return nil, fault.Validationf("hunt end time %d must be after start time %d", end, h.StartTime)
	}
	if name == "" {
		return nil, fault.Validationf("hunt name is required")
	}

	h.Name = name
	h.EndTime = end
	if err := putJSON(ctx, tx, huntKey(id), h); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	e := event.New(event.TypeHuntUpdated, caller)
	e.HuntID = h.ID
	e.Data = map[string]any{"name": h.Name, "endTime": h.EndTime}
	s.events.Emit(e)

	return h, nil
}

func (s *HuntService) SetHuntActive(ctx context.Context, caller string, id uint64, active bool) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	h, err := s.getHunt(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := s.requireManager(ctx, tx, caller, h); err != nil {
		return err
	}

	h.Active = active
	if err := putJSON(ctx, tx, huntKey(id), h); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	e := event.New(event.TypeHuntStatusChanged, caller)
	e.HuntID = h.ID
	e.Data = map[string]any{"active": h.Active}
	s.events.Emit(e)
	return nil
}

func (s *HuntService) GetHunt(ctx context.Context, id uint64) (*hunt.Hunt, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)
	return s.getHunt(ctx, tx, id)
}

// GetAdminHunts lists the ids of hunts created by admin, in creation order.
func (s *HuntService) GetAdminHunts(ctx context.Context, admin string) ([]uint64, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	raw, err := tx.List(ctx, adminHuntsKey(admin))
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(raw))
	for _, r := range raw {
		id, err := parseU64(string(r))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// getHunt is the shared in-transaction read; the challenge engine uses it for
// its activity guard.
func (s *HuntService) getHunt(ctx context.Context, tx storage.Tx, id uint64) (*hunt.Hunt, error) {
	h := &hunt.Hunt{}
	ok, err := getJSON(ctx, tx, huntKey(id), h)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fault.NotFoundf("hunt %d does not exist", id)
	}
	return h, nil
}

// requireManager allows the hunt's creator plus admin/moderator role holders.
func (s *HuntService) requireManager(ctx context.Context, tx storage.Tx, caller string, h *hunt.Hunt) error {
	if caller == h.AdminID {
		return nil
	}
	ok, err := s.access.IsAdminOrModerator(ctx, tx, caller)
	if err != nil {
		return err
	}
	if !ok {
		return fault.Authorizationf("caller %s may not manage hunt %d", caller, h.ID)
	}
	return nil
}
