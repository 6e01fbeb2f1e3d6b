package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/and161185/fuel-tracker/internal/errs"
	"github.com/and161185/fuel-tracker/internal/model"
	"github.com/and161185/fuel-tracker/internal/observe"
)

// LoadState is the lifecycle of the cached document.
type LoadState int

// Load states: Unloaded -> Loading -> Loaded. Reset forces Unloaded.
const (
	Unloaded LoadState = iota
	Loading
	Loaded
)

func (s LoadState) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return "unknown(" + strconv.Itoa(int(s)) + ")"
	}
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger (zap.NewNop by default).
func WithLogger(l *zap.Logger) Option { return func(s *Store) { s.log = l } }

// WithClock overrides the time source used for created_at stamps.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// Store caches the whole archive of one session. Every read returns a copy,
// every mutation pushes the entire document through the gateway before
// returning. Construct one per session and Reset it on sign-out.
type Store struct {
	gw  Gateway
	log *zap.Logger
	now func() time.Time

	loads   singleflight.Group
	writeMu sync.Mutex // serialises mutate+persist

	mu    sync.Mutex
	state LoadState
	gen   uint64 // bumped by Reset/Reload; stale loads are discarded
	doc   model.Archive

	info *observe.Value[model.ArchiveInfo]
}

// New constructs an unloaded store on top of gw.
func New(gw Gateway, opts ...Option) *Store {
	s := &Store{
		gw:   gw,
		log:  zap.NewNop(),
		now:  time.Now,
		doc:  model.EmptyArchive(),
		info: observe.NewValue(model.ArchiveInfo{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State reports the current load state.
func (s *Store) State() LoadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Info returns the last known archive info.
func (s *Store) Info() model.ArchiveInfo { return s.info.Get() }

// SubscribeInfo registers fn for archive info changes. fn is called at once
// with the current info. The returned func unsubscribes.
func (s *Store) SubscribeInfo(fn func(model.ArchiveInfo)) (cancel func()) {
	return s.info.Subscribe(fn)
}

// EnsureLoaded fetches the document once. Concurrent callers share a single
// in-flight fetch. The fetch itself is not cancelled when ctx is; ctx only
// bounds how long this caller waits. A failed load leaves the store
// unloaded so the next access retries.
func (s *Store) EnsureLoaded(ctx context.Context) error {
	for {
		s.mu.Lock()
		if s.state == Loaded {
			s.mu.Unlock()
			return nil
		}
		s.state = Loading
		gen := s.gen
		s.mu.Unlock()

		fetchCtx := context.WithoutCancel(ctx)
		ch := s.loads.DoChan("load/"+strconv.FormatUint(gen, 10), func() (any, error) {
			return nil, s.load(fetchCtx, gen)
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				return res.Err
			}
		}

		s.mu.Lock()
		done := s.state == Loaded
		s.mu.Unlock()
		if done {
			return nil
		}
		// a Reset landed while the fetch was in flight; load again
	}
}

func (s *Store) load(ctx context.Context, gen uint64) error {
	fetched, err := s.gw.FetchArchive(ctx)

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		s.log.Debug("discarding stale archive load", zap.Uint64("gen", gen))
		return nil
	}
	if err != nil {
		s.state = Unloaded
		s.mu.Unlock()
		s.log.Debug("archive load failed", zap.Error(err))
		return fmt.Errorf("load archive: %w", err)
	}
	s.doc = model.ParseDocument(fetched.Document, s.now())
	s.state = Loaded
	info := model.ArchiveInfo{Created: fetched.Info.Created, HasData: s.doc.HasData()}
	nv, nr := len(s.doc.Vehicles), len(s.doc.Refuels)
	s.mu.Unlock()

	s.info.Set(info)
	s.log.Debug("archive loaded",
		zap.Bool("created", info.Created),
		zap.Int("vehicles", nv),
		zap.Int("refuels", nr),
	)
	return nil
}

// Reset drops the cached document and load state without touching the
// remote. The next access loads afresh. Used on sign-out.
func (s *Store) Reset() {
	s.mu.Lock()
	s.gen++
	s.state = Unloaded
	s.doc = model.EmptyArchive()
	s.mu.Unlock()

	s.info.Set(model.ArchiveInfo{})
	s.log.Debug("archive cache reset")
}

// Reload discards the cached document and fetches it again even if it was
// already loaded.
func (s *Store) Reload(ctx context.Context) (model.ArchiveInfo, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.gen++
	s.state = Unloaded
	s.doc = model.EmptyArchive()
	s.mu.Unlock()

	if err := s.EnsureLoaded(ctx); err != nil {
		return model.ArchiveInfo{}, err
	}
	return s.Info(), nil
}

// view loads if needed and runs fn on the cached document under the lock.
// fn must copy whatever it returns.
func (s *Store) view(ctx context.Context, fn func(doc *model.Archive)) error {
	if err := s.EnsureLoaded(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Loaded {
		return errs.ErrNotReady
	}
	fn(&s.doc)
	return nil
}

// mutate applies fn to a working copy, commits it when fn succeeds, then
// persists the whole document. A failing fn leaves the cache untouched. A
// failing persist leaves the mutation in memory; the caller must retry or
// Reload.
func (s *Store) mutate(ctx context.Context, op string, fn func(doc *model.Archive) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.EnsureLoaded(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	if s.state != Loaded {
		s.mu.Unlock()
		return errs.ErrNotReady
	}
	work := s.doc.Clone()
	if err := fn(&work); err != nil {
		s.mu.Unlock()
		return err
	}
	s.doc = work
	gen := s.gen
	hasData := work.HasData()
	body, err := json.Marshal(work)
	s.mu.Unlock()

	s.info.Update(func(i model.ArchiveInfo) model.ArchiveInfo {
		i.HasData = hasData
		return i
	})
	if err != nil {
		return fmt.Errorf("%s: encode archive: %w", op, err)
	}
	if err := s.persist(ctx, gen, body); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// persist pushes body as the whole remote document. It refuses to write
// unless the document it was built from is still the loaded one.
func (s *Store) persist(ctx context.Context, gen uint64, body []byte) error {
	s.mu.Lock()
	ready := s.state == Loaded && s.gen == gen
	s.mu.Unlock()
	if !ready {
		return errs.ErrNotReady
	}

	if _, err := s.gw.SaveArchive(ctx, body); err != nil {
		s.log.Debug("archive persist failed", zap.Error(err))
		return fmt.Errorf("persist archive: %w", err)
	}
	s.log.Debug("archive persisted", zap.Int("bytes", len(body)))
	return nil
}

// Vehicles returns every vehicle ordered by creation time.
func (s *Store) Vehicles(ctx context.Context) ([]model.Vehicle, error) {
	var out []model.Vehicle
	err := s.view(ctx, func(doc *model.Archive) {
		out = make([]model.Vehicle, len(doc.Vehicles))
		for i, v := range doc.Vehicles {
			out[i] = v.Clone()
		}
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Vehicle returns one vehicle by id.
func (s *Store) Vehicle(ctx context.Context, id int64) (model.Vehicle, error) {
	var (
		v     model.Vehicle
		found bool
	)
	err := s.view(ctx, func(doc *model.Archive) {
		v, found = doc.FindVehicle(id)
		v = v.Clone()
	})
	if err != nil {
		return model.Vehicle{}, err
	}
	if !found {
		return model.Vehicle{}, fmt.Errorf("vehicle %d: %w", id, errs.ErrNotFound)
	}
	return v, nil
}

// FirstVehicle returns the earliest created vehicle.
func (s *Store) FirstVehicle(ctx context.Context) (model.Vehicle, error) {
	all, err := s.Vehicles(ctx)
	if err != nil {
		return model.Vehicle{}, err
	}
	if len(all) == 0 {
		return model.Vehicle{}, fmt.Errorf("no vehicles: %w", errs.ErrNotFound)
	}
	return all[0], nil
}

// CreateVehicle stores a new vehicle and returns its id.
func (s *Store) CreateVehicle(ctx context.Context, in model.NewVehicle) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	var id int64
	err := s.mutate(ctx, "create vehicle", func(doc *model.Archive) error {
		id = doc.NextVehicleID()
		doc.Vehicles = append(doc.Vehicles, model.Vehicle{
			ID:            id,
			Name:          in.Name,
			Plate:         in.Plate,
			TankCapacityL: in.TankCapacityL,
			CreatedAt:     s.now().UTC(),
		}.Clone())
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// RefuelsByVehicle returns the refuels of one vehicle ordered by date.
func (s *Store) RefuelsByVehicle(ctx context.Context, vehicleID int64) ([]model.Refuel, error) {
	var out []model.Refuel
	err := s.view(ctx, func(doc *model.Archive) {
		for _, r := range doc.Refuels {
			if r.VehicleID == vehicleID {
				out = append(out, r.Clone())
			}
		}
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Refuel{}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// Refuel returns one refuel by id.
func (s *Store) Refuel(ctx context.Context, id int64) (model.Refuel, error) {
	var (
		r     model.Refuel
		found bool
	)
	err := s.view(ctx, func(doc *model.Archive) {
		r, found = doc.FindRefuel(id)
		r = r.Clone()
	})
	if err != nil {
		return model.Refuel{}, err
	}
	if !found {
		return model.Refuel{}, fmt.Errorf("refuel %d: %w", id, errs.ErrNotFound)
	}
	return r, nil
}

// CreateRefuel stores a new full-tank refuel and returns its id. The
// odometer must not be below the highest reading already recorded for the
// vehicle.
func (s *Store) CreateRefuel(ctx context.Context, in model.NewRefuel) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	var id int64
	err := s.mutate(ctx, "create refuel", func(doc *model.Archive) error {
		if _, ok := doc.FindVehicle(in.VehicleID); !ok {
			return fmt.Errorf("%w: vehicle %d: %w", errs.ErrValidation, in.VehicleID, errs.ErrNotFound)
		}
		if last, ok := doc.MaxOdometer(in.VehicleID); ok && in.Odometer < last {
			return fmt.Errorf("%w: %g km is below last reading %g km", errs.ErrOdometerDecreasing, in.Odometer, last)
		}
		id = doc.NextRefuelID()
		doc.Refuels = append(doc.Refuels, model.Refuel{
			ID:            id,
			VehicleID:     in.VehicleID,
			Date:          in.Date,
			Odometer:      in.Odometer,
			Liters:        in.Liters,
			PricePerLiter: in.PricePerLiter,
			IsFull:        model.FullTank,
			Station:       in.Station,
			Notes:         in.Notes,
			CreatedAt:     s.now().UTC(),
		}.Clone())
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Export returns a deep copy of the whole document.
func (s *Store) Export(ctx context.Context) (model.Archive, error) {
	var out model.Archive
	err := s.view(ctx, func(doc *model.Archive) { out = doc.Clone() })
	return out, err
}

// Import replaces the whole document with the normalised content of raw and
// persists it. Imported refuels are trusted: the odometer ordering is not
// re-checked.
func (s *Store) Import(ctx context.Context, raw []byte) error {
	return s.mutate(ctx, "import archive", func(doc *model.Archive) error {
		*doc = model.ParseDocument(raw, s.now().UTC())
		return nil
	})
}
