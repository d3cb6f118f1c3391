// Package viewmodel holds the state behind the profile edit screen.
//
// EditProfile owns the draft edit buffer and publishes four signals (User,
// IsLoading, Error, IsSaved). Load and save run on goroutines; results are
// published through the signals. One request runs at a time: loads, saves and
// draft edits arriving while one is in flight are ignored. After Close,
// in-flight results are dropped.
package viewmodel

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"greenleaf/internal/logging"
	"greenleaf/internal/profile"
	"greenleaf/internal/signal"
	"greenleaf/internal/telemetry"
)

// EditProfile implements the profile edit collaborator.
type EditProfile struct {
	repo      profile.Repository
	validator profile.Validator
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
	busy   bool   // a load or save is in flight; new requests and edits are refused
	gen    uint64 // bumped by every load/save; stale results are dropped

	user      *signal.Value[*profile.Snapshot]
	isLoading *signal.Value[bool]
	err       *signal.Value[string]
	isSaved   *signal.Value[bool]
}

// Option configures an EditProfile.
type Option func(*EditProfile)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(vm *EditProfile) { vm.logger = logging.OrNop(l) }
}

// WithValidator sets the validator applied before save.
func WithValidator(v profile.Validator) Option {
	return func(vm *EditProfile) { vm.validator = v }
}

// NewEditProfile creates a view-model over repo. It does not load; call LoadProfile.
func NewEditProfile(repo profile.Repository, opts ...Option) *EditProfile {
	ctx, cancel := context.WithCancel(context.Background())
	vm := &EditProfile{
		repo:      repo,
		logger:    zap.NewNop(),
		ctx:       ctx,
		cancel:    cancel,
		user:      signal.New[*profile.Snapshot](nil, snapshotEqual),
		isLoading: signal.NewComparable(false),
		err:       signal.NewComparable(""),
		isSaved:   signal.NewComparable(false),
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

func snapshotEqual(a, b *profile.Snapshot) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// User is the current draft, or nil before the first successful load.
func (vm *EditProfile) User() signal.Observable[*profile.Snapshot] { return vm.user }

// IsLoading is true while a load or save is in flight. The flag is published
// after the request is accepted; Busy reports the same state without that lag.
func (vm *EditProfile) IsLoading() signal.Observable[bool] { return vm.isLoading }

// Error holds the last failure message; empty means no error.
func (vm *EditProfile) Error() signal.Observable[string] { return vm.err }

// IsSaved becomes true after a successful save.
func (vm *EditProfile) IsSaved() signal.Observable[bool] { return vm.isSaved }

// Busy reports whether a load or save has been accepted and not yet finished.
func (vm *EditProfile) Busy() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.busy
}

// LoadProfile (re)fetches the profile. The previous draft is replaced on success.
// It is ignored while another load or save is in flight.
func (vm *EditProfile) LoadProfile() {
	gen, ok := vm.begin()
	if !ok {
		return
	}
	vm.err.Set("")
	vm.isLoading.Set(true)

	vm.wg.Add(1)
	go func() {
		defer vm.wg.Done()
		ctx, span := telemetry.Tracer().Start(vm.ctx, "profile.load")
		defer span.End()

		snap, err := vm.repo.Fetch(ctx)
		if !vm.finish(gen) {
			return
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			vm.logger.Warn("profile load failed", zap.Error(err))
			vm.fail(err)
			return
		}
		vm.logger.Debug("profile loaded", zap.Int64("user_id", snap.ID))
		vm.user.Set(&snap)
		vm.isLoading.Set(false)
	}()
}

// UpdateFirstName sets the draft first name.
func (vm *EditProfile) UpdateFirstName(v string) {
	vm.edit(func(s *profile.Snapshot) { s.FirstName = v })
}

// UpdateLastName sets the draft last name.
func (vm *EditProfile) UpdateLastName(v string) {
	vm.edit(func(s *profile.Snapshot) { s.LastName = v })
}

// UpdateBirthdate sets the draft birthdate.
func (vm *EditProfile) UpdateBirthdate(v string) {
	vm.edit(func(s *profile.Snapshot) { s.Birthdate = v })
}

// UpdateGender sets the draft gender.
func (vm *EditProfile) UpdateGender(v string) {
	vm.edit(func(s *profile.Snapshot) { s.Gender = v })
}

// UpdatePhoneNumber sets the draft phone number.
func (vm *EditProfile) UpdatePhoneNumber(v string) {
	vm.edit(func(s *profile.Snapshot) { s.PhoneNumber = v })
}

// SaveProfile validates and commits the draft plus an optional new image
// (empty pendingImage keeps the current one). ctx bounds the repository call
// in addition to the view-model's own lifetime. It is ignored while another
// load or save is in flight.
func (vm *EditProfile) SaveProfile(ctx context.Context, pendingImage string) {
	if vm.Busy() {
		return
	}
	current := vm.user.Get()
	if current == nil {
		vm.err.Set(profile.ErrNoProfile.Error())
		return
	}
	u := profile.UpdateFrom(*current)
	u.ImagePath = pendingImage
	if err := vm.validator.Validate(u); err != nil {
		vm.err.Set(errorMessage(err))
		return
	}

	gen, ok := vm.begin()
	if !ok {
		return
	}
	vm.err.Set("")
	vm.isLoading.Set(true)

	vm.wg.Add(1)
	go func() {
		defer vm.wg.Done()
		ctx, stop := mergeCancel(ctx, vm.ctx)
		defer stop()
		ctx, span := telemetry.Tracer().Start(ctx, "profile.save")
		defer span.End()
		span.SetAttributes(attribute.Bool("greenleaf.image.replaced", u.ImagePath != ""))

		saved, err := vm.repo.Save(ctx, u)
		if !vm.finish(gen) {
			return
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			vm.logger.Warn("profile save failed", zap.Error(err))
			vm.fail(err)
			return
		}
		vm.logger.Info("profile saved", zap.Int64("user_id", saved.ID), zap.Bool("image_replaced", u.ImagePath != ""))
		vm.user.Set(&saved)
		vm.isLoading.Set(false)
		vm.isSaved.Set(true)
	}()
}

// Close cancels in-flight work and stops all further emissions. Idempotent.
func (vm *EditProfile) Close() {
	vm.mu.Lock()
	vm.closed = true
	vm.mu.Unlock()
	vm.cancel()
}

// Wait blocks until in-flight load/save goroutines return.
func (vm *EditProfile) Wait() {
	vm.wg.Wait()
}

// begin claims the single request slot. It fails after Close or while
// another request holds the slot.
func (vm *EditProfile) begin() (uint64, bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.closed || vm.busy {
		return 0, false
	}
	vm.busy = true
	vm.gen++
	return vm.gen, true
}

// finish releases the slot taken by gen and reports whether its result may
// still be published.
func (vm *EditProfile) finish(gen uint64) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.closed || vm.gen != gen {
		return false
	}
	vm.busy = false
	return true
}

func (vm *EditProfile) edit(fn func(s *profile.Snapshot)) {
	vm.mu.Lock()
	refused := vm.closed || vm.busy
	vm.mu.Unlock()
	if refused {
		return
	}
	current := vm.user.Get()
	if current == nil {
		return
	}
	next := *current
	fn(&next)
	vm.user.Set(&next)
}

func (vm *EditProfile) fail(err error) {
	vm.err.Set(errorMessage(err))
	vm.isLoading.Set(false)
}

// errorMessage turns an error into the text shown on screen.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, profile.ErrUnauthorized):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, profile.ErrNotFound):
		return "Profile not found."
	case errors.Is(err, context.DeadlineExceeded):
		return "The server took too long to respond."
	}
	return err.Error()
}

// mergeCancel returns a context derived from a that is also cancelled when b is done.
func mergeCancel(a, b context.Context) (context.Context, context.CancelFunc) {
	if a == nil {
		a = context.Background()
	}
	ctx, cancel := context.WithCancel(a)
	stop := context.AfterFunc(b, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
