// Package registration allocates display identifiers, registers new devices
// under a global throttle and a named lock, and approves them against the
// per-client license ceiling.
package registration

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/Nixie-Tech-LLC/signage/internal/db"
	"github.com/Nixie-Tech-LLC/signage/internal/model"
)

// Notifier publishes device events to displays. Publish failures are logged
// and never fail the operation that triggered them.
type Notifier interface {
	Publish(ctx context.Context, topic string, payload any) error
}

type Options struct {
	LicenseLimit int
	LockTimeout  time.Duration
	// BcryptCost for approval code hashes; bcrypt.DefaultCost when zero.
	BcryptCost int
}

type Service struct {
	store    db.Store
	locker   Locker
	limiter  Limiter
	notifier Notifier
	opts     Options
}

func NewService(store db.Store, locker Locker, limiter Limiter, notifier Notifier, opts Options) *Service {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 10 * time.Second
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{store: store, locker: locker, limiter: limiter, notifier: notifier, opts: opts}
}

// RegisterResult is returned once to the registering display. Code is never
// readable again after this call.
type RegisterResult struct {
	Identifier string `json:"identifier"`
	Code       string `json:"code"`
}

// Register allocates an identifier and persists an unapproved device for
// clientID.
func (s *Service) Register(ctx context.Context, clientID string) (*RegisterResult, error) {
	logger := zerolog.Ctx(ctx).With().Str("client_id", clientID).Logger()

	if clientID == "" {
		return nil, ErrInvalidClient
	}

	ok, err := s.limiter.Allow(ctx)
	if err != nil {
		return nil, fmt.Errorf("check registration throttle: %w", err)
	}
	if !ok {
		logger.Warn().Msg("registration throttled")
		return nil, ErrRateLimited
	}

	release, err := s.locker.Acquire(ctx, RegistrationLock, s.opts.LockTimeout)
	if err != nil {
		logger.Error().Err(err).Msg("failed to acquire registration lock")
		return nil, err
	}
	defer func() {
		if err := s.limiter.Record(context.WithoutCancel(ctx)); err != nil {
			logger.Error().Err(err).Msg("failed to record registration attempt")
		}
		release()
	}()

	if err := s.checkLicense(ctx, clientID); err != nil {
		return nil, err
	}

	highest, err := s.store.HighestDeviceIdentifier(ctx)
	if err != nil {
		return nil, fmt.Errorf("read highest identifier: %w", err)
	}
	identifier, err := NextIdentifier(highest)
	if err != nil {
		return nil, err
	}

	code, err := GenerateCode()
	if err != nil {
		return nil, err
	}
	hash, err := hashCode(code, s.opts.BcryptCost)
	if err != nil {
		return nil, err
	}

	device := &model.Device{
		Identifier: identifier,
		ClientID:   clientID,
		Name:       model.DefaultDeviceName,
		CodeHash:   &hash,
	}
	if err := s.store.CreateDevice(ctx, device); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return nil, fmt.Errorf("%w: %s", ErrIdentifierConflict, identifier)
		}
		return nil, fmt.Errorf("create device: %w", err)
	}

	logger.Info().Str("identifier", identifier).Int("device_id", device.ID).Msg("device registered")
	return &RegisterResult{Identifier: identifier, Code: code}, nil
}

func (s *Service) checkLicense(ctx context.Context, clientID string) error {
	n, err := s.store.CountApprovedDevices(ctx, clientID)
	if err != nil {
		return fmt.Errorf("count approved devices: %w", err)
	}
	if n >= s.opts.LicenseLimit {
		zerolog.Ctx(ctx).Warn().Str("client_id", clientID).Int("approved", n).
			Int("limit", s.opts.LicenseLimit).Msg("license limit reached")
		return ErrLicenseLimitReached
	}
	return nil
}

// ApproveInput carries the submitted code and optional overrides. Empty
// fields leave the stored value unchanged.
type ApproveInput struct {
	Code       string
	Name       string
	LocationID string
	ClientID   string
	Metadata   model.DeviceMetadata
}

// Approve moves an unapproved device to approved once the code matches and
// the client is still under its license ceiling.
func (s *Service) Approve(ctx context.Context, ref string, in ApproveInput) (*model.Device, error) {
	device, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	logger := zerolog.Ctx(ctx).With().Str("identifier", device.Identifier).Logger()

	if device.Approved {
		return nil, ErrAlreadyApproved
	}
	if !codeMatches(device.CodeHash, in.Code) {
		logger.Warn().Msg("approval code mismatch")
		return nil, ErrCodeMismatch
	}

	clientID := device.ClientID
	if in.ClientID != "" {
		clientID = in.ClientID
	}

	release, err := s.locker.Acquire(ctx, licenseLock(clientID), s.opts.LockTimeout)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.checkLicense(ctx, clientID); err != nil {
		return nil, err
	}

	device.ClientID = clientID
	if in.Name != "" {
		device.Name = in.Name
	}
	if in.LocationID != "" {
		loc := in.LocationID
		device.LocationID = &loc
	}
	device.Metadata = device.Metadata.Merge(in.Metadata)

	if err := s.store.ApproveDevice(ctx, device); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return nil, ErrAlreadyApproved
		}
		return nil, fmt.Errorf("approve device: %w", err)
	}

	logger.Info().Str("client_id", clientID).Msg("device approved")
	s.publish(ctx, fmt.Sprintf("signage/devices/%s/approved", device.Identifier), device)
	return device, nil
}

type DetailsInput struct {
	Name       string
	LocationID *string
	Metadata   model.DeviceMetadata
}

// UpdateDetails renames or relocates a device. A nil LocationID leaves the
// location unchanged; an empty one clears it.
func (s *Service) UpdateDetails(ctx context.Context, ref string, in DetailsInput) (*model.Device, error) {
	device, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		device.Name = in.Name
	}
	if in.LocationID != nil {
		if *in.LocationID == "" {
			device.LocationID = nil
		} else {
			loc := *in.LocationID
			device.LocationID = &loc
		}
	}
	device.Metadata = device.Metadata.Merge(in.Metadata)

	if err := s.store.UpdateDeviceDetails(ctx, device); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("update device: %w", err)
	}
	return device, nil
}

func (s *Service) Delete(ctx context.Context, ref string) error {
	device, err := s.Resolve(ctx, ref)
	if err != nil {
		return err
	}
	if err := s.store.DeleteDevice(ctx, device.ID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrDeviceNotFound
		}
		return fmt.Errorf("delete device: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("identifier", device.Identifier).Msg("device deleted")
	return nil
}

// List returns all devices, or only those whose approval state matches
// approved when it is non-nil.
func (s *Service) List(ctx context.Context, approved *bool) ([]model.Device, error) {
	devices, err := s.store.ListDevices(ctx, approved)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return devices, nil
}

// Resolve looks a device up by numeric id or by identifier.
func (s *Service) Resolve(ctx context.Context, ref string) (*model.Device, error) {
	var (
		device *model.Device
		err    error
	)
	if id, convErr := strconv.Atoi(ref); convErr == nil {
		device, err = s.store.GetDeviceByID(ctx, id)
	} else {
		device, err = s.store.GetDeviceByIdentifier(ctx, ref)
	}
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load device %q: %w", ref, err)
	}
	return device, nil
}

// Lookup finds a device by its Display identifier only. Public callers use
// it so that numeric ids cannot be enumerated.
func (s *Service) Lookup(ctx context.Context, identifier string) (*model.Device, error) {
	device, err := s.store.GetDeviceByIdentifier(ctx, identifier)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load device %q: %w", identifier, err)
	}
	return device, nil
}

func (s *Service) publish(ctx context.Context, topic string, payload any) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, topic, payload); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("topic", topic).Msg("failed to publish device event")
	}
}
