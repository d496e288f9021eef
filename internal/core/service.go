package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sessioncore/internal/channelmap"
	"sessioncore/internal/validation"
	"sessioncore/pkg/device"
	"sessioncore/pkg/domain"
)

// Service exposes the workspace operations consumed by presentation layers:
// transactional CRUD over animals and days, channel-map editing, merge
// resolution, and sequenced validation.
type Service struct {
	store     domain.PersistentStore
	maps      *channelmap.Engine
	validator *validation.Engine
	seq       *validation.Sequencer
	logger    *zap.Logger
	metrics   MetricsRecorder
}

// Option configures a Service.
type Option func(*Service)

// WithLogger injects a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics injects an operation metrics recorder.
func WithMetrics(rec MetricsRecorder) Option {
	return func(s *Service) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithRegistry overrides the device-type registry used for channel-map
// generation and validation.
func WithRegistry(registry *device.Registry) Option {
	return func(s *Service) {
		if registry != nil {
			s.maps = channelmap.NewEngine(registry)
			s.validator = validation.NewDefaultEngine(registry)
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...Option) *Service {
	registry := device.Builtin()
	s := &Service{
		store:     store,
		maps:      channelmap.NewEngine(registry),
		validator: validation.NewDefaultEngine(registry),
		seq:       validation.NewSequencer(),
		logger:    zap.NewNop(),
		metrics:   NopMetricsRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore { return s.store }

// Registry returns the device-type registry in use.
func (s *Service) Registry() *device.Registry { return s.maps.Registry() }

func (s *Service) instrument(ctx context.Context, operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	took := time.Since(start)
	s.metrics.Observe(ctx, operation, err == nil, took)
	if err != nil {
		s.logger.Warn("workspace operation failed", zap.String("operation", operation), zap.Error(err))
	} else {
		s.logger.Debug("workspace operation complete", zap.String("operation", operation), zap.Duration("took", took))
	}
	return err
}

// CreateAnimal persists a new animal template.
func (s *Service) CreateAnimal(ctx context.Context, animal Animal) (Animal, error) {
	var created Animal
	err := s.instrument(ctx, "create_animal", func() error {
		return s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			created, err = tx.CreateAnimal(animal)
			return err
		})
	})
	return created, err
}

// UpdateAnimal mutates an animal using the provided mutator.
func (s *Service) UpdateAnimal(ctx context.Context, id string, mutator func(*Animal) error) (Animal, error) {
	var updated Animal
	err := s.instrument(ctx, "update_animal", func() error {
		return s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			updated, err = tx.UpdateAnimal(id, mutator)
			return err
		})
	})
	return updated, err
}

// DeleteAnimal removes an animal template that is no longer referenced.
func (s *Service) DeleteAnimal(ctx context.Context, id string) error {
	return s.instrument(ctx, "delete_animal", func() error {
		return s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			return tx.DeleteAnimal(id)
		})
	})
}

// CreateDay persists a new recording day under an animal.
func (s *Service) CreateDay(ctx context.Context, day Day) (Day, error) {
	var created Day
	err := s.instrument(ctx, "create_day", func() error {
		return s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			created, err = tx.CreateDay(day)
			return err
		})
	})
	return created, err
}

// UpdateDay mutates a day using the provided mutator.
func (s *Service) UpdateDay(ctx context.Context, id string, mutator func(*Day) error) (Day, error) {
	var updated Day
	err := s.instrument(ctx, "update_day", func() error {
		return s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			updated, err = tx.UpdateDay(id, mutator)
			return err
		})
	})
	return updated, err
}

// DeleteDay removes a recording day.
func (s *Service) DeleteDay(ctx context.Context, id string) error {
	return s.instrument(ctx, "delete_day", func() error {
		return s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			return tx.DeleteDay(id)
		})
	})
}

// AssignDeviceType adds an electrode group for the given device type to an
// animal and generates its channel maps in the same transaction, so group
// and maps are created together or not at all. The seed provides location
// and targeting metadata; its ID is assigned by the service.
func (s *Service) AssignDeviceType(ctx context.Context, animalID string, seed ElectrodeGroup) (Animal, error) {
	var updated Animal
	err := s.instrument(ctx, "assign_device_type", func() error {
		if _, err := s.maps.Registry().Lookup(seed.DeviceType); err != nil {
			return err
		}
		return s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			updated, err = tx.UpdateAnimal(animalID, func(a *Animal) error {
				seed.ID = channelmap.NextGroupID(a.Devices.ElectrodeGroups)
				generated, err := s.maps.Generate(seed.DeviceType, seed.ID, a.Devices.ChannelMaps)
				if err != nil {
					return err
				}
				a.Devices.ElectrodeGroups = append(a.Devices.ElectrodeGroups, seed)
				a.Devices.ChannelMaps = append(a.Devices.ChannelMaps, generated...)
				return nil
			})
			return err
		})
	})
	return updated, err
}

// DuplicateElectrodeGroup clones an electrode group and its channel maps
// within an animal, assigning fresh group and ntrode IDs.
func (s *Service) DuplicateElectrodeGroup(ctx context.Context, animalID string, groupID int) (Animal, error) {
	var updated Animal
	err := s.instrument(ctx, "duplicate_electrode_group", func() error {
		return s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			updated, err = tx.UpdateAnimal(animalID, func(a *Animal) error {
				var source *ElectrodeGroup
				for i := range a.Devices.ElectrodeGroups {
					if a.Devices.ElectrodeGroups[i].ID == groupID {
						source = &a.Devices.ElectrodeGroups[i]
						break
					}
				}
				if source == nil {
					return fmt.Errorf("electrode group %d not found in animal %q", groupID, animalID)
				}
				groupMaps := make([]NtrodeChannelMap, 0)
				for _, m := range a.Devices.ChannelMaps {
					if m.ElectrodeGroupID == groupID {
						groupMaps = append(groupMaps, m)
					}
				}
				newGroup, newMaps := channelmap.Duplicate(*source, groupMaps, a.Devices.ElectrodeGroups, a.Devices.ChannelMaps)
				a.Devices.ElectrodeGroups = append(a.Devices.ElectrodeGroups, newGroup)
				a.Devices.ChannelMaps = append(a.Devices.ChannelMaps, newMaps...)
				return nil
			})
			return err
		})
	})
	return updated, err
}

// DeleteElectrodeGroup removes an electrode group and cascades to its
// channel maps.
func (s *Service) DeleteElectrodeGroup(ctx context.Context, animalID string, groupID int) (Animal, error) {
	var updated Animal
	err := s.instrument(ctx, "delete_electrode_group", func() error {
		return s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			updated, err = tx.DeleteElectrodeGroup(animalID, groupID)
			return err
		})
	})
	return updated, err
}

// ReassignChannel points one logical channel of a ntrode at a new hardware
// channel, or unassigns it. Duplicate assignments are allowed; validation
// reports them.
func (s *Service) ReassignChannel(ctx context.Context, animalID string, ntrodeID, logicalChannel, hardwareChannel int) (Animal, error) {
	var updated Animal
	err := s.instrument(ctx, "reassign_channel", func() error {
		return s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			updated, err = tx.UpdateAnimal(animalID, func(a *Animal) error {
				for i := range a.Devices.ChannelMaps {
					if a.Devices.ChannelMaps[i].NtrodeID != ntrodeID {
						continue
					}
					changed, err := channelmap.Reassign(a.Devices.ChannelMaps[i], logicalChannel, hardwareChannel)
					if err != nil {
						return err
					}
					a.Devices.ChannelMaps[i] = changed
					return nil
				}
				return fmt.Errorf("ntrode %d not found in animal %q", ntrodeID, animalID)
			})
			return err
		})
	})
	return updated, err
}

// ChannelOptions lists the hardware channels a caller may offer for one
// logical channel of a ntrode: the unassign sentinel, unused channels of the
// device, and the current selection.
func (s *Service) ChannelOptions(ctx context.Context, animalID string, ntrodeID, logicalChannel int) ([]int, error) {
	var options []int
	err := s.instrument(ctx, "channel_options", func() error {
		animal, ok := s.store.GetAnimal(animalID)
		if !ok {
			return domain.UnknownAnimalError{ID: animalID}
		}
		for _, m := range animal.Devices.ChannelMaps {
			if m.NtrodeID != ntrodeID {
				continue
			}
			for _, g := range animal.Devices.ElectrodeGroups {
				if g.ID != m.ElectrodeGroupID {
					continue
				}
				geom, err := s.maps.Registry().Lookup(g.DeviceType)
				if err != nil {
					return err
				}
				options = channelmap.AvailableOptions(m, logicalChannel, geom.TotalChannels())
				return nil
			}
			return fmt.Errorf("electrode group %d not found in animal %q", m.ElectrodeGroupID, animalID)
		}
		return fmt.Errorf("ntrode %d not found in animal %q", ntrodeID, animalID)
	})
	return options, err
}

// SetBadChannelOverride records a day-specific set of unusable hardware
// channels for one electrode group, shadowing the animal-level default.
func (s *Service) SetBadChannelOverride(ctx context.Context, dayID string, groupID int, channels []int) (Day, error) {
	var updated Day
	err := s.instrument(ctx, "set_bad_channel_override", func() error {
		return s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			updated, err = tx.UpdateDay(dayID, func(d *Day) error {
				if d.BadChannelOverrides == nil {
					d.BadChannelOverrides = make(map[int][]int)
				}
				d.BadChannelOverrides[groupID] = append([]int(nil), channels...)
				return nil
			})
			return err
		})
	})
	return updated, err
}

// ClearBadChannelOverride removes a day-specific bad-channel set, restoring
// the animal-level default for that group.
func (s *Service) ClearBadChannelOverride(ctx context.Context, dayID string, groupID int) (Day, error) {
	var updated Day
	err := s.instrument(ctx, "clear_bad_channel_override", func() error {
		return s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			updated, err = tx.UpdateDay(dayID, func(d *Day) error {
				delete(d.BadChannelOverrides, groupID)
				return nil
			})
			return err
		})
	})
	return updated, err
}

// AddConfigurationSnapshot captures the animal's current hardware
// configuration for reconfiguration tracking.
func (s *Service) AddConfigurationSnapshot(ctx context.Context, animalID string) (ConfigurationSnapshot, error) {
	var snap ConfigurationSnapshot
	err := s.instrument(ctx, "add_configuration_snapshot", func() error {
		return s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			snap, err = tx.AddConfigurationSnapshot(animalID)
			return err
		})
	})
	return snap, err
}

// SnapshotDiff compares two configuration snapshots of the same animal.
func (s *Service) SnapshotDiff(ctx context.Context, prevID, curID string) (DeviceDiff, error) {
	var diff DeviceDiff
	err := s.instrument(ctx, "snapshot_diff", func() error {
		return s.store.View(ctx, func(v domain.TransactionView) error {
			prev, ok := v.FindSnapshot(prevID)
			if !ok {
				return fmt.Errorf("configuration snapshot %q not found", prevID)
			}
			cur, ok := v.FindSnapshot(curID)
			if !ok {
				return fmt.Errorf("configuration snapshot %q not found", curID)
			}
			if prev.AnimalID != cur.AnimalID {
				return fmt.Errorf("snapshots %q and %q belong to different animals", prevID, curID)
			}
			diff = DiffSnapshots(prev, cur)
			return nil
		})
	})
	return diff, err
}

// ResolveDay computes the merged document for a day.
func (s *Service) ResolveDay(ctx context.Context, dayID string) (EffectiveDay, error) {
	var eff EffectiveDay
	err := s.instrument(ctx, "resolve_day", func() error {
		return s.store.View(ctx, func(v domain.TransactionView) error {
			day, ok := v.FindDay(dayID)
			if !ok {
				return domain.UnknownDayError{ID: dayID}
			}
			animal, ok := v.FindAnimal(day.AnimalID)
			if !ok {
				return domain.UnknownAnimalError{ID: day.AnimalID}
			}
			eff = ResolveDay(animal, day)
			return nil
		})
	})
	return eff, err
}

// ValidateDay resolves and validates a day, records the result under a
// fresh request sequence number, and advances the day's state to validated
// when the document is clean. A stale result never overwrites a fresher one.
func (s *Service) ValidateDay(ctx context.Context, dayID string) (ValidationResult, error) {
	var result ValidationResult
	err := s.instrument(ctx, "validate_day", func() error {
		seq := s.seq.Issue()
		eff, err := s.ResolveDay(ctx, dayID)
		if err != nil {
			return err
		}
		result = s.validator.Validate(eff)
		s.seq.Commit(seq, result)

		state := DayStateDraft
		if result.IsValid() {
			state = DayStateValidated
		}
		return s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			_, err := tx.UpdateDay(dayID, func(d *Day) error {
				if d.State != DayStateExported || state == DayStateDraft {
					d.State = state
				}
				return nil
			})
			return err
		})
	})
	return result, err
}

// LatestValidation returns the freshest committed validation result.
func (s *Service) LatestValidation() (ValidationResult, uint64, bool) {
	return s.seq.Latest()
}

// ValidateDocument validates an already merged document, for example one
// decoded from imported wire text before it is committed to the store.
func (s *Service) ValidateDocument(doc EffectiveDay) ValidationResult {
	return s.validator.Validate(doc)
}
