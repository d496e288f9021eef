package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"sessioncore/pkg/domain"
)

func newTestStore() *Store {
	store := NewStore()
	var counter int
	store.SetIDSource(func() string {
		counter++
		return fmt.Sprintf("id-%03d", counter)
	})
	store.SetClock(func() time.Time { return time.Date(2023, 6, 22, 12, 0, 0, 0, time.UTC) })
	return store
}

func testAnimal() domain.Animal {
	return domain.Animal{
		Subject: domain.Subject{
			SubjectID: "remy",
			Species:   "Rattus norvegicus",
			Sex:       "M",
			Genotype:  "Wild Type",
		},
		Attribution: domain.Attribution{
			Experimenters: []string{"Guidera, Jennifer"},
			Lab:           "Frank Lab",
			Institution:   "UCSF",
		},
		Devices: domain.DeviceSet{
			ElectrodeGroups: []domain.ElectrodeGroup{
				{ID: 0, Location: "CA1", DeviceType: "tetrode_12.5", Description: "tetrode"},
			},
			ChannelMaps: []domain.NtrodeChannelMap{
				{NtrodeID: 0, ElectrodeGroupID: 0, Map: []int{0, 1, 2, 3}, BadChannels: []int{}},
			},
		},
	}
}

func TestAnimalCRUDAndDayLifecycle(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	var animalID, dayID string
	if err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		animal, err := tx.CreateAnimal(testAnimal())
		if err != nil {
			return err
		}
		animalID = animal.ID

		day, err := tx.CreateDay(domain.Day{AnimalID: animalID, Date: "2023-06-22"})
		if err != nil {
			return err
		}
		dayID = day.ID

		if day.Session.SessionID != "remy_20230622" {
			return fmt.Errorf("unexpected derived session id %q", day.Session.SessionID)
		}
		if day.State != domain.DayStateDraft {
			return fmt.Errorf("new day should be draft, got %s", day.State)
		}
		if day.SnapshotID == "" {
			return fmt.Errorf("new day should capture a configuration snapshot")
		}
		return nil
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}

	animal, ok := store.GetAnimal(animalID)
	if !ok {
		t.Fatalf("animal %s not found after commit", animalID)
	}
	if len(animal.DayIDs) != 1 || animal.DayIDs[0] != dayID {
		t.Fatalf("animal should link its day, got %v", animal.DayIDs)
	}
	if snaps := store.ListSnapshots(); len(snaps) != 1 || snaps[0].AnimalID != animalID {
		t.Fatalf("expected one configuration snapshot for %s, got %v", animalID, snaps)
	}

	// deleting a referenced animal is rejected with the structured error
	err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteAnimal(animalID)
	})
	var refErr domain.AnimalReferencedError
	if !errors.As(err, &refErr) {
		t.Fatalf("expected AnimalReferencedError, got %v", err)
	}
	if refErr.DayRefs != 1 {
		t.Fatalf("expected 1 day reference, got %d", refErr.DayRefs)
	}

	// delete the day, then the animal
	if err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := tx.DeleteDay(dayID); err != nil {
			return err
		}
		return tx.DeleteAnimal(animalID)
	}); err != nil {
		t.Fatalf("cleanup transaction: %v", err)
	}
	if _, ok := store.GetDay(dayID); ok {
		t.Fatal("day should be gone after delete")
	}
	if _, ok := store.GetAnimal(animalID); ok {
		t.Fatal("animal should be gone after delete")
	}
}

func TestCreateDayValidation(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateDay(domain.Day{AnimalID: "missing", Date: "2023-06-22"})
		return err
	})
	var unknown domain.UnknownAnimalError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownAnimalError, got %v", err)
	}

	err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		animal, err := tx.CreateAnimal(testAnimal())
		if err != nil {
			return err
		}
		_, err = tx.CreateDay(domain.Day{AnimalID: animal.ID, Date: "06/22/2023"})
		return err
	})
	if err == nil {
		t.Fatal("expected date format error")
	}
	if len(store.ListAnimals()) != 0 {
		t.Fatal("failed transaction must not commit the animal")
	}
}

func TestRollbackLeavesStateUntouched(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	var animalID string
	if err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		animal, err := tx.CreateAnimal(testAnimal())
		animalID = animal.ID
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	boom := errors.New("boom")
	err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.UpdateAnimal(animalID, func(a *domain.Animal) error {
			a.Subject.SubjectID = "changed"
			return nil
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	animal, _ := store.GetAnimal(animalID)
	if animal.Subject.SubjectID != "remy" {
		t.Fatalf("rollback should discard mutation, got %q", animal.Subject.SubjectID)
	}
}

func TestDeleteElectrodeGroupCascades(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	seed := testAnimal()
	seed.Devices.ElectrodeGroups = append(seed.Devices.ElectrodeGroups,
		domain.ElectrodeGroup{ID: 1, Location: "CA3", DeviceType: "tetrode_12.5", Description: "tetrode"})
	seed.Devices.ChannelMaps = append(seed.Devices.ChannelMaps,
		domain.NtrodeChannelMap{NtrodeID: 1, ElectrodeGroupID: 1, Map: []int{0, 1, 2, 3}, BadChannels: []int{}})

	var animalID string
	if err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		animal, err := tx.CreateAnimal(seed)
		animalID = animal.ID
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		animal, err := tx.DeleteElectrodeGroup(animalID, 0)
		if err != nil {
			return err
		}
		if len(animal.Devices.ElectrodeGroups) != 1 || animal.Devices.ElectrodeGroups[0].ID != 1 {
			return fmt.Errorf("group 0 should be removed, got %v", animal.Devices.ElectrodeGroups)
		}
		if len(animal.Devices.ChannelMaps) != 1 || animal.Devices.ChannelMaps[0].ElectrodeGroupID != 1 {
			return fmt.Errorf("maps of group 0 should cascade, got %v", animal.Devices.ChannelMaps)
		}
		return nil
	}); err != nil {
		t.Fatalf("delete group: %v", err)
	}

	err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.DeleteElectrodeGroup(animalID, 7)
		return err
	})
	if err == nil {
		t.Fatal("expected error for unknown electrode group")
	}
}

func TestUpdateDayPreservesOwnership(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	var animalID, dayID string
	if err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		animal, err := tx.CreateAnimal(testAnimal())
		if err != nil {
			return err
		}
		animalID = animal.ID
		day, err := tx.CreateDay(domain.Day{AnimalID: animalID, Date: "2023-06-22"})
		dayID = day.ID
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		day, err := tx.UpdateDay(dayID, func(d *domain.Day) error {
			d.AnimalID = "hijacked"
			d.Session.SessionDescription = "sleep then run"
			return nil
		})
		if err != nil {
			return err
		}
		if day.AnimalID != animalID {
			return fmt.Errorf("day ownership must be immutable, got %q", day.AnimalID)
		}
		if day.Session.SessionDescription != "sleep then run" {
			return fmt.Errorf("mutator change lost")
		}
		return nil
	}); err != nil {
		t.Fatalf("update day: %v", err)
	}
}

func TestReadersReceiveClones(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	var animalID string
	if err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		animal, err := tx.CreateAnimal(testAnimal())
		animalID = animal.ID
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	animal, _ := store.GetAnimal(animalID)
	animal.Devices.ChannelMaps[0].Map[0] = 99
	animal.Attribution.Experimenters[0] = "Mallory"

	fresh, _ := store.GetAnimal(animalID)
	if fresh.Devices.ChannelMaps[0].Map[0] != 0 {
		t.Fatal("caller mutation leaked into store state")
	}
	if fresh.Attribution.Experimenters[0] != "Guidera, Jennifer" {
		t.Fatal("caller mutation leaked into store state")
	}
}

func TestExportImportState(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	if err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		animal, err := tx.CreateAnimal(testAnimal())
		if err != nil {
			return err
		}
		_, err = tx.CreateDay(domain.Day{AnimalID: animal.ID, Date: "2023-06-22"})
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	exported := store.ExportState()
	if len(exported.Animals) != 1 || len(exported.Days) != 1 || len(exported.ConfigSnapshots) != 1 {
		t.Fatalf("unexpected export sizes: %d animals, %d days, %d snapshots",
			len(exported.Animals), len(exported.Days), len(exported.ConfigSnapshots))
	}

	restored := NewStore()
	restored.ImportState(exported)
	if len(restored.ListAnimals()) != 1 || len(restored.ListDays()) != 1 {
		t.Fatal("imported state incomplete")
	}
	if restored.ListDays()[0].Session.SessionID != "remy_20230622" {
		t.Fatalf("session id lost on import: %q", restored.ListDays()[0].Session.SessionID)
	}
}

func TestDeriveSessionID(t *testing.T) {
	if got := DeriveSessionID("remy", "2023-06-22"); got != "remy_20230622" {
		t.Fatalf("got %q", got)
	}
}
