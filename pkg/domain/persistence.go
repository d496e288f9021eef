package domain

import "context"

// Transaction exposes the workspace mutations a persistence implementation
// must support within an atomic scope. A transaction either commits fully,
// replacing the store's root state, or leaves the prior state untouched.
type Transaction interface {
	Snapshot() TransactionView
	CreateAnimal(Animal) (Animal, error)
	UpdateAnimal(id string, mutator func(*Animal) error) (Animal, error)
	DeleteAnimal(id string) error
	CreateDay(Day) (Day, error)
	UpdateDay(id string, mutator func(*Day) error) (Day, error)
	DeleteDay(id string) error
	// DeleteElectrodeGroup removes an electrode group from an animal and
	// cascades to every ntrode channel map referencing it.
	DeleteElectrodeGroup(animalID string, groupID int) (Animal, error)
	// AddConfigurationSnapshot captures the animal's current device
	// configuration as an immutable snapshot record.
	AddConfigurationSnapshot(animalID string) (ConfigurationSnapshot, error)
	FindAnimal(id string) (Animal, bool)
	FindDay(id string) (Day, bool)
}

// TransactionView provides read-only access to a consistent state snapshot.
type TransactionView interface {
	ListAnimals() []Animal
	ListDays() []Day
	ListSnapshots() []ConfigurationSnapshot
	FindAnimal(id string) (Animal, bool)
	FindDay(id string) (Day, bool)
	FindSnapshot(id string) (ConfigurationSnapshot, bool)
}

// PersistentStore is a minimal abstraction over durable workspace backends.
// It mirrors the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) error
	View(ctx context.Context, fn func(TransactionView) error) error
	GetAnimal(id string) (Animal, bool)
	ListAnimals() []Animal
	GetDay(id string) (Day, bool)
	ListDays() []Day
	ListSnapshots() []ConfigurationSnapshot
}
