package core

import "sessioncore/pkg/domain"

type (
	EntityType            = domain.EntityType
	DayState              = domain.DayState
	Severity              = domain.Severity
	ErrorKind             = domain.ErrorKind
	Base                  = domain.Base
	Animal                = domain.Animal
	Day                   = domain.Day
	Subject               = domain.Subject
	Attribution           = domain.Attribution
	Camera                = domain.Camera
	DataAcqDevice         = domain.DataAcqDevice
	BehavioralEvent       = domain.BehavioralEvent
	Task                  = domain.Task
	ElectrodeGroup        = domain.ElectrodeGroup
	NtrodeChannelMap      = domain.NtrodeChannelMap
	DeviceSet             = domain.DeviceSet
	SessionInfo           = domain.SessionInfo
	ConfigurationSnapshot = domain.ConfigurationSnapshot
	EffectiveDay          = domain.EffectiveDay
	ValidationError       = domain.ValidationError
	ValidationResult      = domain.ValidationResult
)

const (
	EntityAnimal   = domain.EntityAnimal
	EntityDay      = domain.EntityDay
	EntitySnapshot = domain.EntitySnapshot
)

const (
	DayStateDraft     = domain.DayStateDraft
	DayStateValidated = domain.DayStateValidated
	DayStateExported  = domain.DayStateExported
)

const (
	SeverityInfo    = domain.SeverityInfo
	SeverityWarning = domain.SeverityWarning
	SeverityError   = domain.SeverityError
)
