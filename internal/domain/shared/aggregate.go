package shared

// BaseAggregateRoot extends BaseEntity with a version counter used for
// optimistic locking. Mutating operations call IncrementVersion so
// concurrent writers conflict at save time.
type BaseAggregateRoot struct {
	BaseEntity
	Version int `gorm:"not null;default:1"`
}

// NewBaseAggregateRoot returns a BaseAggregateRoot at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}

// GetVersion returns the version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion bumps the version
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}
