package property

type CreatedEvent struct {
	PropertyID uint
	ActorID    uint
}

type UpdatedEvent struct {
	PropertyID uint
	ActorID    uint
}

type DeletedEvent struct {
	PropertyID uint
	ActorID    uint
}
