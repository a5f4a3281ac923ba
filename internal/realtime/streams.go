package realtime

// Named realtime streams.
const (
	// StreamNotifications carries per-event messages (entries, exits, registry changes).
	StreamNotifications = "notifications"
	// StreamStatistics carries statistics snapshots.
	StreamStatistics = "statistics"
)

// Events published on StreamNotifications and StreamStatistics.
const (
	EventEntryCreated           = "EntryCreated"
	EventExitUpdate             = "ExitUpdate"
	EventVisitorAdded           = "VisitorAdded"
	EventVisitorUpdated         = "VisitorUpdated"
	EventVisitorDeleted         = "VisitorDeleted"
	EventVisitorRemoved         = "VisitorRemovedFromInvitation"
	EventInviteRequestSubmitted = "InviteRequestSubmitted"
	EventInviteRequestApproved  = "InviteRequestApproved"
	EventInviteRequestRejected  = "InviteRequestRejected"
	EventStatsUpdated           = "StatsUpdated"
)

// KnownStreams lists every stream a client may subscribe to.
func KnownStreams() []string {
	return []string{StreamNotifications, StreamStatistics}
}
