package models

// Room status values.
const (
	RoomClean         = "clean"
	RoomOccupied      = "occupied"
	RoomMaintenance   = "maintenance"
	RoomNeedsCleaning = "needs_cleaning"
)

// Stay lifecycle statuses. A stay moves active -> pending_closure ->
// finalized, or directly active -> finalized. Finalized stays never occupy.
const (
	StayActive         = "active"
	StayPendingClosure = "pending_closure"
	StayFinalized      = "finalized"
)

// Supply usage types.
const (
	UsageAutomatic  = "automatic"
	UsageVerified   = "verified"
	UsageManual     = "manual"
	UsageAdjustment = "adjustment"
	UsageReturn     = "return"
)

const (
	// DefaultFlexibleDays is the date-shift window when a flexible request
	// does not set one.
	DefaultFlexibleDays = 3

	// MaxSolutions caps the ranked result list.
	MaxSolutions = 10

	// MinSplitNights is the shortest stay a split solution is considered for.
	MinSplitNights = 3

	// RecentStayWindowDays is the trailing window for the occupancy-history
	// confidence factor.
	RecentStayWindowDays = 90

	// SpendingTolerance is the fraction below a client's historical nightly
	// average at which a savings annotation is surfaced.
	SpendingTolerance = 0.3

	// ExportQueueSize bounds the export worker's task queue.
	ExportQueueSize = 100
)
