package projection

// Outcome names the documented result of applying one event. The
// handlers deliberately diverge in how they treat absent entities —
// some no-op, one drops its log record — so each case is a distinct
// value tests can assert against.
type Outcome int

const (
	// OutcomeApplied: the event updated existing state.
	OutcomeApplied Outcome = iota

	// OutcomeCreated: the event's primary entity was first seen and
	// created with zero defaults before the delta was applied.
	OutcomeCreated

	// OutcomeSkippedUnknownCollection: an update-only event referenced a
	// collection indexed before our start block; silently skipped.
	OutcomeSkippedUnknownCollection

	// OutcomeSkippedUnknownToken: an update-only event referenced an
	// unknown token; silently skipped.
	OutcomeSkippedUnknownToken

	// OutcomeAppliedWithoutOrderLog: an AskCancel updated whichever
	// entities were found but dropped its order log record because the
	// token or the collection was missing.
	OutcomeAppliedWithoutOrderLog
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeCreated:
		return "created"
	case OutcomeSkippedUnknownCollection:
		return "skipped_unknown_collection"
	case OutcomeSkippedUnknownToken:
		return "skipped_unknown_token"
	case OutcomeAppliedWithoutOrderLog:
		return "applied_without_order_log"
	default:
		return "unknown"
	}
}
