package domain

// Intent is the closed set of user intents the classifier produces.
type Intent string

// Available intents.
const (
	IntentQuery    Intent = "query"
	IntentAdd      Intent = "add"
	IntentConfirm  Intent = "confirm"
	IntentReject   Intent = "reject"
	IntentRetarget Intent = "retarget"
	IntentReindex  Intent = "reindex"
	IntentGaps     Intent = "gaps"
	IntentMarkers  Intent = "markers"
	IntentStats    Intent = "stats"
	IntentPending  Intent = "pending"
	IntentHelp     Intent = "help"
	IntentQuit     Intent = "quit"

	// IntentUnknownDirective is a slash command that is not recognised.
	IntentUnknownDirective Intent = "unknown_directive"
)

// Command is a classified user input. Only the fields relevant to the
// intent are set.
type Command struct {
	// Intent is the classified intent.
	Intent Intent

	// Text is the question (query) or content to store (add).
	Text string

	// Scope is the optional domain argument of a gaps directive.
	Scope string

	// Marker is the target of a retarget reply.
	Marker string

	// Raw is the unmodified input.
	Raw string
}

// Reply is the outcome of handling a Command. Text is always set; the
// typed field matching Intent carries the structured result.
type Reply struct {
	Intent Intent

	// Text is the rendered response for conversational front ends.
	Text string

	Answer   *Answer
	Pending  *PendingEdit
	Commit   *CommitResult
	Gaps     *GapReport
	Reindex  *ReindexResult
	Sections []Section
	Stats    *IndexStats

	// Quit asks the front end to end the session.
	Quit bool
}
