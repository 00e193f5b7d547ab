package services

import (
	"regexp"
	"strings"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/sections"
)

// addPhrases are the verb phrases that turn an input into an add request.
// Each row is a case-insensitive pattern matched right after the optional
// polite prefix; whatever follows becomes the content. Add a row to support
// a new phrasing.
var addPhrases = []string{
	`remember\b(?:\s+that\b)?`,
	`add\b(?:\s+(?:this|that|the\s+following)\b)?`,
	`save\b(?:\s+(?:this|that)\b)?`,
	`note\b(?:\s+(?:that|this|down)\b)?`,
	`record\b(?:\s+(?:that|this)\b)?`,
	`store\b(?:\s+(?:this|that)\b)?`,
	`put\s+(?:this|that)\s+(?:in|into|down)\b`,
	`write\s+(?:(?:this|that)\s+)?down\b`,
	`log\b(?:\s+(?:this|that)\b)?`,
	`keep\s+(?:this|that|track\s+of)\b`,
	`insert\b(?:\s+(?:this|that)\b)?`,
	`don'?t\s+forget\b(?:\s+that\b)?`,
	`make\s+(?:a\s+)?note\b(?:\s+of\b)?(?:\s+that\b)?`,
	`jot\b(?:\s+this)?\s+down\b`,
}

// politePrefix matches conversational lead-ins such as "please",
// "can you", "I want to" and "let's".
const politePrefix = `(?:please\s+)?(?:(?:can|could|would)\s+you\s+)?(?:please\s+)?` +
	`(?:i\s+(?:want|need)\s+(?:to|you\s+to)\s+)?(?:let'?s\s+|let\s+me\s+)?`

// addSeparator must follow the verb phrase, so a hyphenated word such as
// "log-transformed" is not read as the verb "log".
const addSeparator = `[\s:,][\s:,\-]*`

var addPatterns = compileAddPatterns(addPhrases)

func compileAddPatterns(phrases []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(phrases))
	for i, p := range phrases {
		patterns[i] = regexp.MustCompile(`(?is)^` + politePrefix + p + addSeparator + `(.+)$`)
	}
	return patterns
}

var (
	confirmReplies = map[string]bool{"yes": true, "y": true, "confirm": true, "ok": true, "okay": true, "sure": true, "yep": true}
	rejectReplies  = map[string]bool{"no": true, "n": true, "reject": true, "cancel": true, "nope": true, "discard": true}
)

// ClassifyCommand maps raw input to a Command. When awaiting is true the
// session has a pending edit, so short confirmation replies and a bare
// [MARKER] are recognised.
func ClassifyCommand(input string, awaiting bool) domain.Command {
	raw := input
	input = strings.TrimSpace(input)
	cmd := domain.Command{Raw: raw}

	if strings.HasPrefix(input, "/") {
		return classifyDirective(input, cmd)
	}

	if awaiting {
		reply := strings.ToLower(strings.TrimRight(input, ".! "))
		switch {
		case confirmReplies[reply]:
			cmd.Intent = domain.IntentConfirm
			return cmd
		case rejectReplies[reply]:
			cmd.Intent = domain.IntentReject
			return cmd
		case strings.HasPrefix(input, "[") && strings.HasSuffix(input, "]") && sections.IsMarker(input):
			cmd.Intent = domain.IntentRetarget
			cmd.Marker = sections.NormalizeMarker(input)
			return cmd
		}
	}

	if content, ok := extractAddContent(input); ok {
		cmd.Intent = domain.IntentAdd
		cmd.Text = content
		return cmd
	}

	cmd.Intent = domain.IntentQuery
	cmd.Text = input
	return cmd
}

// extractAddContent returns the content of an add request. Questions are
// never add requests.
func extractAddContent(input string) (string, bool) {
	if input == "" || strings.HasSuffix(input, "?") {
		return "", false
	}
	for _, p := range addPatterns {
		if m := p.FindStringSubmatch(input); m != nil {
			if content := strings.TrimSpace(m[1]); content != "" {
				return content, true
			}
		}
	}
	return "", false
}

func classifyDirective(input string, cmd domain.Command) domain.Command {
	fields := strings.Fields(input)
	name := strings.ToLower(fields[0])
	arg := strings.TrimSpace(strings.TrimPrefix(input, fields[0]))

	switch name {
	case "/index", "/reindex":
		cmd.Intent = domain.IntentReindex
	case "/gaps":
		cmd.Intent = domain.IntentGaps
		cmd.Scope = strings.ToUpper(arg)
	case "/markers":
		cmd.Intent = domain.IntentMarkers
	case "/stats":
		cmd.Intent = domain.IntentStats
	case "/pending":
		cmd.Intent = domain.IntentPending
	case "/confirm", "/yes":
		cmd.Intent = domain.IntentConfirm
		if arg != "" && sections.IsMarker(arg) {
			cmd.Intent = domain.IntentRetarget
			cmd.Marker = sections.NormalizeMarker(arg)
		}
	case "/reject", "/no":
		cmd.Intent = domain.IntentReject
	case "/add":
		cmd.Intent = domain.IntentAdd
		cmd.Text = arg
	case "/help", "/?":
		cmd.Intent = domain.IntentHelp
	case "/quit", "/exit", "/q":
		cmd.Intent = domain.IntentQuit
	default:
		cmd.Intent = domain.IntentUnknownDirective
		cmd.Text = name
	}
	return cmd
}
