package segment

import (
	"fmt"
	"regexp"
	"strings"
)

// Timing selects whether an apply_to_all_segments handler runs before or
// after the AI transform phase.
type Timing int

const (
	TimingBeforeAI Timing = iota
	TimingAfterAI
)

// HandlerKind tags the handler variant.
type HandlerKind int

const (
	HandlerOpenURL HandlerKind = iota
	HandlerOpenApp
	HandlerQuitApp
	HandlerExecuteShell
	HandlerSegmentOp
	HandlerTransformText
	HandlerCleanURL
)

// SegmentOpKind enumerates the SegmentOp handler's operations (spec 4.3's
// delete_last/clear/replace_last/lowercase_first_char family).
type SegmentOpKind int

const (
	SegmentOpDeleteLast SegmentOpKind = iota
	SegmentOpClear
	SegmentOpReplaceLast
	SegmentOpLowercaseFirstChar
)

// Handler is a tagged variant of one unit of action work. Only the fields
// relevant to Kind are populated.
type Handler struct {
	Kind HandlerKind

	// ApplyToNextSegment enqueues this handler onto the store's pending queue
	// instead of running it immediately.
	ApplyToNextSegment bool
	// StopOnSuccess halts the rest of the action's handler chain once this
	// one succeeds.
	StopOnSuccess bool

	URL          string // OpenURL, CleanURL (template)
	AppName      string // OpenApp, QuitApp
	ShellCommand string // ExecuteShell

	SegmentOp    SegmentOpKind
	ReplaceText  string // SegmentOp: ReplaceLast
	DeleteCount  int    // SegmentOp: DeleteLast

	TransformPrompt string // TransformText
}

// Pattern is a single match rule against segment text. Exactly one of
// Prefix or Regexp should be set; Compile resolves Regexp from RegexpSource.
type Pattern struct {
	Prefix        string
	RegexpSource  string
	CaseSensitive bool

	compiled *regexp.Regexp
}

// Match reports whether text (already trimmed) satisfies the pattern.
func (p *Pattern) Match(text string) bool {
	candidate := text
	if !p.CaseSensitive {
		candidate = strings.ToLower(candidate)
	}
	if p.compiled != nil {
		return p.compiled.MatchString(candidate)
	}
	prefix := p.Prefix
	if !p.CaseSensitive {
		prefix = strings.ToLower(prefix)
	}
	return strings.HasPrefix(candidate, prefix)
}

// Action is a voice command: if any of its MatchPatterns matches the
// normalized text of an appended Transcribed segment, its Handlers run in
// order.
type Action struct {
	ID                  string
	Enabled             bool
	MatchPatterns       []Pattern
	Handlers            []Handler
	ClosesTranscription bool
	SkipsTransformation bool
	SkipsAllTransforms  bool
	ApplyToAllSegments  bool
	Timing              Timing

	compiled bool
}

// Compile validates and pre-compiles an action's patterns once, instead of
// on every segment — grounded on the two-phase schema/verify_options pattern
// the transcriber plugin contract uses for option validation, applied here
// to actions loaded from the rules/actions config list.
func (a *Action) Compile() error {
	if a.ID == "" {
		return fmt.Errorf("segment: action missing id")
	}
	for i := range a.MatchPatterns {
		p := &a.MatchPatterns[i]
		if p.RegexpSource == "" {
			continue
		}
		re, err := regexp.Compile(p.RegexpSource)
		if err != nil {
			return fmt.Errorf("segment: action %q pattern %d: %w", a.ID, i, err)
		}
		p.compiled = re
	}
	a.compiled = true
	return nil
}

// Normalize trims surrounding whitespace, removes the punctuation marks
// . , ! ? ; : and trims again. It does not change case (each Pattern's Match
// lowercases unless that pattern is CaseSensitive) and does not collapse
// internal whitespace.
func Normalize(text string) string {
	t := strings.TrimSpace(text)
	t = strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', '!', '?', ';', ':':
			return -1
		default:
			return r
		}
	}, t)
	return strings.TrimSpace(t)
}

// Matches reports whether the action (already Compiled) matches text.
func (a *Action) Matches(text string) bool {
	if !a.Enabled {
		return false
	}
	normalized := Normalize(text)
	for i := range a.MatchPatterns {
		if a.MatchPatterns[i].Match(normalized) {
			return true
		}
	}
	return false
}
