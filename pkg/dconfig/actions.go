package dconfig

import (
	"fmt"

	"github.com/diktilo-ai/diktilo-core/pkg/segment"
)

var handlerKindByName = map[string]segment.HandlerKind{
	"open_url":       segment.HandlerOpenURL,
	"open_app":       segment.HandlerOpenApp,
	"quit_app":       segment.HandlerQuitApp,
	"execute_shell":  segment.HandlerExecuteShell,
	"segment_op":     segment.HandlerSegmentOp,
	"transform_text": segment.HandlerTransformText,
	"clean_url":      segment.HandlerCleanURL,
}

var segmentOpByName = map[string]segment.SegmentOpKind{
	"delete_last":          segment.SegmentOpDeleteLast,
	"clear":                segment.SegmentOpClear,
	"replace_last":         segment.SegmentOpReplaceLast,
	"lowercase_first_char": segment.SegmentOpLowercaseFirstChar,
}

// ToSegmentActions compiles every enabled action in the document into the
// runtime segment.Action form the Flow Supervisor matches against.
func (d Document) ToSegmentActions() ([]*segment.Action, error) {
	var out []*segment.Action
	for _, ac := range d.Actions {
		if !ac.Enabled {
			continue
		}
		a, err := ac.toSegmentAction()
		if err != nil {
			return nil, err
		}
		if err := a.Compile(); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (ac ActionConfig) toSegmentAction() (*segment.Action, error) {
	patterns := make([]segment.Pattern, len(ac.MatchPatterns))
	for i, p := range ac.MatchPatterns {
		patterns[i] = segment.Pattern{
			Prefix:        p.Prefix,
			RegexpSource:  p.Regexp,
			CaseSensitive: p.CaseSensitive,
		}
	}

	handlers := make([]segment.Handler, len(ac.Handlers))
	for i, h := range ac.Handlers {
		kind, ok := handlerKindByName[h.Kind]
		if !ok {
			return nil, fmt.Errorf("dconfig: action %q handler %d: unknown kind %q", ac.ID, i, h.Kind)
		}
		sh := segment.Handler{
			Kind:               kind,
			ApplyToNextSegment: h.ApplyToNextSegment,
			StopOnSuccess:      h.StopOnSuccess,
			URL:                h.URL,
			AppName:            h.AppName,
			ShellCommand:       h.ShellCommand,
			ReplaceText:        h.ReplaceText,
			DeleteCount:        h.DeleteCount,
			TransformPrompt:    h.TransformPrompt,
		}
		if h.SegmentOp != "" {
			op, ok := segmentOpByName[h.SegmentOp]
			if !ok {
				return nil, fmt.Errorf("dconfig: action %q handler %d: unknown segment_op %q", ac.ID, i, h.SegmentOp)
			}
			sh.SegmentOp = op
		}
		handlers[i] = sh
	}

	timing := segment.TimingBeforeAI
	if ac.Timing == "after_ai" {
		timing = segment.TimingAfterAI
	}

	return &segment.Action{
		ID:                  ac.ID,
		Enabled:             ac.Enabled,
		MatchPatterns:       patterns,
		Handlers:            handlers,
		ClosesTranscription: ac.ClosesTranscription,
		SkipsTransformation: ac.SkipsTransformation,
		SkipsAllTransforms:  ac.SkipsAllTransforms,
		ApplyToAllSegments:  ac.ApplyToAllSegments,
		Timing:              timing,
	}, nil
}
