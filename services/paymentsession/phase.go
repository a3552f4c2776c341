package paymentsession

type Phase string

const (
	PhaseIdle          Phase = "Idle"
	PhaseFetchingInfo  Phase = "FetchingInfo"
	PhaseInfoError     Phase = "InfoError"
	PhaseInfoReady     Phase = "InfoReady"
	PhaseScriptLoading Phase = "ScriptLoading"
	PhaseScriptError   Phase = "ScriptError"
	PhaseScriptReady   Phase = "ScriptReady"
	PhaseEmbedding     Phase = "Embedding"
	PhaseEmbedded      Phase = "Embedded"
	PhaseRedirecting   Phase = "Redirecting"
)

// allowedTransitions lists the valid next phases per phase. A token change is not a
// transition: it restarts the session from Idle.
var allowedTransitions = map[Phase][]Phase{
	PhaseIdle:          {PhaseFetchingInfo, PhaseInfoError},
	PhaseFetchingInfo:  {PhaseInfoReady, PhaseInfoError},
	PhaseInfoReady:     {PhaseScriptLoading, PhaseRedirecting},
	PhaseScriptLoading: {PhaseScriptReady, PhaseScriptError, PhaseRedirecting},
	PhaseScriptReady:   {PhaseEmbedding, PhaseScriptError, PhaseRedirecting},
	PhaseEmbedding:     {PhaseEmbedded, PhaseScriptError, PhaseRedirecting},
	PhaseEmbedded:      {PhaseEmbedding, PhaseRedirecting},
	PhaseInfoError:     {PhaseFetchingInfo, PhaseRedirecting}, // explicit retry or a late terminal status
	PhaseScriptError:   {PhaseFetchingInfo, PhaseRedirecting}, // explicit retry or a late terminal status
	PhaseRedirecting:   {},
}

func canTransition(from, to Phase) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the lifecycle stopped; only an explicit retry or a new token
// moves on from here.
func (p Phase) IsTerminal() bool {
	return p == PhaseRedirecting || p == PhaseInfoError || p == PhaseScriptError
}

func (p Phase) IsError() bool {
	return p == PhaseInfoError || p == PhaseScriptError
}
