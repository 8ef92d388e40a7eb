package session

// Observer receives controller events. Every method is called from inside
// an executor action, so implementations may touch UI state without
// further locking as long as nothing else does.
type Observer interface {
	OnState(from, to State)

	// OnTranscript reports partial and final transcription chunks.
	OnTranscript(text string, final bool)

	OnToken(token string)

	// OnReply reports the complete reply before it is spoken.
	OnReply(text string)

	OnFailure(f *Failure)
}

// NopObserver ignores every event. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) OnState(from, to State)               {}
func (NopObserver) OnTranscript(text string, final bool) {}
func (NopObserver) OnToken(token string)                 {}
func (NopObserver) OnReply(text string)                  {}
func (NopObserver) OnFailure(f *Failure)                 {}

// Observers fans events out in order.
type Observers []Observer

func (o Observers) OnState(from, to State) {
	for _, ob := range o {
		ob.OnState(from, to)
	}
}

func (o Observers) OnTranscript(text string, final bool) {
	for _, ob := range o {
		ob.OnTranscript(text, final)
	}
}

func (o Observers) OnToken(token string) {
	for _, ob := range o {
		ob.OnToken(token)
	}
}

func (o Observers) OnReply(text string) {
	for _, ob := range o {
		ob.OnReply(text)
	}
}

func (o Observers) OnFailure(f *Failure) {
	for _, ob := range o {
		ob.OnFailure(f)
	}
}

var (
	_ Observer = NopObserver{}
	_ Observer = Observers(nil)
)
