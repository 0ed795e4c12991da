// internal/game/events.go
//
// Events a session publishes, and the synchronous publisher behind
// Session.Subscribe.
//   - ScoreUpdated: after every accepted drop.
//   - GameEnded: once, when the round is over.

package game

// Event is a notification from a session to its subscribers.
// Implemented by ScoreUpdated and GameEnded only.
type Event interface {
	Kind() string
	isEvent()
}

// ScoreUpdated follows every validated drop.
type ScoreUpdated struct {
	Score    int    `json:"score"`
	Attempts int    `json:"attempts"`
	Message  string `json:"message"`
}

// GameEnded fires once, when the session reaches its attempt limit.
type GameEnded struct {
	FinalScore int `json:"finalScore"`
}

func (ScoreUpdated) Kind() string { return "score_updated" }
func (GameEnded) Kind() string    { return "game_ended" }

func (ScoreUpdated) isEvent() {}
func (GameEnded) isEvent()    {}

// Handler receives events synchronously.
type Handler func(Event)

type subscription struct {
	id int
	h  Handler
}

// publisher is a synchronous observer registry. Not safe for concurrent
// use; the owning session is driven by one caller at a time.
type publisher struct {
	subs   []subscription
	nextID int
}

// Subscribe registers h and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (p *publisher) Subscribe(h Handler) (unsubscribe func()) {
	p.nextID++
	id := p.nextID
	p.subs = append(p.subs, subscription{id: id, h: h})
	return func() {
		for i, s := range p.subs {
			if s.id == id {
				p.subs = append(p.subs[:i:i], p.subs[i+1:]...)
				return
			}
		}
	}
}

// publish delivers e to every subscriber in subscription order.
func (p *publisher) publish(e Event) {
	for _, s := range append([]subscription(nil), p.subs...) {
		s.h(e)
	}
}
