package streaming

import "github.com/wekeepgrowing/billsync/internal/domain/entity"

// Sender receives progress events.
type Sender interface {
	Send(event entity.Event) error
}

// Tee sends every event to primary, then to each mirror. Only the
// primary's error is returned.
type Tee struct {
	primary Sender
	mirrors []Sender
}

func NewTee(primary Sender, mirrors ...Sender) *Tee {
	return &Tee{primary: primary, mirrors: mirrors}
}

func (t *Tee) Send(event entity.Event) error {
	err := t.primary.Send(event)
	for _, m := range t.mirrors {
		_ = m.Send(event)
	}
	return err
}
