package campaign

import "errors"

var (
	ErrForeignPlacement = errors.New("record belongs to another placement")
	ErrPlacementClosed  = errors.New("placement is closed")
)

// Placement is the capability to move records inside one active view. A
// registry mints one for itself, hands it to every record it creates, and
// opens it only while an archive is in progress.
type Placement struct {
	open bool
}

func NewPlacement() *Placement { return &Placement{} }

// Open enables position assignments until the returned func is called.
func (p *Placement) Open() (closeFn func()) {
	p.open = true
	return func() { p.open = false }
}

func (p *Placement) IsOpen() bool { return p.open }

// Assign moves r to index. It fails when r was created with a different
// placement or when the placement is closed.
func (p *Placement) Assign(r *Record, index int) error {
	if r.placement != p {
		return ErrForeignPlacement
	}
	if !p.open {
		return ErrPlacementClosed
	}
	r.position = index
	return nil
}
