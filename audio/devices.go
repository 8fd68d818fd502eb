package audio

// Source identifies one capture source on the host audio system.
type Source struct {
	ID   string // opaque platform-specific identifier
	Name string
}
