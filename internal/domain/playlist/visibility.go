package playlist

// Visibility identifies who is asking, and therefore which non-public
// playlists may be shown. The zero value is an anonymous caller.
type Visibility struct {
	viewer int64
	known  bool
}

// Anonymous returns the visibility of an unauthenticated caller.
func Anonymous() Visibility { return Visibility{} }

// ViewerOf returns the visibility of an identified user.
func ViewerOf(userID int64) Visibility { return Visibility{viewer: userID, known: true} }

// Viewer returns the viewer id, ok is false for anonymous callers.
func (v Visibility) Viewer() (id int64, ok bool) { return v.viewer, v.known }

// Owns reports whether the viewer is the given user.
func (v Visibility) Owns(ownerID int64) bool { return v.known && v.viewer == ownerID }
