package media

// Kind distinguishes the two scratch artifacts a job produces.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// Artifact is a file in a job's scratch workspace.
type Artifact struct {
	Path string
	Size int64
	Kind Kind
}
