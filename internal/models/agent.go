package models

// Agent is the subset of a Jivas agent node the console renders. The
// remaining fields returned by the platform are ignored.
type Agent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Published   bool   `json:"published"`
	Thumbnail   string `json:"thumbnail,omitempty"`
}

type ActionPackageMeta struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Group       string `json:"group,omitempty"`
	Type        string `json:"type,omitempty"`
}

type ActionPackage struct {
	Name    string            `json:"name,omitempty"`
	Version string            `json:"version,omitempty"`
	Meta    ActionPackageMeta `json:"meta"`
}

// Action is an installed agent action.
type Action struct {
	ID          string         `json:"id"`
	Label       string         `json:"label"`
	Description string         `json:"description,omitempty"`
	Enabled     bool           `json:"enabled"`
	Version     string         `json:"version,omitempty"`
	Package     *ActionPackage `json:"_package,omitempty"`
}

// Title returns the package title, falling back to the label.
func (a Action) Title() string {
	if a.Package != nil && len(a.Package.Meta.Title) > 0 {
		return a.Package.Meta.Title
	}
	return a.Label
}
