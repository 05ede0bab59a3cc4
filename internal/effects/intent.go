package effects

// Intent is a request from the presentation layer (or from the orchestrator
// itself) to fetch or change posts.
type Intent interface {
	Name() string
}

// FetchCollection reloads the active posts from the remote store.
type FetchCollection struct{}

// AddPost creates a new post.
type AddPost struct {
	Title   string
	Content string
}

// EditPost replaces the title and content of an existing post.
type EditPost struct {
	ID      string
	Title   string
	Content string
}

// DeletePost soft-deletes a post.
type DeletePost struct {
	ID string
}

func (FetchCollection) Name() string { return "fetch-collection" }
func (AddPost) Name() string         { return "add-post" }
func (EditPost) Name() string        { return "edit-post" }
func (DeletePost) Name() string      { return "delete-post" }
