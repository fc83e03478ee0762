package apiclient

// GenerateRequest carries either a prompt or a source URL, never both.
type GenerateRequest struct {
	Prompt string `json:"prompt,omitempty"`
	URL    string `json:"url,omitempty"`
}

// GenerationResult is one generated article. It replaces the previous one
// wholesale.
type GenerationResult struct {
	Content      string `json:"content"`
	Title        string `json:"title"`
	Category     string `json:"category"`
	MetaImageURL string `json:"meta_image_url"`
}

type contentRequest struct {
	Content string `json:"content"`
}

type titleResponse struct {
	Title string `json:"title"`
}

type categoryResponse struct {
	Category string `json:"category"`
}

// PostRequest is the final article sent for publishing.
type PostRequest struct {
	Content      string `json:"content"`
	MetaImageURL string `json:"meta_image_url"`
	Title        string `json:"title"`
	Category     string `json:"category"`
}

// PostResult is returned after a successful publish.
type PostResult struct {
	WordPressURL string `json:"wordpress_url"`
}

// Health is the proxy health report. Backend is "connected",
// "disconnected" or "unknown" when it was not probed.
type Health struct {
	Status  string `json:"status"`
	Backend string `json:"python_server"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
