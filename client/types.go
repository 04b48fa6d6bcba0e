package client

// User is the account returned by /api/me.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Post is an article as listed and shown by the API.
type Post struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	Category      string `json:"category"`
	AuthorID      int    `json:"author_id"`
	AuthorName    string `json:"author_name"`
	CreatedAt     string `json:"created_at"`
	CommentsCount int    `json:"comments_count"`
}

// PostInput is the payload for creating a post.
type PostInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
	AuthorID int    `json:"author_id"`
}

// PostUpdate changes only the fields that are set.
type PostUpdate struct {
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	Category *string `json:"category,omitempty"`
}

// Comment on a post.
type Comment struct {
	ID         int    `json:"id"`
	Text       string `json:"text"`
	AuthorName string `json:"author_name,omitempty"`
	AuthorID   int    `json:"author_id,omitempty"`
	PostID     int    `json:"post_id,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// CommentInput is the payload for creating a comment.
type CommentInput struct {
	Text     string `json:"text"`
	AuthorID int    `json:"author_id"`
	PostID   int    `json:"post_id"`
}

// CommentUpdate replaces a comment's text.
type CommentUpdate struct {
	Text string `json:"text"`
}

// Credentials for /api/login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration for /api/register.
type Registration struct {
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}
