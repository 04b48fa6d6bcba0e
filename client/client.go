package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/habedi/folio/session"
	"github.com/rs/zerolog/log"
)

// Client maps blog actions to API endpoints. All calls go through the Gateway.
type Client struct {
	gw *Gateway
}

// New returns a Client that sends through gw.
func New(gw *Gateway) *Client {
	return &Client{gw: gw}
}

// Authenticate exchanges credentials for a token pair. It does not store the tokens.
func (c *Client) Authenticate(ctx context.Context, creds Credentials) (session.TokenPair, error) {
	var pair session.TokenPair
	env := &Envelope{Method: http.MethodPost, Path: "/api/login", Body: creds, SkipRefresh: true}
	if err := c.gw.Do(ctx, env, &pair); err != nil {
		return session.TokenPair{}, fmt.Errorf("login failed: %w", err)
	}
	return pair, nil
}

// Register creates an account and returns its first token pair.
func (c *Client) Register(ctx context.Context, reg Registration) (session.TokenPair, error) {
	var pair session.TokenPair
	env := &Envelope{Method: http.MethodPost, Path: "/api/register", Body: reg, SkipRefresh: true}
	if err := c.gw.Do(ctx, env, &pair); err != nil {
		return session.TokenPair{}, fmt.Errorf("registration failed: %w", err)
	}
	return pair, nil
}

// Logout tells the server to drop its cookies. The local session is not touched.
func (c *Client) Logout(ctx context.Context) error {
	env := &Envelope{Method: http.MethodPost, Path: "/api/logout", SkipRefresh: true}
	return c.gw.Do(ctx, env, nil)
}

// Refresh renews the stored access token.
func (c *Client) Refresh(ctx context.Context) error {
	return c.gw.Refresh(ctx)
}

func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var u User
	if err := c.gw.Do(ctx, &Envelope{Method: http.MethodGet, Path: "/api/me"}, &u); err != nil {
		return User{}, fmt.Errorf("failed to fetch current user: %w", err)
	}
	return u, nil
}

func (c *Client) ListPosts(ctx context.Context) ([]Post, error) {
	var posts []Post
	if err := c.gw.Do(ctx, &Envelope{Method: http.MethodGet, Path: "/articles/"}, &posts); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	log.Debug().Int("count", len(posts)).Msg("Fetched posts")
	return posts, nil
}

func (c *Client) ListPostsByCategory(ctx context.Context, category string) ([]Post, error) {
	var posts []Post
	path := "/articles/category/" + url.PathEscape(category)
	if err := c.gw.Do(ctx, &Envelope{Method: http.MethodGet, Path: path}, &posts); err != nil {
		return nil, fmt.Errorf("failed to list posts in category %q: %w", category, err)
	}
	return posts, nil
}

func (c *Client) GetPost(ctx context.Context, id int) (Post, error) {
	var p Post
	if err := c.gw.Do(ctx, &Envelope{Method: http.MethodGet, Path: fmt.Sprintf("/articles/%d", id)}, &p); err != nil {
		return Post{}, fmt.Errorf("failed to fetch post %d: %w", id, err)
	}
	return p, nil
}

func (c *Client) CreatePost(ctx context.Context, in PostInput) (Post, error) {
	var p Post
	if err := c.gw.Do(ctx, &Envelope{Method: http.MethodPost, Path: "/articles/", Body: in}, &p); err != nil {
		return Post{}, fmt.Errorf("failed to create post: %w", err)
	}
	return p, nil
}

func (c *Client) UpdatePost(ctx context.Context, id int, upd PostUpdate) (Post, error) {
	var p Post
	env := &Envelope{Method: http.MethodPut, Path: fmt.Sprintf("/articles/%d", id), Body: upd}
	if err := c.gw.Do(ctx, env, &p); err != nil {
		return Post{}, fmt.Errorf("failed to update post %d: %w", id, err)
	}
	return p, nil
}

func (c *Client) DeletePost(ctx context.Context, id int) error {
	if err := c.gw.Do(ctx, &Envelope{Method: http.MethodDelete, Path: fmt.Sprintf("/articles/%d", id)}, nil); err != nil {
		return fmt.Errorf("failed to delete post %d: %w", id, err)
	}
	return nil
}

func (c *Client) ListComments(ctx context.Context, postID int) ([]Comment, error) {
	var comments []Comment
	env := &Envelope{Method: http.MethodGet, Path: fmt.Sprintf("/articles/%d/comments", postID)}
	if err := c.gw.Do(ctx, env, &comments); err != nil {
		return nil, fmt.Errorf("failed to list comments of post %d: %w", postID, err)
	}
	return comments, nil
}

func (c *Client) CreateComment(ctx context.Context, in CommentInput) (Comment, error) {
	var cm Comment
	if err := c.gw.Do(ctx, &Envelope{Method: http.MethodPost, Path: "/comments/", Body: in}, &cm); err != nil {
		return Comment{}, fmt.Errorf("failed to create comment: %w", err)
	}
	return cm, nil
}

// UpdateComment replaces the text of a comment. The API answers with an empty body.
func (c *Client) UpdateComment(ctx context.Context, id int, upd CommentUpdate) error {
	env := &Envelope{Method: http.MethodPut, Path: fmt.Sprintf("/comments/%d", id), Body: upd}
	if err := c.gw.Do(ctx, env, nil); err != nil {
		return fmt.Errorf("failed to update comment %d: %w", id, err)
	}
	return nil
}

func (c *Client) DeleteComment(ctx context.Context, id int) error {
	if err := c.gw.Do(ctx, &Envelope{Method: http.MethodDelete, Path: fmt.Sprintf("/comments/%d", id)}, nil); err != nil {
		return fmt.Errorf("failed to delete comment %d: %w", id, err)
	}
	return nil
}

// ListCategories returns the categories that have at least one post.
func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	var cats []string
	if err := c.gw.Do(ctx, &Envelope{Method: http.MethodGet, Path: "/categories/"}, &cats); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return cats, nil
}
