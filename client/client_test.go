package client_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/habedi/folio/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_LoginThenAuthenticatedCall(t *testing.T) {
	srv, c, mgr := newTestClient(t)
	ctx := context.Background()
	srv.AddUser("alice", "secret")

	pair, err := c.Authenticate(ctx, client.Credentials{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)
	require.NoError(t, mgr.Begin(ctx, pair))

	access, _, _ := mgr.AccessToken(ctx)
	refresh, _, _ := mgr.RefreshToken(ctx)
	assert.Equal(t, pair.Access, access)
	assert.Equal(t, pair.Refresh, refresh)

	u, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
}

func TestClient_BadCredentialsDoNotRefresh(t *testing.T) {
	srv, c, mgr := newTestClient(t)
	srv.AddUser("alice", "secret")
	loginAs(t, srv, mgr, "bob")

	_, err := c.Authenticate(context.Background(), client.Credentials{Username: "alice", Password: "nope"})
	require.Error(t, err)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Incorrect username or password", apiErr.Detail)
	assert.Zero(t, srv.RefreshCalls())
}

func TestClient_Register(t *testing.T) {
	_, c, _ := newTestClient(t)
	ctx := context.Background()

	pair, err := c.Register(ctx, client.Registration{Username: "carol", Password1: "pass", Password2: "pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Access)

	_, err = c.Register(ctx, client.Registration{Username: "carol", Password1: "pass", Password2: "pass"})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Username already registered", apiErr.Detail)
}

func TestClient_Logout(t *testing.T) {
	srv, c, _ := newTestClient(t)
	require.NoError(t, c.Logout(context.Background()))
	assert.Len(t, srv.RequestsTo(http.MethodPost, "/api/logout"), 1)
}

func TestClient_PostLifecycle(t *testing.T) {
	srv, c, mgr := newTestClient(t)
	ctx := context.Background()
	loginAs(t, srv, mgr, "alice")
	me, err := c.CurrentUser(ctx)
	require.NoError(t, err)

	created, err := c.CreatePost(ctx, client.PostInput{Title: "First", Content: "Body", Category: "python", AuthorID: me.ID})
	require.NoError(t, err)
	assert.Equal(t, "First", created.Title)
	assert.Equal(t, "alice", created.AuthorName)

	got, err := c.GetPost(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	title := "Renamed"
	updated, err := c.UpdatePost(ctx, created.ID, client.PostUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "Body", updated.Content)

	byCat, err := c.ListPostsByCategory(ctx, "python")
	require.NoError(t, err)
	assert.Len(t, byCat, 1)
	none, err := c.ListPostsByCategory(ctx, "web")
	require.NoError(t, err)
	assert.Empty(t, none)

	cats, err := c.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"python"}, cats)

	require.NoError(t, c.DeletePost(ctx, created.ID))
	_, err = c.GetPost(ctx, created.ID)
	assert.ErrorIs(t, err, client.ErrNotFound)
}

func TestClient_CommentLifecycle(t *testing.T) {
	srv, c, mgr := newTestClient(t)
	ctx := context.Background()
	post := srv.AddPost("alice", "Post", "Body", "web")
	loginAs(t, srv, mgr, "bob")

	cm, err := c.CreateComment(ctx, client.CommentInput{Text: "Nice", PostID: post.ID})
	require.NoError(t, err)
	assert.Equal(t, "bob", cm.AuthorName)

	require.NoError(t, c.UpdateComment(ctx, cm.ID, client.CommentUpdate{Text: "Very nice"}))

	comments, err := c.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Very nice", comments[0].Text)

	p, err := c.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.CommentsCount)

	require.NoError(t, c.DeleteComment(ctx, cm.ID))
	err = c.DeleteComment(ctx, cm.ID)
	assert.ErrorIs(t, err, client.ErrNotFound)
}

func TestClient_WritesRequireLogin(t *testing.T) {
	_, c, _ := newTestClient(t)
	_, err := c.CreatePost(context.Background(), client.PostInput{Title: "x", Content: "y", Category: "web"})
	assert.ErrorIs(t, err, client.ErrUnauthenticated)
}
