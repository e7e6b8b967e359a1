package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-gin-gorm-blog/internal/core/apperr"
)

func TestCommentSoftDeleteVisibility(t *testing.T) {
	e := newEnv(t)
	admin := e.register(t, "root", true)
	alice := e.register(t, "alice", false)
	bob := e.register(t, "bob", false)
	e.category(t, admin, "Tech")
	b := e.blog(t, alice, "Hello", "Tech", true)

	c1, err := e.comments.Create(ctx, bob, b.ID, CommentInput{Comment: "first"})
	require.NoError(t, err)
	assert.Equal(t, "first", c1.Comment)
	assert.Equal(t, b.ID, c1.Blog)
	assert.Equal(t, "bob", c1.Author.Username)
	c2, err := e.comments.Create(ctx, alice, b.ID, CommentInput{Comment: "second"})
	require.NoError(t, err)

	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(e.comments.SoftDelete(ctx, alice, c1.ID)))
	require.NoError(t, e.comments.SoftDelete(ctx, bob, c1.ID))
	require.NoError(t, e.comments.SoftDelete(ctx, admin, c2.ID))

	list, err := e.comments.List(ctx, alice, b.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err := e.comments.Get(ctx, alice, c1.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DeletedAt, "direct lookup still finds deleted comments")

	require.NoError(t, e.comments.SoftDelete(ctx, bob, c1.ID), "deleting twice is a no-op")
	again, err := e.comments.Get(ctx, alice, c1.ID)
	require.NoError(t, err)
	require.NotNil(t, again.DeletedAt)
	assert.True(t, got.DeletedAt.Equal(*again.DeletedAt), "first deletion time is kept")

	v, err := e.blogs.View(ctx, alice, b.ID)
	require.NoError(t, err)
	assert.Empty(t, v.Comments)
}

func TestCommentOrderingAndErrors(t *testing.T) {
	e := newEnv(t)
	admin := e.register(t, "root", true)
	alice := e.register(t, "alice", false)
	e.category(t, admin, "Tech")
	draft := e.blog(t, alice, "Draft", "Tech", false)

	_, err := e.comments.Create(ctx, admin, draft.ID, CommentInput{Comment: "on a draft"})
	require.NoError(t, err, "drafts accept comments")
	_, err = e.comments.Create(ctx, alice, draft.ID, CommentInput{Comment: "reply"})
	require.NoError(t, err)

	list, err := e.comments.List(ctx, alice, draft.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "on a draft", list[0].Comment)

	_, err = e.comments.Create(ctx, alice, draft.ID, CommentInput{})
	assert.Equal(t, apperr.CodeBadRequest, apperr.CodeOf(err))
	_, err = e.comments.Create(ctx, alice, "missing", CommentInput{Comment: "x"})
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	_, err = e.comments.List(ctx, alice, "missing")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	_, err = e.comments.Get(ctx, alice, "missing")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}
