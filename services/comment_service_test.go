package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/blogme/models"
	"github.com/akinalp/blogme/pkg"
	"github.com/akinalp/blogme/ws"
)

func newCommentFixture(t *testing.T) (*feedFixture, CommentService) {
	t.Helper()
	f := newFeedFixture(t)
	f.seed(1)
	svc := NewCommentService(f.store, f.feed, f.hub)
	t.Cleanup(svc.Close)
	return f, svc
}

func TestSendCommentAndReply(t *testing.T) {
	f, svc := newCommentFixture(t)
	ctx := context.Background()

	_, err := svc.Send(ctx, f.viewer, "p0", "  ")
	require.ErrorIs(t, err, pkg.ErrBadRequest)
	assert.Equal(t, MsgCommentEmpty, pkg.UserMessage(err))

	res, err := svc.Send(ctx, f.viewer, "p0", "primero")
	require.NoError(t, err)
	assert.Equal(t, MsgCommentPublished, res.Message)

	comments := svc.List(ctx, "p0")
	require.Len(t, comments, 1)
	c := comments[0]
	assert.Equal(t, "Ana", c.Author)

	_, err = svc.SetReplyTarget(f.viewer, "p0", c.ID, c.Author)
	require.NoError(t, err)

	// the same composer now answers the comment
	res, err = svc.Send(ctx, f.viewer, "p0", "respuesta")
	require.NoError(t, err)
	assert.Equal(t, MsgReplySent, res.Message)

	comments = svc.List(ctx, "p0")
	require.Len(t, comments, 1)
	require.Len(t, comments[0].Replies, 1)
	assert.Equal(t, "respuesta", comments[0].Replies[0].Text)

	_, ok := svc.ReplyTarget(f.viewer)
	assert.False(t, ok, "target is cleared after replying")

	p, _ := f.state.Post("p0")
	assert.Equal(t, 1, p.CommentsCount)
	assert.NotEmpty(t, f.hub.ops(ws.OpCommentsUpdate))
}

func TestReplyTargetOnOtherPostIsIgnored(t *testing.T) {
	f, svc := newCommentFixture(t)
	ctx := context.Background()

	_, err := svc.SetReplyTarget(f.viewer, "other", "c1", "Luis")
	require.NoError(t, err)

	res, err := svc.Send(ctx, f.viewer, "p0", "hola")
	require.NoError(t, err)
	assert.Equal(t, MsgCommentPublished, res.Message)
}

func TestReplyToVanishedThread(t *testing.T) {
	f, svc := newCommentFixture(t)
	ctx := context.Background()

	_, err := svc.SetReplyTarget(f.viewer, "p0", "gone", "Luis")
	require.NoError(t, err)

	_, err = svc.Send(ctx, f.viewer, "p0", "hola")
	require.ErrorIs(t, err, pkg.ErrNotFound)
	assert.Equal(t, MsgThreadMissing, pkg.UserMessage(err))

	svc.CancelReply(f.viewer)
	_, ok := svc.ReplyTarget(f.viewer)
	assert.False(t, ok)
}

func TestEditConfirmation(t *testing.T) {
	f, svc := newCommentFixture(t)
	ctx := context.Background()
	_, err := svc.Send(ctx, f.viewer, "p0", "original")
	require.NoError(t, err)
	id := svc.List(ctx, "p0")[0].ID

	conf, err := svc.OpenEdit(ctx, f.viewer, "p0", id)
	require.NoError(t, err)
	assert.Equal(t, MsgLabelSave, conf.Label)
	assert.Equal(t, "original", conf.Body)

	_, err = svc.Confirm(ctx, f.viewer, conf.Token, "   ")
	require.ErrorIs(t, err, pkg.ErrBadRequest)
	assert.Equal(t, MsgCommentEditEmpty, pkg.UserMessage(err))

	// the dialog survives the rejected attempt
	res, err := svc.Confirm(ctx, f.viewer, conf.Token, "editado")
	require.NoError(t, err)
	assert.Equal(t, MsgCommentUpdated, res.Message)
	assert.Equal(t, "editado", svc.List(ctx, "p0")[0].Text)

	// and runs only once
	_, err = svc.Confirm(ctx, f.viewer, conf.Token, "otra vez")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestDeleteConfirmationAndCancel(t *testing.T) {
	f, svc := newCommentFixture(t)
	ctx := context.Background()
	_, err := svc.Send(ctx, f.viewer, "p0", "borrar")
	require.NoError(t, err)
	id := svc.List(ctx, "p0")[0].ID

	conf, err := svc.OpenDelete(ctx, f.viewer, "p0", id)
	require.NoError(t, err)
	assert.Equal(t, MsgLabelDelete, conf.Label)
	assert.Equal(t, MsgConfirmDelete, conf.Body)

	assert.Equal(t, MsgLabelConfirm, svc.CancelConfirm(f.viewer, conf.Token))
	_, err = svc.Confirm(ctx, f.viewer, conf.Token, "")
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	conf, err = svc.OpenDelete(ctx, f.viewer, "p0", id)
	require.NoError(t, err)
	res, err := svc.Confirm(ctx, f.viewer, conf.Token, "")
	require.NoError(t, err)
	assert.Equal(t, MsgCommentDeleted, res.Message)
	assert.Empty(t, svc.List(ctx, "p0"))
}

func TestOnlyAuthorMayEditOrDelete(t *testing.T) {
	f, svc := newCommentFixture(t)
	ctx := context.Background()
	_, err := svc.Send(ctx, f.viewer, "p0", "mío")
	require.NoError(t, err)
	id := svc.List(ctx, "p0")[0].ID

	luis := models.Viewer{ID: "luis", Name: "Luis"}
	_, err = svc.OpenEdit(ctx, luis, "p0", id)
	assert.ErrorIs(t, err, pkg.ErrForbidden)
	_, err = svc.OpenDelete(ctx, luis, "p0", id)
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	// a token is bound to the viewer that opened it
	conf, err := svc.OpenDelete(ctx, f.viewer, "p0", id)
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, luis, conf.Token, "")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestCommentReactionToggle(t *testing.T) {
	f, svc := newCommentFixture(t)
	ctx := context.Background()
	_, err := svc.Send(ctx, f.viewer, "p0", "hola")
	require.NoError(t, err)
	id := svc.List(ctx, "p0")[0].ID

	c, err := svc.React(ctx, "p0", id, "❤️")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Reactions["❤️"])
	assert.Equal(t, "❤️", c.UserReaction)

	c, err = svc.React(ctx, "p0", id, "😡")
	require.NoError(t, err)
	assert.Equal(t, 0, c.Reactions["❤️"])
	assert.Equal(t, 1, c.Reactions["😡"])

	c, err = svc.React(ctx, "p0", id, "😡")
	require.NoError(t, err)
	assert.Equal(t, 0, c.Reactions["😡"])
	assert.Empty(t, c.UserReaction)

	c, err = svc.React(ctx, "p0", "missing", "😡")
	assert.NoError(t, err)
	assert.Nil(t, c)

	_, err = svc.React(ctx, "p0", id, "x")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestDeletingPostDropsItsThread(t *testing.T) {
	f, svc := newCommentFixture(t)
	ctx := context.Background()
	_, err := svc.Send(ctx, f.viewer, "p0", "hola")
	require.NoError(t, err)

	_, err = f.feed.Delete(ctx, "", "p0")
	require.NoError(t, err)
	f.feed.Wait()

	assert.Empty(t, svc.List(ctx, "p0"))
}

func TestStaleThreadOfDeletedPostStaysGone(t *testing.T) {
	f, svc := newCommentFixture(t)
	ctx := context.Background()
	_, err := svc.Send(ctx, f.viewer, "p0", "hola")
	require.NoError(t, err)
	id := svc.List(ctx, "p0")[0].ID

	_, err = f.feed.Delete(ctx, "", "p0")
	require.NoError(t, err)
	f.feed.Wait()

	res, err := svc.Send(ctx, f.viewer, "p0", "tarde")
	require.NoError(t, err)
	assert.Empty(t, res.Message)

	c, err := svc.React(ctx, "p0", id, "❤️")
	require.NoError(t, err)
	assert.Nil(t, c)

	_, found, err := f.store.Get(ctx, models.CommentsKey("p0"))
	require.NoError(t, err)
	assert.False(t, found)
}
