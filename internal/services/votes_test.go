package services

import (
	"testing"
	"time"

	"agentlink/internal/models"
	"agentlink/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestToggleVote(t *testing.T) {
	tests := []struct {
		name     string
		existing *int
		next     int
		want     ToggleResult
	}{
		{"首次点赞", nil, 1, ToggleResult{VoteActionCreate, 1, 0, 1}},
		{"首次点踩", nil, -1, ToggleResult{VoteActionCreate, 0, 1, -1}},
		{"再点一次取消赞", intPtr(1), 1, ToggleResult{VoteActionDelete, -1, 0, 0}},
		{"再点一次取消踩", intPtr(-1), -1, ToggleResult{VoteActionDelete, 0, -1, 0}},
		{"赞改踩", intPtr(1), -1, ToggleResult{VoteActionUpdate, -1, 1, -1}},
		{"踩改赞", intPtr(-1), 1, ToggleResult{VoteActionUpdate, 1, -1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToggleVote(tt.existing, tt.next))
		})
	}
}

func TestApplyVoteFirstUpvote(t *testing.T) {
	gdb := newTestDB(t)
	author := newActor(t, gdb)
	voter := newActor(t, gdb)
	boardID := newBoard(t, gdb, "tech")
	post := newPost(t, gdb, boardID, author)

	result, err := ApplyVote(gdb, voter, models.TargetTypePost, post.ID, 1, testNow)
	require.NoError(t, err)
	assert.Equal(t, &VoteResult{Up: 1, Down: 0, MyVote: 1}, result)

	// 计数、分数、流水、总额全部落库
	reloaded := reloadPost(t, gdb, post.ID)
	assert.Equal(t, 1, reloaded.UpCount)
	assert.Equal(t, 0, reloaded.DownCount)
	assert.InDelta(t, utils.ComputeHotScore(1, 0, reloaded.CreatedAt), reloaded.HotScore, 1e-9)
	assert.Equal(t, utils.ComputeDiscussedScore(0, 1, 0), reloaded.DiscussedScore)

	entries := ledgerEntries(t, gdb, author)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Delta)
	assert.Equal(t, models.PointReasonVoteChange, entries[0].Reason)
	assert.Equal(t, 1, actorPoints(t, gdb, author))
}

func TestApplyVoteToggleOff(t *testing.T) {
	gdb := newTestDB(t)
	author := newActor(t, gdb)
	voter := newActor(t, gdb)
	boardID := newBoard(t, gdb, "tech")
	post := newPost(t, gdb, boardID, author)

	_, err := ApplyVote(gdb, voter, models.TargetTypePost, post.ID, 1, testNow)
	require.NoError(t, err)

	// 同值再投即取消：计数归零、票行删除、积分收回
	result, err := ApplyVote(gdb, voter, models.TargetTypePost, post.ID, 1, testNow)
	require.NoError(t, err)
	assert.Equal(t, &VoteResult{Up: 0, Down: 0, MyVote: 0}, result)
	assert.Equal(t, int64(0), voteCount(t, gdb))

	// 流水不删只追加，净额回到 0
	entries := ledgerEntries(t, gdb, author)
	require.Len(t, entries, 2)
	assert.Equal(t, -1, entries[1].Delta)
	assert.Equal(t, 0, actorPoints(t, gdb, author))
}

func TestApplyVoteFlipOnComment(t *testing.T) {
	gdb := newTestDB(t)
	author := newActor(t, gdb)
	voter := newActor(t, gdb)
	boardID := newBoard(t, gdb, "tech")
	post := newPost(t, gdb, boardID, author)
	comment := newComment(t, gdb, post.ID, author)

	_, err := ApplyVote(gdb, voter, models.TargetTypeComment, comment.ID, 1, testNow)
	require.NoError(t, err)

	// 赞改踩一步到位：两个计数器各动一格，积分一条流水 -2
	result, err := ApplyVote(gdb, voter, models.TargetTypeComment, comment.ID, -1, testNow)
	require.NoError(t, err)
	assert.Equal(t, &VoteResult{Up: 0, Down: 1, MyVote: -1}, result)
	assert.Equal(t, int64(1), voteCount(t, gdb))

	entries := ledgerEntries(t, gdb, author)
	require.Len(t, entries, 2)
	assert.Equal(t, -2, entries[1].Delta)
	assert.Equal(t, -1, actorPoints(t, gdb, author))

	reloaded := reloadComment(t, gdb, comment.ID)
	assert.Equal(t, 0, reloaded.UpCount)
	assert.Equal(t, 1, reloaded.DownCount)
}

func TestApplyVoteSelfVote(t *testing.T) {
	gdb := newTestDB(t)
	author := newActor(t, gdb)
	boardID := newBoard(t, gdb, "tech")
	post := newPost(t, gdb, boardID, author)

	_, err := ApplyVote(gdb, author, models.TargetTypePost, post.ID, 1, testNow)
	assert.ErrorIs(t, err, ErrSelfVote)

	// 拒绝时一切不变
	assert.Equal(t, int64(0), voteCount(t, gdb))
	assert.Empty(t, ledgerEntries(t, gdb, author))
	assert.Equal(t, 0, reloadPost(t, gdb, post.ID).UpCount)
}

func TestApplyVoteFrozenTarget(t *testing.T) {
	gdb := newTestDB(t)
	author := newActor(t, gdb)
	voter := newActor(t, gdb)
	boardID := newBoard(t, gdb, "tech")

	post := newPost(t, gdb, boardID, author)
	require.NoError(t, gdb.Model(post).Update("status", models.ContentStatusHidden).Error)

	_, err := ApplyVote(gdb, voter, models.TargetTypePost, post.ID, 1, testNow)
	assert.ErrorIs(t, err, ErrTargetFrozen)

	// 评论本身可见但所在帖子被冻结，同样拒绝
	visible := newPost(t, gdb, boardID, author)
	comment := newComment(t, gdb, visible.ID, author)
	require.NoError(t, gdb.Model(visible).Update("status", models.ContentStatusDeleted).Error)

	_, err = ApplyVote(gdb, voter, models.TargetTypeComment, comment.ID, 1, testNow)
	assert.ErrorIs(t, err, ErrTargetFrozen)

	assert.Equal(t, int64(0), voteCount(t, gdb))
	assert.Empty(t, ledgerEntries(t, gdb, author))
}

func TestApplyVoteNotFound(t *testing.T) {
	gdb := newTestDB(t)
	voter := newActor(t, gdb)

	_, err := ApplyVote(gdb, voter, models.TargetTypePost, 9999, 1, testNow)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyVoteBanned(t *testing.T) {
	gdb := newTestDB(t)
	author := newActor(t, gdb)
	voter := newActor(t, gdb)
	techID := newBoard(t, gdb, "tech")
	chatID := newBoard(t, gdb, "chat")
	post := newPost(t, gdb, techID, author)

	// 板块封禁只对该板块生效
	require.NoError(t, gdb.Create(&models.Ban{
		ActorID: voter, Scope: models.BanScopeBoard, BoardID: &chatID,
	}).Error)
	_, err := ApplyVote(gdb, voter, models.TargetTypePost, post.ID, 1, testNow)
	require.NoError(t, err)

	require.NoError(t, gdb.Create(&models.Ban{
		ActorID: voter, Scope: models.BanScopeBoard, BoardID: &techID,
	}).Error)
	_, err = ApplyVote(gdb, voter, models.TargetTypePost, post.ID, -1, testNow)
	assert.ErrorIs(t, err, ErrBanned)

	// 全站封禁对所有板块生效
	other := newActor(t, gdb)
	require.NoError(t, gdb.Create(&models.Ban{
		ActorID: other, Scope: models.BanScopeGlobal,
	}).Error)
	_, err = ApplyVote(gdb, other, models.TargetTypePost, post.ID, 1, testNow)
	assert.ErrorIs(t, err, ErrBanned)
}

func TestApplyVoteBestPromotion(t *testing.T) {
	gdb := newTestDB(t)
	author := newActor(t, gdb)
	boardID := newBoard(t, gdb, "tech")
	post := newPost(t, gdb, boardID, author)

	voters := []uint{newActor(t, gdb), newActor(t, gdb), newActor(t, gdb)}
	promotedAt := testNow

	for i, voter := range voters {
		result, err := ApplyVote(gdb, voter, models.TargetTypePost, post.ID, 1, promotedAt)
		require.NoError(t, err)
		assert.Equal(t, i+1, result.Up)
	}

	reloaded := reloadPost(t, gdb, post.ID)
	assert.True(t, reloaded.IsBest)
	require.NotNil(t, reloaded.BestAt)
	assert.Equal(t, promotedAt.Unix(), reloaded.BestAt.Unix())

	// 掉下门槛再冲回去，精华标记和首次晋升时间都不动
	later := testNow.Add(2 * time.Hour)
	_, err := ApplyVote(gdb, voters[0], models.TargetTypePost, post.ID, 1, later) // 取消
	require.NoError(t, err)
	reloaded = reloadPost(t, gdb, post.ID)
	assert.True(t, reloaded.IsBest)
	assert.Equal(t, 2, reloaded.UpCount)

	_, err = ApplyVote(gdb, voters[0], models.TargetTypePost, post.ID, 1, later) // 重新点赞
	require.NoError(t, err)
	reloaded = reloadPost(t, gdb, post.ID)
	assert.True(t, reloaded.IsBest)
	require.NotNil(t, reloaded.BestAt)
	assert.Equal(t, promotedAt.Unix(), reloaded.BestAt.Unix())
}
