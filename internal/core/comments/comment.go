package comments

import (
	"sort"
	"time"
)

// Comment is a top-level comment on a post.
// LikeCount is derived and never trusted over a live count of the likes relation.
type Comment struct {
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	ID        string    `json:"id" db:"id"`
	PostID    string    `json:"postId" db:"post_id"`
	AuthorID  string    `json:"authorId" db:"author_id"`
	Body      string    `json:"body" db:"body"`
	LikeCount int       `json:"likeCount" db:"like_count"`
}

// Reply answers a Comment. Replies never own replies: the tree is exactly two levels deep.
type Reply struct {
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	ID              string    `json:"id" db:"id"`
	ParentCommentID string    `json:"parentCommentId" db:"parent_comment_id"`
	AuthorID        string    `json:"authorId" db:"author_id"`
	Body            string    `json:"body" db:"body"`
	LikeCount       int       `json:"likeCount" db:"like_count"`
}

// SortComments orders comments by creation ascending, ties broken by id
func SortComments(list []Comment) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}

// SortReplies orders replies by creation ascending, ties broken by id
func SortReplies(list []Reply) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}
