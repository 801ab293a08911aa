package engagement

import "fmt"

// SubjectType names the kind of thing a like points at
type SubjectType string

const (
	SubjectPost    SubjectType = "post"
	SubjectComment SubjectType = "comment"
	SubjectReply   SubjectType = "reply"
)

// Valid reports whether t is a known subject type
func (t SubjectType) Valid() bool {
	switch t {
	case SubjectPost, SubjectComment, SubjectReply:
		return true
	}
	return false
}

// ParseSubjectType converts a wire value into a SubjectType
func ParseSubjectType(s string) (SubjectType, error) {
	t := SubjectType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown subject type %q", ErrInvalidSubject, s)
	}
	return t, nil
}

// Subject is anything that can be liked: a post, a comment or a reply.
// Each subject has its own independent like relation.
type Subject struct {
	Type SubjectType `json:"type"`
	ID   string      `json:"id"`
}

func PostSubject(id string) Subject    { return Subject{Type: SubjectPost, ID: id} }
func CommentSubject(id string) Subject { return Subject{Type: SubjectComment, ID: id} }
func ReplySubject(id string) Subject   { return Subject{Type: SubjectReply, ID: id} }

func (s Subject) String() string {
	return string(s.Type) + ":" + s.ID
}

// Validate checks the subject has a known type and an id
func (s Subject) Validate() error {
	if !s.Type.Valid() || s.ID == "" {
		return fmt.Errorf("%w: %q", ErrInvalidSubject, s.String())
	}
	return nil
}

// LikeState is the believed-true like count of a subject and whether the viewer liked it
type LikeState struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}
